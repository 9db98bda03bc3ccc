package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"betpool/cmd"
	"betpool/database"
)

func main() {
	if len(os.Args) > 1 {
		var err error
		switch os.Args[1] {
		case "migrate":
			err = handleMigrationCommand()
		case "create-admin":
			err = handleCreateAdmin()
		case "token":
			err = handleIssueToken()
		default:
			err = fmt.Errorf("unknown command: %s", os.Args[1])
		}
		if err != nil {
			log.Fatalf("%s error: %v", os.Args[1], err)
		}
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info("Received shutdown signal, shutting down gracefully...")
		cancel()
	}()

	if err := cmd.Run(ctx); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func handleMigrationCommand() error {
	if len(os.Args) < 3 {
		return fmt.Errorf("usage: betpool migrate [up|down|status] [args...]")
	}

	command := os.Args[2]
	switch command {
	case "up":
		return database.MigrateUp()
	case "down":
		steps := "1"
		if len(os.Args) > 3 {
			steps = os.Args[3]
		}
		return database.MigrateDown(steps)
	case "status":
		return database.MigrateStatus()
	default:
		return fmt.Errorf("unknown migration command: %s", command)
	}
}

func handleCreateAdmin() error {
	if len(os.Args) < 3 {
		return fmt.Errorf("usage: betpool create-admin display-name [email]")
	}
	var email *string
	if len(os.Args) > 3 {
		email = &os.Args[3]
	}

	user, err := cmd.CreateAdmin(context.Background(), os.Args[2], email)
	if err != nil {
		return err
	}
	fmt.Println(user.ID)
	return nil
}

func handleIssueToken() error {
	if len(os.Args) < 3 {
		return fmt.Errorf("usage: betpool token user-id [ttl]")
	}
	userID, err := strconv.ParseInt(os.Args[2], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid user id %q", os.Args[2])
	}
	ttl := 24 * time.Hour
	if len(os.Args) > 3 {
		if ttl, err = time.ParseDuration(os.Args[3]); err != nil {
			return fmt.Errorf("invalid ttl %q: %w", os.Args[3], err)
		}
	}

	token, err := cmd.IssueToken(context.Background(), userID, ttl)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}
