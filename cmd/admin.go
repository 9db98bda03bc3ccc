package cmd

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"betpool/auth"
	"betpool/config"
	"betpool/database"
	"betpool/events"
	"betpool/models"
	"betpool/repository"
	"betpool/service"
)

// CreateAdmin inserts an admin account directly, bypassing the admin check
// RegisterUser enforces. It is how the first account of a fresh database
// is created.
func CreateAdmin(ctx context.Context, displayName string, email *string) (*models.User, error) {
	cfg := config.Get()
	configureLogging(cfg)

	db, err := database.NewConnection(ctx, database.ConstructDatabaseURL(cfg.DatabaseURL, cfg.DatabaseName))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	// Nothing subscribes here, so no notifications go out for this account
	uowFactory := repository.NewUnitOfWorkFactory(db, events.NewBus())
	uow := uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	user, err := uow.UserRepository().Create(ctx, displayName, email, models.RoleAdmin)
	if err != nil {
		return nil, fmt.Errorf("failed to create admin: %w", err)
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"user_id":      user.ID,
		"display_name": user.DisplayName,
	}).Info("Admin account created")
	return user, nil
}

// IssueToken signs a bearer token for an existing account
func IssueToken(ctx context.Context, userID int64, ttl time.Duration) (string, error) {
	cfg := config.Get()
	configureLogging(cfg)

	db, err := database.NewConnection(ctx, database.ConstructDatabaseURL(cfg.DatabaseURL, cfg.DatabaseName))
	if err != nil {
		return "", fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	ledger := service.NewLedgerService(repository.NewUnitOfWorkFactory(db, events.NewBus()), nil)
	user, err := ledger.GetUser(ctx, userID)
	if err != nil {
		return "", err
	}

	return auth.NewVerifier(cfg.JWTSecret, ledger).Issue(user, ttl)
}
