package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"betpool/database"
	"betpool/models"

	"github.com/stretchr/testify/require"
)

// CreateTestUser builds an in-memory user with default values
func CreateTestUser(id int64, displayName string) *models.User {
	now := time.Now()
	return &models.User{
		ID:          id,
		DisplayName: displayName,
		Role:        models.RoleUser,
		Credits:     1000,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// CreateTestBet builds an in-memory bet in the given status
func CreateTestBet(id int64, amount int64, status models.BetStatus) *models.Bet {
	now := time.Now()
	bet := &models.Bet{
		ID:          id,
		Title:       fmt.Sprintf("Test bet %d", id),
		Description: "test bet",
		Amount:      amount,
		Status:      status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if status == models.BetStatusResolved {
		winning := id * 10
		bet.WinningOptionID = &winning
		bet.ResolvedAt = &now
	}
	return bet
}

// CreateTestOptions builds options for a bet. Ids are betID*10 + position.
func CreateTestOptions(betID int64, texts ...string) []*models.BetOption {
	options := make([]*models.BetOption, len(texts))
	for i, text := range texts {
		options[i] = &models.BetOption{
			ID:       betID*10 + int64(i),
			BetID:    betID,
			Text:     text,
			Position: int16(i),
		}
	}
	return options
}

// CreateTestParticipation builds an accepted participation
func CreateTestParticipation(id, betID, userID, optionID, stake int64) *models.Participation {
	now := time.Now()
	return &models.Participation{
		ID:        id,
		BetID:     betID,
		UserID:    userID,
		OptionID:  optionID,
		Stake:     stake,
		Status:    models.ParticipationStatusAccepted,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// SeedUser inserts a user with the given credits and returns its id
func SeedUser(t *testing.T, db *database.DB, displayName string, role models.Role, credits int64) int64 {
	t.Helper()

	var id int64
	err := db.QueryRow(context.Background(),
		`INSERT INTO users (display_name, role, credits) VALUES ($1, $2, $3) RETURNING id`,
		displayName, role, credits,
	).Scan(&id)
	require.NoError(t, err)
	return id
}

// SeedBet inserts a bet with its options and returns the bet id and the
// option ids in position order
func SeedBet(t *testing.T, db *database.DB, amount int64, status models.BetStatus, options ...string) (int64, []int64) {
	t.Helper()
	ctx := context.Background()

	var betID int64
	err := db.QueryRow(ctx,
		`INSERT INTO bets (title, description, amount, status) VALUES ($1, '', $2, $3) RETURNING id`,
		"Seeded bet", amount, status,
	).Scan(&betID)
	require.NoError(t, err)

	optionIDs := make([]int64, len(options))
	for i, text := range options {
		err := db.QueryRow(ctx,
			`INSERT INTO bet_options (bet_id, text, position) VALUES ($1, $2, $3) RETURNING id`,
			betID, text, i,
		).Scan(&optionIDs[i])
		require.NoError(t, err)
	}
	return betID, optionIDs
}

// SeedParticipation inserts an accepted participation and returns its id
func SeedParticipation(t *testing.T, db *database.DB, betID, userID, optionID, stake int64) int64 {
	t.Helper()

	var id int64
	err := db.QueryRow(context.Background(),
		`INSERT INTO bet_participations (bet_id, user_id, option_id, stake) VALUES ($1, $2, $3, $4) RETURNING id`,
		betID, userID, optionID, stake,
	).Scan(&id)
	require.NoError(t, err)
	return id
}

// UserCredits reads a user's current credits
func UserCredits(t *testing.T, db *database.DB, userID int64) int64 {
	t.Helper()

	var credits int64
	err := db.QueryRow(context.Background(), `SELECT credits FROM users WHERE id = $1`, userID).Scan(&credits)
	require.NoError(t, err)
	return credits
}
