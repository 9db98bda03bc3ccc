package repository

import (
	"context"
	"errors"
	"fmt"

	"betpool/database"
	"betpool/models"
	"betpool/service"

	"github.com/jackc/pgx/v5"
)

const participationColumns = `id, bet_id, user_id, option_id, stake, status, payout_amount, created_at, updated_at`

const participationUniqueConstraint = "uq_bet_participations_bet_user"

// ParticipationRepository implements bet participation data access
type ParticipationRepository struct {
	q queryable
}

// NewParticipationRepository creates a new participation repository
func NewParticipationRepository(db *database.DB) *ParticipationRepository {
	return &ParticipationRepository{q: db.Pool}
}

// newParticipationRepositoryWithTx creates a new participation repository with a transaction
func newParticipationRepositoryWithTx(tx queryable) *ParticipationRepository {
	return &ParticipationRepository{q: tx}
}

func scanParticipation(row pgx.Row) (*models.Participation, error) {
	var p models.Participation
	err := row.Scan(
		&p.ID,
		&p.BetID,
		&p.UserID,
		&p.OptionID,
		&p.Stake,
		&p.Status,
		&p.PayoutAmount,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Create inserts a participation. A second participation of the same user on
// the same bet fails with service.ErrAlreadyParticipated.
func (r *ParticipationRepository) Create(ctx context.Context, participation *models.Participation) error {
	query := `
		INSERT INTO bet_participations (bet_id, user_id, option_id, stake, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`

	err := r.q.QueryRow(ctx, query,
		participation.BetID,
		participation.UserID,
		participation.OptionID,
		participation.Stake,
		participation.Status,
	).Scan(&participation.ID, &participation.CreatedAt, &participation.UpdatedAt)
	if isUniqueViolation(err, participationUniqueConstraint) {
		return service.ErrAlreadyParticipated
	}
	if err != nil {
		return fmt.Errorf("failed to create participation for user %d on bet %d: %w",
			participation.UserID, participation.BetID, err)
	}
	return nil
}

// GetByID retrieves a participation by id
func (r *ParticipationRepository) GetByID(ctx context.Context, id int64) (*models.Participation, error) {
	query := `SELECT ` + participationColumns + ` FROM bet_participations WHERE id = $1`

	p, err := scanParticipation(r.q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get participation %d: %w", id, err)
	}
	return p, nil
}

// GetByBetAndUser retrieves the participation of a user on a bet
func (r *ParticipationRepository) GetByBetAndUser(ctx context.Context, betID, userID int64) (*models.Participation, error) {
	query := `SELECT ` + participationColumns + ` FROM bet_participations WHERE bet_id = $1 AND user_id = $2`

	p, err := scanParticipation(r.q.QueryRow(ctx, query, betID, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get participation of user %d on bet %d: %w", userID, betID, err)
	}
	return p, nil
}

// GetByBet returns every participation of a bet in join order
func (r *ParticipationRepository) GetByBet(ctx context.Context, betID int64) ([]*models.Participation, error) {
	query := `SELECT ` + participationColumns + ` FROM bet_participations WHERE bet_id = $1 ORDER BY id`

	rows, err := r.q.Query(ctx, query, betID)
	if err != nil {
		return nil, fmt.Errorf("failed to get participations of bet %d: %w", betID, err)
	}
	defer rows.Close()

	var participations []*models.Participation
	for rows.Next() {
		p, err := scanParticipation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan participation: %w", err)
		}
		participations = append(participations, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate participations: %w", err)
	}
	return participations, nil
}

// CountByBet returns the number of participations on a bet
func (r *ParticipationRepository) CountByBet(ctx context.Context, betID int64) (int, error) {
	var count int
	err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM bet_participations WHERE bet_id = $1`, betID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count participations of bet %d: %w", betID, err)
	}
	return count, nil
}

// UpdateOption moves a participation to another option of the same bet
func (r *ParticipationRepository) UpdateOption(ctx context.Context, id int64, optionID int64) error {
	query := `
		UPDATE bet_participations
		SET option_id = $2, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.q.Exec(ctx, query, id, optionID)
	if err != nil {
		return fmt.Errorf("failed to update option of participation %d: %w", id, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("participation %d not found", id)
	}
	return nil
}

// UpdateSettlement writes status and payout for each participation in one batch
func (r *ParticipationRepository) UpdateSettlement(ctx context.Context, participations []*models.Participation) error {
	if len(participations) == 0 {
		return nil
	}

	query := `
		UPDATE bet_participations
		SET status = $2, payout_amount = $3, updated_at = NOW()
		WHERE id = $1
	`

	batch := &pgx.Batch{}
	for _, p := range participations {
		batch.Queue(query, p.ID, p.Status, p.PayoutAmount)
	}

	results := r.q.SendBatch(ctx, batch)
	defer results.Close()

	for _, p := range participations {
		tag, err := results.Exec()
		if err != nil {
			return fmt.Errorf("failed to settle participation %d: %w", p.ID, err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("participation %d not found", p.ID)
		}
	}
	return nil
}

// ResetByBet returns every participation of a bet to the accepted state
func (r *ParticipationRepository) ResetByBet(ctx context.Context, betID int64) error {
	query := `
		UPDATE bet_participations
		SET status = 'accepted', payout_amount = NULL, updated_at = NOW()
		WHERE bet_id = $1
	`

	if _, err := r.q.Exec(ctx, query, betID); err != nil {
		return fmt.Errorf("failed to reset participations of bet %d: %w", betID, err)
	}
	return nil
}

// Delete removes one participation
func (r *ParticipationRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.q.Exec(ctx, `DELETE FROM bet_participations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete participation %d: %w", id, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("participation %d not found", id)
	}
	return nil
}

// DeleteByBet removes every participation of a bet
func (r *ParticipationRepository) DeleteByBet(ctx context.Context, betID int64) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM bet_participations WHERE bet_id = $1`, betID); err != nil {
		return fmt.Errorf("failed to delete participations of bet %d: %w", betID, err)
	}
	return nil
}
