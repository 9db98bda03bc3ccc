package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"betpool/database"
	"betpool/models"

	"github.com/jackc/pgx/v5"
)

const betColumns = `id, title, description, amount, status, winning_option_id, deadline,
	created_by, created_at, updated_at, resolved_at`

// BetRepository implements bet and option data access
type BetRepository struct {
	q queryable
}

// NewBetRepository creates a new bet repository
func NewBetRepository(db *database.DB) *BetRepository {
	return &BetRepository{q: db.Pool}
}

// newBetRepositoryWithTx creates a new bet repository with a transaction
func newBetRepositoryWithTx(tx queryable) *BetRepository {
	return &BetRepository{q: tx}
}

func scanBet(row pgx.Row) (*models.Bet, error) {
	var bet models.Bet
	err := row.Scan(
		&bet.ID,
		&bet.Title,
		&bet.Description,
		&bet.Amount,
		&bet.Status,
		&bet.WinningOptionID,
		&bet.Deadline,
		&bet.CreatedBy,
		&bet.CreatedAt,
		&bet.UpdatedAt,
		&bet.ResolvedAt,
	)
	if err != nil {
		return nil, err
	}
	return &bet, nil
}

// CreateWithOptions inserts a bet and its options. Option ids and the bet id
// are written back to the given structs.
func (r *BetRepository) CreateWithOptions(ctx context.Context, bet *models.Bet, options []*models.BetOption) error {
	query := `
		INSERT INTO bets (title, description, amount, status, deadline, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`

	err := r.q.QueryRow(ctx, query,
		bet.Title,
		bet.Description,
		bet.Amount,
		bet.Status,
		bet.Deadline,
		bet.CreatedBy,
	).Scan(&bet.ID, &bet.CreatedAt, &bet.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create bet: %w", err)
	}

	return r.insertOptions(ctx, bet.ID, options)
}

func (r *BetRepository) insertOptions(ctx context.Context, betID int64, options []*models.BetOption) error {
	if len(options) == 0 {
		return nil
	}

	values := make([]string, 0, len(options))
	args := make([]any, 0, len(options)*3)
	for i, option := range options {
		values = append(values, fmt.Sprintf("($%d, $%d, $%d)", i*3+1, i*3+2, i*3+3))
		args = append(args, betID, option.Text, option.Position)
	}

	query := `INSERT INTO bet_options (bet_id, text, position) VALUES ` +
		strings.Join(values, ", ") + ` RETURNING id, position`

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to create bet options: %w", err)
	}
	defer rows.Close()

	byPosition := make(map[int16]*models.BetOption, len(options))
	for _, option := range options {
		option.BetID = betID
		byPosition[option.Position] = option
	}
	for rows.Next() {
		var (
			id       int64
			position int16
		)
		if err := rows.Scan(&id, &position); err != nil {
			return fmt.Errorf("failed to scan option id: %w", err)
		}
		if option, ok := byPosition[position]; ok {
			option.ID = id
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to create bet options: %w", err)
	}
	return nil
}

// GetByID retrieves a bet by its ID
func (r *BetRepository) GetByID(ctx context.Context, id int64) (*models.Bet, error) {
	return r.get(ctx, `SELECT `+betColumns+` FROM bets WHERE id = $1`, id)
}

// GetForUpdate retrieves a bet and locks its row for the rest of the transaction
func (r *BetRepository) GetForUpdate(ctx context.Context, id int64) (*models.Bet, error) {
	return r.get(ctx, `SELECT `+betColumns+` FROM bets WHERE id = $1 FOR UPDATE`, id)
}

func (r *BetRepository) get(ctx context.Context, query string, id int64) (*models.Bet, error) {
	bet, err := scanBet(r.q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bet %d: %w", id, err)
	}
	return bet, nil
}

// GetOptions returns the options of a bet ordered by position
func (r *BetRepository) GetOptions(ctx context.Context, betID int64) ([]*models.BetOption, error) {
	query := `
		SELECT id, bet_id, text, position
		FROM bet_options
		WHERE bet_id = $1
		ORDER BY position
	`

	rows, err := r.q.Query(ctx, query, betID)
	if err != nil {
		return nil, fmt.Errorf("failed to get options for bet %d: %w", betID, err)
	}
	defer rows.Close()

	var options []*models.BetOption
	for rows.Next() {
		var option models.BetOption
		if err := rows.Scan(&option.ID, &option.BetID, &option.Text, &option.Position); err != nil {
			return nil, fmt.Errorf("failed to scan option: %w", err)
		}
		options = append(options, &option)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate options: %w", err)
	}
	return options, nil
}

// GetDetail retrieves a bet with its options and participations
func (r *BetRepository) GetDetail(ctx context.Context, id int64) (*models.BetDetail, error) {
	bet, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if bet == nil {
		return nil, nil
	}

	options, err := r.GetOptions(ctx, id)
	if err != nil {
		return nil, err
	}

	participations, err := newParticipationRepositoryWithTx(r.q).GetByBet(ctx, id)
	if err != nil {
		return nil, err
	}
	if participations == nil {
		participations = []*models.Participation{}
	}

	return &models.BetDetail{
		Bet:            bet,
		Options:        options,
		Participations: participations,
	}, nil
}

// List returns bets newest first, optionally restricted to one status
func (r *BetRepository) List(ctx context.Context, status *models.BetStatus) ([]*models.Bet, error) {
	query := `SELECT ` + betColumns + ` FROM bets`
	var args []any
	if status != nil {
		query += ` WHERE status = $1`
		args = append(args, *status)
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list bets: %w", err)
	}
	defer rows.Close()

	bets := []*models.Bet{}
	for rows.Next() {
		bet, err := scanBet(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bet: %w", err)
		}
		bets = append(bets, bet)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bets: %w", err)
	}
	return bets, nil
}

// Update writes every mutable column of a bet
func (r *BetRepository) Update(ctx context.Context, bet *models.Bet) error {
	query := `
		UPDATE bets
		SET title = $2,
		    description = $3,
		    amount = $4,
		    status = $5,
		    winning_option_id = $6,
		    deadline = $7,
		    resolved_at = $8,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`

	err := r.q.QueryRow(ctx, query,
		bet.ID,
		bet.Title,
		bet.Description,
		bet.Amount,
		bet.Status,
		bet.WinningOptionID,
		bet.Deadline,
		bet.ResolvedAt,
	).Scan(&bet.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("bet %d not found", bet.ID)
	}
	if err != nil {
		return fmt.Errorf("failed to update bet %d: %w", bet.ID, err)
	}
	return nil
}

// ReplaceOptions deletes the options of a bet and inserts new ones
func (r *BetRepository) ReplaceOptions(ctx context.Context, betID int64, options []*models.BetOption) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM bet_options WHERE bet_id = $1`, betID); err != nil {
		return fmt.Errorf("failed to delete options of bet %d: %w", betID, err)
	}
	return r.insertOptions(ctx, betID, options)
}

// Delete removes a bet; its options cascade
func (r *BetRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.q.Exec(ctx, `DELETE FROM bets WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete bet %d: %w", id, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("bet %d not found", id)
	}
	return nil
}
