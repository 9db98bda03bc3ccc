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

const userColumns = `id, display_name, email, role, credits, created_at, updated_at`

// UserRepository implements the UserRepository interface
type UserRepository struct {
	q queryable
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{q: db.Pool}
}

// newUserRepositoryWithTx creates a new user repository with a transaction
func newUserRepositoryWithTx(tx queryable) *UserRepository {
	return &UserRepository{q: tx}
}

func scanUser(row pgx.Row) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID,
		&user.DisplayName,
		&user.Email,
		&user.Role,
		&user.Credits,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByID retrieves a user by id
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user %d: %w", id, err)
	}
	return user, nil
}

// GetAll returns all users
func (r *UserRepository) GetAll(ctx context.Context) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY id`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}
	return users, nil
}

// GetIDsByRole returns the ids of users with the given role
func (r *UserRepository) GetIDsByRole(ctx context.Context, role models.Role) ([]int64, error) {
	return r.collectIDs(ctx, `SELECT id FROM users WHERE role = $1 ORDER BY id`, role)
}

// GetAllIDs returns the ids of all users
func (r *UserRepository) GetAllIDs(ctx context.Context) ([]int64, error) {
	return r.collectIDs(ctx, `SELECT id FROM users ORDER BY id`)
}

func (r *UserRepository) collectIDs(ctx context.Context, query string, args ...any) ([]int64, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query user ids: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("failed to collect user ids: %w", err)
	}
	return ids, nil
}

// Create creates a new user with zero credits
func (r *UserRepository) Create(ctx context.Context, displayName string, email *string, role models.Role) (*models.User, error) {
	query := `
		INSERT INTO users (display_name, email, role)
		VALUES ($1, $2, $3)
		RETURNING ` + userColumns

	user, err := scanUser(r.q.QueryRow(ctx, query, displayName, email, role))
	if isUniqueViolation(err, "idx_users_email") {
		return nil, &service.ValidationError{
			Fields: []service.FieldError{{Field: "email", Message: "is already registered"}},
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create user %q: %w", displayName, err)
	}
	return user, nil
}

// AdjustCredits adds a signed delta to a user's credits in one statement.
// The before value is derived from the returned row so concurrent adjustments
// serialise on the row lock and each sees a consistent pair.
func (r *UserRepository) AdjustCredits(ctx context.Context, userID int64, delta int64) (*models.CreditChange, error) {
	query := `
		UPDATE users
		SET credits = credits + $1, updated_at = NOW()
		WHERE id = $2
		RETURNING credits
	`

	var after int64
	err := r.q.QueryRow(ctx, query, delta, userID).Scan(&after)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("user %d: %w", userID, service.ErrUserNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to adjust credits for user %d: %w", userID, err)
	}

	return &models.CreditChange{
		UserID:        userID,
		BalanceBefore: after - delta,
		BalanceAfter:  after,
	}, nil
}

// SetCredits overwrites a user's credits
func (r *UserRepository) SetCredits(ctx context.Context, userID int64, credits int64) (*models.CreditChange, error) {
	query := `
		UPDATE users u
		SET credits = $1, updated_at = NOW()
		FROM (SELECT id, credits FROM users WHERE id = $2 FOR UPDATE) old
		WHERE u.id = old.id
		RETURNING old.credits, u.credits
	`

	change := &models.CreditChange{UserID: userID}
	err := r.q.QueryRow(ctx, query, credits, userID).Scan(&change.BalanceBefore, &change.BalanceAfter)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("user %d: %w", userID, service.ErrUserNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to set credits for user %d: %w", userID, err)
	}
	return change, nil
}

// ResetCreditsForRole zeroes the credits of every user with the given role
func (r *UserRepository) ResetCreditsForRole(ctx context.Context, role models.Role) ([]*models.CreditChange, error) {
	query := `
		UPDATE users u
		SET credits = 0, updated_at = NOW()
		FROM (SELECT id, credits FROM users WHERE role = $1 AND credits <> 0 FOR UPDATE) old
		WHERE u.id = old.id
		RETURNING u.id, old.credits
	`

	rows, err := r.q.Query(ctx, query, role)
	if err != nil {
		return nil, fmt.Errorf("failed to reset credits for role %s: %w", role, err)
	}
	defer rows.Close()

	var changes []*models.CreditChange
	for rows.Next() {
		change := &models.CreditChange{}
		if err := rows.Scan(&change.UserID, &change.BalanceBefore); err != nil {
			return nil, fmt.Errorf("failed to scan credit reset: %w", err)
		}
		changes = append(changes, change)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate credit resets: %w", err)
	}
	return changes, nil
}
