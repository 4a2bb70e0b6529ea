package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"peer_coach/internal/common"
	"peer_coach/internal/domain/model"
)

var ErrUserExists = common.NewError(common.KindConflict, "User already registered")

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	FindByID(ctx context.Context, id string) (*model.User, error)
	List(ctx context.Context) ([]model.User, error)
	UpdateRole(ctx context.Context, id, role string) error
	SetPlaced(ctx context.Context, id string, placed bool) error
	MarkVerified(ctx context.Context, id string) error
	AddReputation(ctx context.Context, id string, delta int) error
	Delete(ctx context.Context, id string) error
	Leaderboard(ctx context.Context, limit int) ([]model.LeaderboardEntry, error)
}

type pgUserRepository struct {
	db *sql.DB
}

func NewPgUserRepository(db *sql.DB) UserRepository {
	return &pgUserRepository{db: db}
}

const userColumns = `id, username, email, hashed_password, role, is_placed, reputation, is_verified, created_at`

func scanUser(row interface{ Scan(...any) error }, user *model.User) error {
	return row.Scan(
		&user.ID, &user.Username, &user.Email, &user.HashedPassword, &user.Role,
		&user.IsPlaced, &user.Reputation, &user.IsVerified, &user.CreatedAt,
	)
}

func (r *pgUserRepository) Create(ctx context.Context, user *model.User) error {
	query := `INSERT INTO users (id, username, email, hashed_password, role, is_placed, reputation, is_verified)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	          RETURNING created_at`
	err := r.db.QueryRowContext(ctx, query,
		user.ID, user.Username, user.Email, user.HashedPassword, user.Role, user.IsPlaced, user.Reputation, user.IsVerified,
	).Scan(&user.CreatedAt)
	if err != nil {
		if common.IsUniqueViolation(err) {
			return ErrUserExists
		}
		return fmt.Errorf("pgUserRepository.Create: %w", err)
	}
	return nil
}

func (r *pgUserRepository) findOne(ctx context.Context, op, column, value string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + column + ` = $1`
	user := &model.User{}
	if err := scanUser(r.db.QueryRowContext(ctx, query, value), user); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgUserRepository.%s: %w", op, err)
	}
	return user, nil
}

func (r *pgUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findOne(ctx, "FindByEmail", "email", email)
}

func (r *pgUserRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.findOne(ctx, "FindByUsername", "username", username)
}

func (r *pgUserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	return r.findOne(ctx, "FindByID", "id", id)
}

func (r *pgUserRepository) List(ctx context.Context) ([]model.User, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("pgUserRepository.List query: %w", err)
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		var u model.User
		if err := scanUser(rows, &u); err != nil {
			return nil, fmt.Errorf("pgUserRepository.List scan: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgUserRepository.List rows.Err: %w", err)
	}
	return users, nil
}

func (r *pgUserRepository) exec(ctx context.Context, op, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("pgUserRepository.%s: %w", op, err)
	}
	return requireAffected(res, "pgUserRepository."+op)
}

func (r *pgUserRepository) UpdateRole(ctx context.Context, id, role string) error {
	return r.exec(ctx, "UpdateRole", `UPDATE users SET role = $1 WHERE id = $2`, role, id)
}

func (r *pgUserRepository) SetPlaced(ctx context.Context, id string, placed bool) error {
	return r.exec(ctx, "SetPlaced", `UPDATE users SET is_placed = $1 WHERE id = $2`, placed, id)
}

func (r *pgUserRepository) MarkVerified(ctx context.Context, id string) error {
	return r.exec(ctx, "MarkVerified", `UPDATE users SET is_verified = TRUE WHERE id = $1`, id)
}

// AddReputation is a single atomic increment, safe under concurrent likes.
func (r *pgUserRepository) AddReputation(ctx context.Context, id string, delta int) error {
	return r.exec(ctx, "AddReputation", `UPDATE users SET reputation = reputation + $1 WHERE id = $2`, delta, id)
}

func (r *pgUserRepository) Delete(ctx context.Context, id string) error {
	return r.exec(ctx, "Delete", `DELETE FROM users WHERE id = $1`, id)
}

func (r *pgUserRepository) Leaderboard(ctx context.Context, limit int) ([]model.LeaderboardEntry, error) {
	query := `SELECT id, username, role, reputation FROM users
	          ORDER BY reputation DESC, created_at ASC LIMIT $1`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("pgUserRepository.Leaderboard query: %w", err)
	}
	defer rows.Close()

	entries := []model.LeaderboardEntry{}
	for rows.Next() {
		e := model.LeaderboardEntry{Rank: len(entries) + 1}
		if err := rows.Scan(&e.UserID, &e.Username, &e.Role, &e.Reputation); err != nil {
			return nil, fmt.Errorf("pgUserRepository.Leaderboard scan: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgUserRepository.Leaderboard rows.Err: %w", err)
	}
	return entries, nil
}
