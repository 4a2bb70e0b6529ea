package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"peer_coach/internal/common"
	"peer_coach/internal/domain/model"
)

type DoubtRepository interface {
	Create(ctx context.Context, doubt *model.Doubt) error
	FindByID(ctx context.Context, id string) (*model.Doubt, error)
	List(ctx context.Context) ([]model.Doubt, error)
	Update(ctx context.Context, doubt *model.Doubt) error
	Delete(ctx context.Context, id string) error
	// ClearResolution reopens the doubt only if responseID is its accepted
	// response. It reports whether the doubt changed.
	ClearResolution(ctx context.Context, doubtID, responseID string) (bool, error)
}

type pgDoubtRepository struct {
	db *sql.DB
}

func NewPgDoubtRepository(db *sql.DB) DoubtRepository {
	return &pgDoubtRepository{db: db}
}

const doubtSelect = `
        SELECT d.id, d.title, d.slug, d.description, d.posted_by, COALESCE(u.username, ''),
               d.tags, d.status, d.resolved_by, d.created_at
        FROM doubts d
        LEFT JOIN users u ON d.posted_by = u.id`

func scanDoubt(row interface{ Scan(...any) error }, d *model.Doubt) error {
	var (
		tags       []byte
		resolvedBy sql.NullString
	)
	if err := row.Scan(
		&d.ID, &d.Title, &d.Slug, &d.Description, &d.PostedBy, &d.PostedByUsername,
		&tags, &d.Status, &resolvedBy, &d.CreatedAt,
	); err != nil {
		return err
	}
	decoded, err := decodeStrings(tags)
	if err != nil {
		return fmt.Errorf("decode tags: %w", err)
	}
	d.Tags = decoded
	d.ResolvedBy = nil
	if resolvedBy.Valid {
		d.ResolvedBy = &resolvedBy.String
	}
	return nil
}

func (r *pgDoubtRepository) Create(ctx context.Context, d *model.Doubt) error {
	tags, err := jsonColumn(d.Tags)
	if err != nil {
		return fmt.Errorf("pgDoubtRepository.Create encode tags: %w", err)
	}
	query := `INSERT INTO doubts (id, title, slug, description, posted_by, tags, status, resolved_by)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	          RETURNING created_at`
	err = r.db.QueryRowContext(ctx, query,
		d.ID, d.Title, d.Slug, d.Description, d.PostedBy, tags, d.Status, d.ResolvedBy,
	).Scan(&d.CreatedAt)
	if err != nil {
		return fmt.Errorf("pgDoubtRepository.Create: %w", err)
	}
	return nil
}

func (r *pgDoubtRepository) FindByID(ctx context.Context, id string) (*model.Doubt, error) {
	d := &model.Doubt{}
	if err := scanDoubt(r.db.QueryRowContext(ctx, doubtSelect+` WHERE d.id = $1`, id), d); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgDoubtRepository.FindByID: %w", err)
	}
	return d, nil
}

func (r *pgDoubtRepository) List(ctx context.Context) ([]model.Doubt, error) {
	rows, err := r.db.QueryContext(ctx, doubtSelect+` ORDER BY d.created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("pgDoubtRepository.List query: %w", err)
	}
	defer rows.Close()

	doubts := []model.Doubt{}
	for rows.Next() {
		var d model.Doubt
		if err := scanDoubt(rows, &d); err != nil {
			return nil, fmt.Errorf("pgDoubtRepository.List scan: %w", err)
		}
		doubts = append(doubts, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgDoubtRepository.List rows.Err: %w", err)
	}
	return doubts, nil
}

func (r *pgDoubtRepository) Update(ctx context.Context, d *model.Doubt) error {
	tags, err := jsonColumn(d.Tags)
	if err != nil {
		return fmt.Errorf("pgDoubtRepository.Update encode tags: %w", err)
	}
	query := `UPDATE doubts SET title = $1, slug = $2, description = $3, tags = $4, status = $5, resolved_by = $6
	          WHERE id = $7`
	res, err := r.db.ExecContext(ctx, query, d.Title, d.Slug, d.Description, tags, d.Status, d.ResolvedBy, d.ID)
	if err != nil {
		return fmt.Errorf("pgDoubtRepository.Update: %w", err)
	}
	return requireAffected(res, "pgDoubtRepository.Update")
}

// Delete removes the doubt; responses go with it through ON DELETE CASCADE.
func (r *pgDoubtRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM doubts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("pgDoubtRepository.Delete: %w", err)
	}
	return requireAffected(res, "pgDoubtRepository.Delete")
}

func (r *pgDoubtRepository) ClearResolution(ctx context.Context, doubtID, responseID string) (bool, error) {
	query := `UPDATE doubts SET status = $1, resolved_by = NULL WHERE id = $2 AND resolved_by = $3`
	res, err := r.db.ExecContext(ctx, query, model.DoubtStatusOpen, doubtID, responseID)
	if err != nil {
		return false, fmt.Errorf("pgDoubtRepository.ClearResolution: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("pgDoubtRepository.ClearResolution rows affected: %w", err)
	}
	return n > 0, nil
}
