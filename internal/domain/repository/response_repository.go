package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"peer_coach/internal/common"
	"peer_coach/internal/domain/model"
)

type ResponseRepository interface {
	Create(ctx context.Context, resp *model.Response) error
	FindByID(ctx context.Context, id string) (*model.Response, error)
	ListByDoubt(ctx context.Context, doubtID string) ([]model.Response, error)
	ListByAuthor(ctx context.Context, authorID string) ([]model.Response, error)
	Update(ctx context.Context, resp *model.Response) error
	Delete(ctx context.Context, id string) error
	DeleteByDoubt(ctx context.Context, doubtID string) error
	// IncrementLikes adds one like atomically and returns the new count.
	IncrementLikes(ctx context.Context, id string) (int, error)
}

type pgResponseRepository struct {
	db *sql.DB
}

func NewPgResponseRepository(db *sql.DB) ResponseRepository {
	return &pgResponseRepository{db: db}
}

const responseSelect = `
        SELECT r.id, r.doubt_id, r.author_id, COALESCE(u.username, ''), COALESCE(u.role, ''),
               r.content, r.attachments, r.is_by_mentor, r.likes, r.created_at, r.updated_at
        FROM responses r
        LEFT JOIN users u ON r.author_id = u.id`

func scanResponse(row interface{ Scan(...any) error }, resp *model.Response) error {
	var (
		attachments []byte
		updatedAt   sql.NullTime
	)
	if err := row.Scan(
		&resp.ID, &resp.DoubtID, &resp.AuthorID, &resp.AuthorUsername, &resp.AuthorRole,
		&resp.Content, &attachments, &resp.IsByMentor, &resp.Likes, &resp.CreatedAt, &updatedAt,
	); err != nil {
		return err
	}
	resp.Attachments = []model.Attachment{}
	if len(attachments) > 0 {
		if err := json.Unmarshal(attachments, &resp.Attachments); err != nil {
			return fmt.Errorf("decode attachments: %w", err)
		}
	}
	resp.UpdatedAt = nil
	if updatedAt.Valid {
		resp.UpdatedAt = &updatedAt.Time
	}
	return nil
}

func (r *pgResponseRepository) Create(ctx context.Context, resp *model.Response) error {
	attachments, err := jsonColumn(resp.Attachments)
	if err != nil {
		return fmt.Errorf("pgResponseRepository.Create encode attachments: %w", err)
	}
	query := `INSERT INTO responses (id, doubt_id, author_id, content, attachments, is_by_mentor, likes)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)
	          RETURNING created_at`
	err = r.db.QueryRowContext(ctx, query,
		resp.ID, resp.DoubtID, resp.AuthorID, resp.Content, attachments, resp.IsByMentor, resp.Likes,
	).Scan(&resp.CreatedAt)
	if err != nil {
		return fmt.Errorf("pgResponseRepository.Create: %w", err)
	}
	return nil
}

func (r *pgResponseRepository) FindByID(ctx context.Context, id string) (*model.Response, error) {
	resp := &model.Response{}
	if err := scanResponse(r.db.QueryRowContext(ctx, responseSelect+` WHERE r.id = $1`, id), resp); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgResponseRepository.FindByID: %w", err)
	}
	return resp, nil
}

func (r *pgResponseRepository) list(ctx context.Context, op, query string, arg string) ([]model.Response, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("pgResponseRepository.%s query: %w", op, err)
	}
	defer rows.Close()

	responses := []model.Response{}
	for rows.Next() {
		var resp model.Response
		if err := scanResponse(rows, &resp); err != nil {
			return nil, fmt.Errorf("pgResponseRepository.%s scan: %w", op, err)
		}
		responses = append(responses, resp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgResponseRepository.%s rows.Err: %w", op, err)
	}
	return responses, nil
}

func (r *pgResponseRepository) ListByDoubt(ctx context.Context, doubtID string) ([]model.Response, error) {
	return r.list(ctx, "ListByDoubt", responseSelect+` WHERE r.doubt_id = $1 ORDER BY r.created_at ASC, r.id ASC`, doubtID)
}

func (r *pgResponseRepository) ListByAuthor(ctx context.Context, authorID string) ([]model.Response, error) {
	return r.list(ctx, "ListByAuthor", responseSelect+` WHERE r.author_id = $1 ORDER BY r.created_at DESC`, authorID)
}

func (r *pgResponseRepository) Update(ctx context.Context, resp *model.Response) error {
	attachments, err := jsonColumn(resp.Attachments)
	if err != nil {
		return fmt.Errorf("pgResponseRepository.Update encode attachments: %w", err)
	}
	var updatedAt time.Time
	query := `UPDATE responses SET content = $1, attachments = $2, updated_at = NOW()
	          WHERE id = $3 RETURNING updated_at`
	err = r.db.QueryRowContext(ctx, query, resp.Content, attachments, resp.ID).Scan(&updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return common.ErrNotFound
		}
		return fmt.Errorf("pgResponseRepository.Update: %w", err)
	}
	resp.UpdatedAt = &updatedAt
	return nil
}

func (r *pgResponseRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM responses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("pgResponseRepository.Delete: %w", err)
	}
	return requireAffected(res, "pgResponseRepository.Delete")
}

func (r *pgResponseRepository) DeleteByDoubt(ctx context.Context, doubtID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM responses WHERE doubt_id = $1`, doubtID); err != nil {
		return fmt.Errorf("pgResponseRepository.DeleteByDoubt: %w", err)
	}
	return nil
}

func (r *pgResponseRepository) IncrementLikes(ctx context.Context, id string) (int, error) {
	var likes int
	err := r.db.QueryRowContext(ctx, `UPDATE responses SET likes = likes + 1 WHERE id = $1 RETURNING likes`, id).Scan(&likes)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, common.ErrNotFound
		}
		return 0, fmt.Errorf("pgResponseRepository.IncrementLikes: %w", err)
	}
	return likes, nil
}
