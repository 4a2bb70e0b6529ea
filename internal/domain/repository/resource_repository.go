package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"peer_coach/internal/common"
	"peer_coach/internal/domain/model"
)

var ErrResourceURLExists = common.NewError(common.KindConflict, "URL already exists")

// MaxResourceListing caps every resource listing.
const MaxResourceListing = 500

type ResourceRepository interface {
	Create(ctx context.Context, res *model.Resource) error
	FindByID(ctx context.Context, id string) (*model.Resource, error)
	List(ctx context.Context, filter model.ResourceFilter) ([]model.Resource, error)
	Update(ctx context.Context, res *model.Resource) error
	Delete(ctx context.Context, id string) error
	Approve(ctx context.Context, id string) (*model.Resource, error)
	IncrementClicks(ctx context.Context, id string) error
}

type pgResourceRepository struct {
	db *sql.DB
}

func NewPgResourceRepository(db *sql.DB) ResourceRepository {
	return &pgResourceRepository{db: db}
}

const resourceColumns = `id, title, url, note, section, tags, company, created_by, approved, clicks, created_at, updated_at`

func scanResource(row interface{ Scan(...any) error }, res *model.Resource) error {
	var tags []byte
	if err := row.Scan(
		&res.ID, &res.Title, &res.URL, &res.Note, &res.Section, &tags, &res.Company,
		&res.CreatedBy, &res.Approved, &res.Clicks, &res.CreatedAt, &res.UpdatedAt,
	); err != nil {
		return err
	}
	decoded, err := decodeStrings(tags)
	if err != nil {
		return fmt.Errorf("decode tags: %w", err)
	}
	res.Tags = decoded
	return nil
}

func (r *pgResourceRepository) Create(ctx context.Context, res *model.Resource) error {
	tags, err := jsonColumn(res.Tags)
	if err != nil {
		return fmt.Errorf("pgResourceRepository.Create encode tags: %w", err)
	}
	query := `INSERT INTO resources (id, title, url, note, section, tags, company, created_by, approved, clicks)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	          RETURNING created_at, updated_at`
	err = r.db.QueryRowContext(ctx, query,
		res.ID, res.Title, res.URL, res.Note, res.Section, tags, res.Company, res.CreatedBy, res.Approved, res.Clicks,
	).Scan(&res.CreatedAt, &res.UpdatedAt)
	if err != nil {
		if common.IsUniqueViolation(err) {
			return ErrResourceURLExists
		}
		return fmt.Errorf("pgResourceRepository.Create: %w", err)
	}
	return nil
}

func (r *pgResourceRepository) FindByID(ctx context.Context, id string) (*model.Resource, error) {
	res := &model.Resource{}
	query := `SELECT ` + resourceColumns + ` FROM resources WHERE id = $1`
	if err := scanResource(r.db.QueryRowContext(ctx, query, id), res); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgResourceRepository.FindByID: %w", err)
	}
	return res, nil
}

// buildResourceQuery turns a filter into SQL equivalent to ResourceFilter.Matches.
func buildResourceQuery(filter model.ResourceFilter) (string, []any) {
	var query strings.Builder
	query.WriteString(`SELECT ` + resourceColumns + ` FROM resources`)

	var conditions []string
	var args []any
	argID := 1

	if filter.Approved != nil {
		conditions = append(conditions, fmt.Sprintf("approved = $%d", argID))
		args = append(args, *filter.Approved)
		argID++
	}
	if filter.Section != "" {
		conditions = append(conditions, fmt.Sprintf("section = $%d", argID))
		args = append(args, filter.Section)
		argID++
	}
	if filter.Company != "" {
		conditions = append(conditions, fmt.Sprintf("company = $%d", argID))
		args = append(args, filter.Company)
		argID++
	}
	if len(filter.Tags) > 0 {
		conditions = append(conditions, fmt.Sprintf("tags ?| $%d", argID))
		args = append(args, filter.Tags)
		argID++
	}
	if filter.Query != "" {
		conditions = append(conditions, fmt.Sprintf(
			"(title ILIKE $%[1]d OR note ILIKE $%[1]d OR section ILIKE $%[1]d OR company ILIKE $%[1]d)", argID))
		args = append(args, "%"+escapeLike(filter.Query)+"%")
		argID++
	}

	if len(conditions) > 0 {
		query.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}

	limit := filter.Limit
	if limit <= 0 || limit > MaxResourceListing {
		limit = MaxResourceListing
	}
	query.WriteString(fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", argID))
	args = append(args, limit)
	return query.String(), args
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func (r *pgResourceRepository) List(ctx context.Context, filter model.ResourceFilter) ([]model.Resource, error) {
	query, args := buildResourceQuery(filter)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("pgResourceRepository.List query: %w", err)
	}
	defer rows.Close()

	resources := []model.Resource{}
	for rows.Next() {
		var res model.Resource
		if err := scanResource(rows, &res); err != nil {
			return nil, fmt.Errorf("pgResourceRepository.List scan: %w", err)
		}
		resources = append(resources, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgResourceRepository.List rows.Err: %w", err)
	}
	return resources, nil
}

func (r *pgResourceRepository) Update(ctx context.Context, res *model.Resource) error {
	tags, err := jsonColumn(res.Tags)
	if err != nil {
		return fmt.Errorf("pgResourceRepository.Update encode tags: %w", err)
	}
	query := `UPDATE resources SET title = $1, url = $2, note = $3, section = $4, tags = $5, company = $6, updated_at = NOW()
	          WHERE id = $7 RETURNING updated_at`
	err = r.db.QueryRowContext(ctx, query,
		res.Title, res.URL, res.Note, res.Section, tags, res.Company, res.ID,
	).Scan(&res.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return common.ErrNotFound
		}
		if common.IsUniqueViolation(err) {
			return ErrResourceURLExists
		}
		return fmt.Errorf("pgResourceRepository.Update: %w", err)
	}
	return nil
}

func (r *pgResourceRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM resources WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("pgResourceRepository.Delete: %w", err)
	}
	return requireAffected(res, "pgResourceRepository.Delete")
}

func (r *pgResourceRepository) Approve(ctx context.Context, id string) (*model.Resource, error) {
	res := &model.Resource{}
	query := `UPDATE resources SET approved = TRUE, updated_at = NOW() WHERE id = $1 RETURNING ` + resourceColumns
	if err := scanResource(r.db.QueryRowContext(ctx, query, id), res); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgResourceRepository.Approve: %w", err)
	}
	return res, nil
}

func (r *pgResourceRepository) IncrementClicks(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE resources SET clicks = clicks + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("pgResourceRepository.IncrementClicks: %w", err)
	}
	return requireAffected(res, "pgResourceRepository.IncrementClicks")
}
