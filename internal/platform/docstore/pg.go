package docstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PG stores records in one Postgres table per collection. Tables carry only
// the record envelope (id, activo where applicable, documento, timestamps);
// all entity structure lives inside the opaque documento column.
type PG struct {
	pool *pgxpool.Pool
}

func NewPG(pool *pgxpool.Pool) *PG {
	return &PG{pool: pool}
}

func (s *PG) Get(ctx context.Context, col Collection, id string) (*Record, error) {
	var (
		r   Record
		err error
	)
	if col.HasLifecycle() {
		err = s.pool.QueryRow(ctx,
			`SELECT id, activo, documento, created_at, updated_at FROM `+string(col)+` WHERE id = $1`, id).
			Scan(&r.ID, &r.Active, &r.Document, &r.CreatedAt, &r.UpdatedAt)
	} else {
		r.Active = true
		err = s.pool.QueryRow(ctx,
			`SELECT id, documento, created_at, updated_at FROM `+string(col)+` WHERE id = $1`, id).
			Scan(&r.ID, &r.Document, &r.CreatedAt, &r.UpdatedAt)
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s %s: %w", col, id, err)
	}
	return &r, nil
}

func (s *PG) List(ctx context.Context, col Collection, onlyActive bool, limit, offset int) ([]*Record, int, error) {
	where := ""
	if onlyActive && col.HasLifecycle() {
		where = ` WHERE activo = TRUE`
	}

	var total int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM `+string(col)+where).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count %s: %w", col, err)
	}

	cols := `id, documento, created_at, updated_at`
	if col.HasLifecycle() {
		cols = `id, activo, documento, created_at, updated_at`
	}
	rows, err := s.pool.Query(ctx,
		`SELECT `+cols+` FROM `+string(col)+where+` ORDER BY created_at LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list %s: %w", col, err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		var r Record
		if col.HasLifecycle() {
			err = rows.Scan(&r.ID, &r.Active, &r.Document, &r.CreatedAt, &r.UpdatedAt)
		} else {
			r.Active = true
			err = rows.Scan(&r.ID, &r.Document, &r.CreatedAt, &r.UpdatedAt)
		}
		if err != nil {
			return nil, 0, fmt.Errorf("scan %s: %w", col, err)
		}
		records = append(records, &r)
	}
	return records, total, rows.Err()
}

func (s *PG) Create(ctx context.Context, col Collection, document string) (*Record, error) {
	r := Record{ID: uuid.New().String(), Active: true, Document: document}
	var err error
	if col.HasLifecycle() {
		err = s.pool.QueryRow(ctx,
			`INSERT INTO `+string(col)+` (id, activo, documento) VALUES ($1, TRUE, $2) RETURNING created_at, updated_at`,
			r.ID, document).Scan(&r.CreatedAt, &r.UpdatedAt)
	} else {
		err = s.pool.QueryRow(ctx,
			`INSERT INTO `+string(col)+` (id, documento) VALUES ($1, $2) RETURNING created_at, updated_at`,
			r.ID, document).Scan(&r.CreatedAt, &r.UpdatedAt)
	}
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", col, err)
	}
	return &r, nil
}

func (s *PG) Update(ctx context.Context, col Collection, id, document string) (*Record, error) {
	r := Record{ID: id, Active: true, Document: document}
	var err error
	if col.HasLifecycle() {
		err = s.pool.QueryRow(ctx,
			`UPDATE `+string(col)+` SET documento = $2, updated_at = NOW() WHERE id = $1 RETURNING activo, created_at, updated_at`,
			id, document).Scan(&r.Active, &r.CreatedAt, &r.UpdatedAt)
	} else {
		err = s.pool.QueryRow(ctx,
			`UPDATE `+string(col)+` SET documento = $2, updated_at = NOW() WHERE id = $1 RETURNING created_at, updated_at`,
			id, document).Scan(&r.CreatedAt, &r.UpdatedAt)
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update %s %s: %w", col, id, err)
	}
	return &r, nil
}

func (s *PG) Deactivate(ctx context.Context, col Collection, id string) error {
	if !col.HasLifecycle() {
		return fmt.Errorf("collection %s has no lifecycle flag", col)
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE `+string(col)+` SET activo = FALSE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deactivate %s %s: %w", col, id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
