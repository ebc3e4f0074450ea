package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"dashboard-api/internal/domain"
	"dashboard-api/internal/repository"
)

const createTextsTable = `
CREATE TABLE IF NOT EXISTS texts (
	id TEXT PRIMARY KEY,
	content TEXT NOT NULL,
	created_at DATETIME NOT NULL
);
`

type TextRepository struct {
	db *sql.DB
}

func NewTextRepository(db *sql.DB) repository.TextRepository {
	return &TextRepository{db: db}
}

func (r *TextRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createTextsTable); err != nil {
		return fmt.Errorf("create texts table: %w", err)
	}
	return nil
}

func (r *TextRepository) Create(ctx context.Context, text *domain.Text) (string, error) {
	text.ID = uuid.NewString()
	text.CreatedAt = time.Now().UTC()

	if _, err := r.db.ExecContext(ctx, `
INSERT INTO texts (id, content, created_at)
VALUES (?, ?, ?)`,
		text.ID,
		text.Content,
		text.CreatedAt,
	); err != nil {
		return "", fmt.Errorf("insert text: %w", err)
	}
	return text.ID, nil
}

func (r *TextRepository) List(ctx context.Context) ([]domain.Text, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, content, created_at
FROM texts
ORDER BY rowid ASC`)
	if err != nil {
		return nil, fmt.Errorf("query texts: %w", err)
	}
	defer rows.Close()

	texts := []domain.Text{}
	for rows.Next() {
		var text domain.Text
		if err := rows.Scan(&text.ID, &text.Content, &text.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan text: %w", err)
		}
		texts = append(texts, text)
	}
	return texts, rows.Err()
}

func (r *TextRepository) Delete(ctx context.Context, id string) (*domain.Text, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() // safe no-op on commit

	var text domain.Text
	err = tx.QueryRowContext(ctx, `
SELECT id, content, created_at
FROM texts
WHERE id = ?`, id).Scan(&text.ID, &text.Content, &text.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("text %s: %w", id, repository.ErrNotFound)
		}
		return nil, fmt.Errorf("scan text: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM texts WHERE id = ?`, id); err != nil {
		return nil, fmt.Errorf("delete text: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return &text, nil
}
