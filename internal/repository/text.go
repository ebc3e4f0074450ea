package repository

import (
	"context"

	"dashboard-api/internal/domain"
)

// TextRepository persists content items. List returns them in insertion order.
type TextRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, text *domain.Text) (string, error)
	List(ctx context.Context) ([]domain.Text, error)
	Delete(ctx context.Context, id string) (*domain.Text, error)
}
