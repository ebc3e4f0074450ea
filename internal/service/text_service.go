package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"dashboard-api/internal/domain"
	"dashboard-api/internal/repository"
	"dashboard-api/internal/storage"
)

var (
	// ErrTextNotFound is returned when deleting an unknown content item.
	ErrTextNotFound = domain.NotFound("Text not found")
	// ErrArchiveDisabled is returned when listing archived texts without a bucket.
	ErrArchiveDisabled = errors.New("text archive is not configured")
)

// ArchiveWarning is reported to clients when a deleted text could not be archived.
const ArchiveWarning = "Deleted text could not be archived"

type archivedText struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// DeleteResult carries the removed item plus any non-fatal archive problem.
type DeleteResult struct {
	Text     domain.Text
	Archived string
	Warnings []string
}

// TextService coordinates content items backed by a repository.
type TextService interface {
	Create(ctx context.Context, content string) (*domain.Text, error)
	List(ctx context.Context) ([]domain.Text, error)
	Delete(ctx context.Context, id string) (*DeleteResult, error)
	ListArchived(ctx context.Context) ([]storage.ObjectInfo, error)
}

type textService struct {
	texts   repository.TextRepository
	archive storage.Archiver
	logger  logrus.FieldLogger
}

// NewTextService wires the content service. archive may be nil.
func NewTextService(texts repository.TextRepository, archive storage.Archiver, logger logrus.FieldLogger) TextService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &textService{
		texts:   texts,
		archive: archive,
		logger:  logger,
	}
}

func (s *textService) Create(ctx context.Context, content string) (*domain.Text, error) {
	if strings.TrimSpace(content) == "" {
		return nil, domain.Validation("Content cannot be empty")
	}

	text := &domain.Text{Content: content}
	if _, err := s.texts.Create(ctx, text); err != nil {
		return nil, err
	}
	return text, nil
}

func (s *textService) List(ctx context.Context) ([]domain.Text, error) {
	return s.texts.List(ctx)
}

func (s *textService) Delete(ctx context.Context, id string) (*DeleteResult, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrTextNotFound
	}

	text, err := s.texts.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTextNotFound
		}
		return nil, err
	}

	result := &DeleteResult{Text: *text}
	if s.archive == nil {
		return result, nil
	}

	payload, err := json.Marshal(archivedText{
		ID:        text.ID,
		Content:   text.Content,
		CreatedAt: text.CreatedAt,
	})
	if err != nil {
		s.logger.WithError(err).WithField("text_id", text.ID).Warn("encode deleted text for archive")
		result.Warnings = append(result.Warnings, ArchiveWarning)
		return result, nil
	}

	location, err := s.archive.Archive(ctx, text.ID+".json", payload)
	if err != nil {
		s.logger.WithError(err).WithField("text_id", text.ID).Warn("archive deleted text")
		result.Warnings = append(result.Warnings, ArchiveWarning)
		return result, nil
	}
	result.Archived = location
	return result, nil
}

func (s *textService) ListArchived(ctx context.Context) ([]storage.ObjectInfo, error) {
	if s.archive == nil {
		return nil, ErrArchiveDisabled
	}
	return s.archive.List(ctx)
}
