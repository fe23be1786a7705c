package repository

import (
	"context"
	"time"

	"github.com/UnknownOlympus/talentfit/internal/metrics"
	"github.com/UnknownOlympus/talentfit/internal/models"
	"github.com/google/uuid"
)

type Repository struct {
	db      Database
	metrics *metrics.Metrics
}

// Interface defines the persistence operations of the bot: linked Telegram accounts,
// the legacy draft project list of each manager and the project edit history.
type Interface interface {
	UpsertBotUser(ctx context.Context, telegramID, userID int64, role models.Role) error
	DeleteBotUser(ctx context.Context, telegramID int64) error
	GetTelegramIDByUserID(ctx context.Context, userID int64) (int64, error)
	GetManagers(ctx context.Context) ([]int64, error)
	GetUserLanguage(ctx context.Context, telegramID int64) (string, error)
	SetUserLanguage(ctx context.Context, telegramID int64, lang string) error

	LoadDrafts(ctx context.Context, owner int64) ([]models.Draft, error)
	SaveDrafts(ctx context.Context, owner int64, drafts []models.Draft) error
	MergeDraft(ctx context.Context, owner int64, draft models.Draft) error
	DeleteDraft(ctx context.Context, owner int64, id uuid.UUID) error

	AppendChange(ctx context.Context, entry models.ChangeEntry) error
	ListChanges(ctx context.Context, projectID int64, limit int) ([]models.ChangeEntry, error)
}

// Option configures a Repository.
type Option func(*Repository)

// WithMetrics records query durations in the given metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Repository) {
		r.metrics = m
	}
}

// NewRepository creates a new instance of Repository with the provided Database.
// It returns a pointer to the newly created Repository.
func NewRepository(db Database, opts ...Option) *Repository {
	repo := &Repository{db: db}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// observe records the duration of a query started at start.
func (r *Repository) observe(queryType string, start time.Time) {
	if r.metrics == nil {
		return
	}
	r.metrics.DBQueryDuration.WithLabelValues(queryType).Observe(time.Since(start).Seconds())
}
