package projects

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/UnknownOlympus/talentfit/internal/models"
	"github.com/google/uuid"
	"github.com/wI2L/jsondiff"
)

// DraftStore persists the draft list of each manager as a whole value.
type DraftStore interface {
	LoadDrafts(ctx context.Context, owner int64) ([]models.Draft, error)
	MergeDraft(ctx context.Context, owner int64, draft models.Draft) error
	DeleteDraft(ctx context.Context, owner int64, id uuid.UUID) error
}

// HistoryStore keeps the project edit audit log.
type HistoryStore interface {
	AppendChange(ctx context.Context, entry models.ChangeEntry) error
	ListChanges(ctx context.Context, projectID int64, limit int) ([]models.ChangeEntry, error)
}

// DraftService keeps unsent project forms and the edit history.
type DraftService struct {
	drafts  DraftStore
	history HistoryStore
	log     *slog.Logger
	now     func() time.Time
}

// NewDraftService creates a draft service.
func NewDraftService(drafts DraftStore, history HistoryStore, log *slog.Logger) *DraftService {
	return &DraftService{drafts: drafts, history: history, log: log, now: time.Now}
}

// SaveDraft stores the project form under id, or under a new id when id is uuid.Nil.
// Drafts of the same owner with other ids are preserved.
func (s *DraftService) SaveDraft(ctx context.Context, owner int64, id uuid.UUID, in Input) (models.Draft, error) {
	if id == uuid.Nil {
		id = uuid.New()
	}
	draft := models.Draft{ID: id, Project: in.Project(), SavedAt: s.now().UTC()}

	if err := s.drafts.MergeDraft(ctx, owner, draft); err != nil {
		return models.Draft{}, fmt.Errorf("failed to save draft: %w", err)
	}

	s.log.InfoContext(ctx, "Project draft saved", "owner", owner, "draft", id)
	return draft, nil
}

// Drafts lists the drafts of an owner.
func (s *DraftService) Drafts(ctx context.Context, owner int64) ([]models.Draft, error) {
	drafts, err := s.drafts.LoadDrafts(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to load drafts: %w", err)
	}
	return drafts, nil
}

// Discard removes one draft, typically after the backend accepted it.
func (s *DraftService) Discard(ctx context.Context, owner int64, id uuid.UUID) error {
	if err := s.drafts.DeleteDraft(ctx, owner, id); err != nil {
		return fmt.Errorf("failed to discard draft: %w", err)
	}
	return nil
}

// RecordChange appends an applied edit to the project history.
func (s *DraftService) RecordChange(
	ctx context.Context,
	projectID, author int64,
	patch jsondiff.Patch,
) (models.ChangeEntry, error) {
	raw, err := json.Marshal(patch)
	if err != nil {
		return models.ChangeEntry{}, fmt.Errorf("failed to encode change: %w", err)
	}

	entry := models.ChangeEntry{
		ID:        uuid.New(),
		ProjectID: projectID,
		AuthorID:  author,
		Patch:     raw,
		CreatedAt: s.now().UTC(),
	}
	if err = s.history.AppendChange(ctx, entry); err != nil {
		return models.ChangeEntry{}, fmt.Errorf("failed to record change: %w", err)
	}
	return entry, nil
}

// History returns the latest changes of a project, newest first.
func (s *DraftService) History(ctx context.Context, projectID int64, limit int) ([]models.ChangeEntry, error) {
	entries, err := s.history.ListChanges(ctx, projectID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list changes: %w", err)
	}
	return entries, nil
}
