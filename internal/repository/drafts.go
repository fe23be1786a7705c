package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/UnknownOlympus/talentfit/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ErrDraftNotFound is returned when a draft id is not in the owner's list.
var ErrDraftNotFound = errors.New("draft not found")

// LoadDrafts returns the draft list of an owner. An owner without drafts gets an empty list.
func (r *Repository) LoadDrafts(ctx context.Context, owner int64) ([]models.Draft, error) {
	defer r.observe("load_drafts", time.Now())

	var raw []byte
	err := r.db.QueryRow(ctx, selectDraftsSQL, owner).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return []models.Draft{}, nil
		}
		return nil, fmt.Errorf("failed to load drafts: %w", err)
	}

	return decodeDrafts(raw)
}

// SaveDrafts replaces the whole draft list of an owner.
func (r *Repository) SaveDrafts(ctx context.Context, owner int64, drafts []models.Draft) error {
	defer r.observe("save_drafts", time.Now())

	raw, err := encodeDrafts(drafts)
	if err != nil {
		return err
	}

	if _, err = r.db.Exec(ctx, upsertDraftsSQL, owner, raw); err != nil {
		return fmt.Errorf("failed to save drafts: %w", err)
	}
	return nil
}

// MergeDraft inserts or replaces one draft, matched by id, keeping the rest of the list.
// The owner's row is created first and then read with FOR UPDATE, so concurrent merges of
// one owner do not lose drafts even when the owner had none.
func (r *Repository) MergeDraft(ctx context.Context, owner int64, draft models.Draft) error {
	defer r.observe("merge_draft", time.Now())

	return r.rewriteDrafts(ctx, owner, func(drafts []models.Draft) ([]models.Draft, error) {
		for i := range drafts {
			if drafts[i].ID == draft.ID {
				drafts[i] = draft
				return drafts, nil
			}
		}
		return append(drafts, draft), nil
	})
}

// DeleteDraft removes one draft from the owner's list.
// It returns ErrDraftNotFound when the id is not in the list.
func (r *Repository) DeleteDraft(ctx context.Context, owner int64, id uuid.UUID) error {
	defer r.observe("delete_draft", time.Now())

	return r.rewriteDrafts(ctx, owner, func(drafts []models.Draft) ([]models.Draft, error) {
		for i := range drafts {
			if drafts[i].ID == id {
				return append(drafts[:i], drafts[i+1:]...), nil
			}
		}
		return nil, ErrDraftNotFound
	})
}

func (r *Repository) rewriteDrafts(
	ctx context.Context,
	owner int64,
	change func([]models.Draft) ([]models.Draft, error),
) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // omitted because checking for errors will not affect the function

	// the row must exist before FOR UPDATE can lock it
	if _, err = tx.Exec(ctx, ensureDraftsSQL, owner); err != nil {
		return fmt.Errorf("failed to create drafts row: %w", err)
	}

	drafts := []models.Draft{}
	var raw []byte
	err = tx.QueryRow(ctx, selectDraftsForUpdateSQL, owner).Scan(&raw)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
	case err != nil:
		return fmt.Errorf("failed to lock drafts: %w", err)
	default:
		if drafts, err = decodeDrafts(raw); err != nil {
			return err
		}
	}

	if drafts, err = change(drafts); err != nil {
		return err
	}

	if raw, err = encodeDrafts(drafts); err != nil {
		return err
	}
	if _, err = tx.Exec(ctx, upsertDraftsSQL, owner, raw); err != nil {
		return fmt.Errorf("failed to save drafts: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func decodeDrafts(raw []byte) ([]models.Draft, error) {
	drafts := []models.Draft{}
	if len(raw) == 0 {
		return drafts, nil
	}
	if err := json.Unmarshal(raw, &drafts); err != nil {
		return nil, fmt.Errorf("failed to decode drafts: %w", err)
	}
	return drafts, nil
}

func encodeDrafts(drafts []models.Draft) ([]byte, error) {
	if drafts == nil {
		drafts = []models.Draft{}
	}
	raw, err := json.Marshal(drafts)
	if err != nil {
		return nil, fmt.Errorf("failed to encode drafts: %w", err)
	}
	return raw, nil
}
