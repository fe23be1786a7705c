package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/UnknownOlympus/talentfit/internal/models"
)

// AppendChange stores one applied project edit.
func (r *Repository) AppendChange(ctx context.Context, entry models.ChangeEntry) error {
	defer r.observe("append_change", time.Now())

	_, err := r.db.Exec(ctx, insertChangeSQL,
		entry.ID, entry.ProjectID, entry.AuthorID, []byte(entry.Patch), entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to append change of project %d: %w", entry.ProjectID, err)
	}
	return nil
}

// ListChanges returns up to limit edits of a project, newest first.
func (r *Repository) ListChanges(ctx context.Context, projectID int64, limit int) ([]models.ChangeEntry, error) {
	defer r.observe("list_changes", time.Now())

	rows, err := r.db.Query(ctx, selectChangesSQL, projectID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query change history: %w", err)
	}
	defer rows.Close()

	var entries []models.ChangeEntry
	for rows.Next() {
		var (
			entry models.ChangeEntry
			patch []byte
		)
		if err = rows.Scan(&entry.ID, &entry.ProjectID, &entry.AuthorID, &patch, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan change row: %w", err)
		}
		entry.Patch = patch
		entries = append(entries, entry)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during change rows iteration: %w", err)
	}

	return entries, nil
}
