package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/UnknownOlympus/talentfit/internal/models"
	"github.com/jackc/pgx/v5"
)

// DefaultLanguage is stored for users that never picked a language.
const DefaultLanguage = "en"

var (
	// ErrUserNotFound is returned when no Telegram account is linked to the requested user.
	ErrUserNotFound = errors.New("no telegram account linked to this user")
)

// UpsertBotUser links a Telegram account to a backend user after a successful sign-in.
// A backend user is linked to one Telegram account at a time, so any previous link of
// userID to another Telegram account is released in the same transaction.
//
// Parameters:
//   - ctx: The context for the database operation.
//   - telegramID: The Telegram account that signed in.
//   - userID: The backend user id returned by the sign-in exchange.
//   - role: The backend role of the user.
//
// Returns:
//   - error: An error if the link could not be stored.
func (r *Repository) UpsertBotUser(ctx context.Context, telegramID, userID int64, role models.Role) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // omitted because checking for errors will not affect the function

	if _, err = tx.Exec(ctx, releaseUserIDSQL, userID, telegramID); err != nil {
		return fmt.Errorf("failed to release previous link of user %d: %w", userID, err)
	}

	if _, err = tx.Exec(ctx, upsertBotUserSQL, telegramID, userID, string(role)); err != nil {
		return fmt.Errorf("failed to upsert bot user: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// DeleteBotUser removes the link of a Telegram account, typically on logout.
func (r *Repository) DeleteBotUser(ctx context.Context, telegramID int64) error {
	_, err := r.db.Exec(ctx, deleteBotUserSQL, telegramID)
	if err != nil {
		return fmt.Errorf("failed to delete user %d from bot_users: %w", telegramID, err)
	}

	return nil
}

// GetTelegramIDByUserID returns the Telegram account linked to a backend user.
// It returns ErrUserNotFound when the user never signed in through the bot.
func (r *Repository) GetTelegramIDByUserID(ctx context.Context, userID int64) (int64, error) {
	var telegramID int64

	err := r.db.QueryRow(ctx, selectTelegramIDSQL, userID).Scan(&telegramID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrUserNotFound
		}
		return 0, fmt.Errorf("failed to get telegram id of user %d: %w", userID, err)
	}

	return telegramID, nil
}

// GetManagers returns the Telegram ids of every linked manager.
func (r *Repository) GetManagers(ctx context.Context) ([]int64, error) {
	rows, err := r.db.Query(ctx, selectManagersSQL, string(models.RoleManager))
	if err != nil {
		return nil, fmt.Errorf("failed to query managers: %w", err)
	}
	defer rows.Close()

	var managers []int64
	for rows.Next() {
		var telegramID int64
		if err = rows.Scan(&telegramID); err != nil {
			return nil, fmt.Errorf("failed to scan manager row: %w", err)
		}
		managers = append(managers, telegramID)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during managers rows iteration: %w", err)
	}

	return managers, nil
}

// GetUserLanguage returns the language of a Telegram account. An unknown account gets
// DefaultLanguage together with ErrUserNotFound.
func (r *Repository) GetUserLanguage(ctx context.Context, telegramID int64) (string, error) {
	var lang string

	err := r.db.QueryRow(ctx, selectLanguageSQL, telegramID).Scan(&lang)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return DefaultLanguage, ErrUserNotFound
		}
		return DefaultLanguage, fmt.Errorf("failed to get user language: %w", err)
	}
	if lang == "" {
		lang = DefaultLanguage
	}

	return lang, nil
}

// SetUserLanguage stores the language of a linked Telegram account.
// It returns ErrUserNotFound when the account is not linked.
func (r *Repository) SetUserLanguage(ctx context.Context, telegramID int64, lang string) error {
	tag, err := r.db.Exec(ctx, updateLanguageSQL, telegramID, lang)
	if err != nil {
		return fmt.Errorf("failed to set user language: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}

	return nil
}
