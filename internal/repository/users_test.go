package repository_test

import (
	"regexp"
	"testing"

	"github.com/UnknownOlympus/talentfit/internal/models"
	"github.com/UnknownOlympus/talentfit/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	releaseUserID = regexp.QuoteMeta("DELETE FROM bot_users WHERE user_id = $1 AND telegram_id <> $2")
	upsertBotUser = regexp.QuoteMeta("INSERT INTO bot_users (telegram_id, user_id, role)")
	deleteBotUser = regexp.QuoteMeta("DELETE FROM bot_users WHERE telegram_id = $1")
	selectTgID    = regexp.QuoteMeta("SELECT telegram_id FROM bot_users WHERE user_id = $1")
	selectManager = regexp.QuoteMeta("SELECT telegram_id FROM bot_users WHERE role = $1")
	selectLang    = regexp.QuoteMeta("SELECT language FROM bot_users WHERE telegram_id = $1")
	updateLang    = regexp.QuoteMeta("UPDATE bot_users SET language = $2")
)

func newMock(t *testing.T) (pgxmock.PgxPoolIface, *repository.Repository) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock, repository.NewRepository(mock)
}

func TestUpsertBotUser(t *testing.T) {
	t.Parallel()
	telegramID, userID := int64(12345), int64(7)

	t.Run("success", func(t *testing.T) {
		t.Parallel()
		mock, repo := newMock(t)

		mock.ExpectBegin()
		mock.ExpectExec(releaseUserID).WithArgs(userID, telegramID).
			WillReturnResult(pgxmock.NewResult("DELETE", 1))
		mock.ExpectExec(upsertBotUser).WithArgs(telegramID, userID, "Manager").
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mock.ExpectCommit()

		require.NoError(t, repo.UpsertBotUser(t.Context(), telegramID, userID, models.RoleManager))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("error - failed to begin transaction", func(t *testing.T) {
		t.Parallel()
		mock, repo := newMock(t)

		mock.ExpectBegin().WillReturnError(assert.AnError)

		err := repo.UpsertBotUser(t.Context(), telegramID, userID, models.RoleEmployee)
		require.ErrorIs(t, err, assert.AnError)
		require.ErrorContains(t, err, "failed to begin transaction")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("error - release fails", func(t *testing.T) {
		t.Parallel()
		mock, repo := newMock(t)

		mock.ExpectBegin()
		mock.ExpectExec(releaseUserID).WithArgs(userID, telegramID).WillReturnError(assert.AnError)
		mock.ExpectRollback()

		err := repo.UpsertBotUser(t.Context(), telegramID, userID, models.RoleEmployee)
		require.ErrorIs(t, err, assert.AnError)
		require.ErrorContains(t, err, "failed to release previous link")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("error - upsert fails", func(t *testing.T) {
		t.Parallel()
		mock, repo := newMock(t)

		mock.ExpectBegin()
		mock.ExpectExec(releaseUserID).WithArgs(userID, telegramID).
			WillReturnResult(pgxmock.NewResult("DELETE", 0))
		mock.ExpectExec(upsertBotUser).WithArgs(telegramID, userID, "Employee").WillReturnError(assert.AnError)
		mock.ExpectRollback()

		err := repo.UpsertBotUser(t.Context(), telegramID, userID, models.RoleEmployee)
		require.ErrorContains(t, err, "failed to upsert bot user")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("error - commit fails", func(t *testing.T) {
		t.Parallel()
		mock, repo := newMock(t)

		mock.ExpectBegin()
		mock.ExpectExec(releaseUserID).WithArgs(userID, telegramID).
			WillReturnResult(pgxmock.NewResult("DELETE", 0))
		mock.ExpectExec(upsertBotUser).WithArgs(telegramID, userID, "Employee").
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mock.ExpectCommit().WillReturnError(assert.AnError)

		err := repo.UpsertBotUser(t.Context(), telegramID, userID, models.RoleEmployee)
		require.ErrorContains(t, err, "failed to commit transaction")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestDeleteBotUser(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		t.Parallel()
		mock, repo := newMock(t)
		mock.ExpectExec(deleteBotUser).WithArgs(int64(1)).WillReturnResult(pgxmock.NewResult("DELETE", 1))

		require.NoError(t, repo.DeleteBotUser(t.Context(), 1))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("error", func(t *testing.T) {
		t.Parallel()
		mock, repo := newMock(t)
		mock.ExpectExec(deleteBotUser).WithArgs(int64(1)).WillReturnError(assert.AnError)

		err := repo.DeleteBotUser(t.Context(), 1)
		require.ErrorIs(t, err, assert.AnError)
		require.ErrorContains(t, err, "failed to delete user 1 from bot_users")
	})
}

func TestGetTelegramIDByUserID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		setup   func(mock pgxmock.PgxPoolIface)
		want    int64
		wantErr error
	}{
		{
			name: "linked",
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(selectTgID).WithArgs(int64(7)).
					WillReturnRows(pgxmock.NewRows([]string{"telegram_id"}).AddRow(int64(12345)))
			},
			want: 12345,
		},
		{
			name: "not linked",
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(selectTgID).WithArgs(int64(7)).WillReturnError(pgx.ErrNoRows)
			},
			wantErr: repository.ErrUserNotFound,
		},
		{
			name: "query error",
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(selectTgID).WithArgs(int64(7)).WillReturnError(assert.AnError)
			},
			wantErr: assert.AnError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			mock, repo := newMock(t)
			tt.setup(mock)

			got, err := repo.GetTelegramIDByUserID(t.Context(), 7)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestGetManagers(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		t.Parallel()
		mock, repo := newMock(t)
		mock.ExpectQuery(selectManager).WithArgs("Manager").
			WillReturnRows(pgxmock.NewRows([]string{"telegram_id"}).AddRow(int64(1)).AddRow(int64(2)))

		managers, err := repo.GetManagers(t.Context())
		require.NoError(t, err)
		assert.Equal(t, []int64{1, 2}, managers)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("query error", func(t *testing.T) {
		t.Parallel()
		mock, repo := newMock(t)
		mock.ExpectQuery(selectManager).WithArgs("Manager").WillReturnError(assert.AnError)

		_, err := repo.GetManagers(t.Context())
		require.ErrorContains(t, err, "failed to query managers")
	})

	t.Run("row error", func(t *testing.T) {
		t.Parallel()
		mock, repo := newMock(t)
		mock.ExpectQuery(selectManager).WithArgs("Manager").
			WillReturnRows(pgxmock.NewRows([]string{"telegram_id"}).AddRow(int64(1)).RowError(0, assert.AnError))

		_, err := repo.GetManagers(t.Context())
		require.ErrorIs(t, err, assert.AnError)
	})
}

func TestUserLanguage(t *testing.T) {
	t.Parallel()

	t.Run("stored language", func(t *testing.T) {
		t.Parallel()
		mock, repo := newMock(t)
		mock.ExpectQuery(selectLang).WithArgs(int64(1)).
			WillReturnRows(pgxmock.NewRows([]string{"language"}).AddRow("uk"))

		lang, err := repo.GetUserLanguage(t.Context(), 1)
		require.NoError(t, err)
		assert.Equal(t, "uk", lang)
	})

	t.Run("unlinked user gets english and ErrUserNotFound", func(t *testing.T) {
		t.Parallel()
		mock, repo := newMock(t)
		mock.ExpectQuery(selectLang).WithArgs(int64(1)).WillReturnError(pgx.ErrNoRows)

		lang, err := repo.GetUserLanguage(t.Context(), 1)
		require.ErrorIs(t, err, repository.ErrUserNotFound)
		assert.Equal(t, repository.DefaultLanguage, lang)
	})

	t.Run("set language", func(t *testing.T) {
		t.Parallel()
		mock, repo := newMock(t)
		mock.ExpectExec(updateLang).WithArgs(int64(1), "uk").WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		require.NoError(t, repo.SetUserLanguage(t.Context(), 1, "uk"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("set language of unlinked user", func(t *testing.T) {
		t.Parallel()
		mock, repo := newMock(t)
		mock.ExpectExec(updateLang).WithArgs(int64(1), "uk").WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		require.ErrorIs(t, repo.SetUserLanguage(t.Context(), 1, "uk"), repository.ErrUserNotFound)
	})
}
