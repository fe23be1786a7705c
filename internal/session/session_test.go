package session_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/UnknownOlympus/talentfit/internal/client/talentfit"
	"github.com/UnknownOlympus/talentfit/internal/models"
	"github.com/UnknownOlympus/talentfit/internal/session"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tgID int64 = 42

type fakeGateway struct {
	loginResp talentfit.LoginResponse
	loginErr  error
	profile   models.EmployeeProfile
	meErr     error
	onGetMe   func(ctx context.Context)

	mu         sync.Mutex
	meCalls    int
	logoutCall int
}

func (f *fakeGateway) LoginWithGoogle(_ context.Context, _ string) (talentfit.LoginResponse, error) {
	return f.loginResp, f.loginErr
}

func (f *fakeGateway) GetMe(ctx context.Context) (models.EmployeeProfile, error) {
	f.mu.Lock()
	f.meCalls++
	f.mu.Unlock()
	if f.onGetMe != nil {
		f.onGetMe(ctx)
	}
	return f.profile, f.meErr
}

func (f *fakeGateway) Logout(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logoutCall++
	return errors.New("backend logout unavailable")
}

func signedToken(t *testing.T, issued, expires time.Time) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		IssuedAt:  jwt.NewNumericDate(issued),
		ExpiresAt: jwt.NewNumericDate(expires),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

type fixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newStore(t *testing.T, gw *fakeGateway) (*session.Store, *session.MemoryStorage, *fixedClock) {
	t.Helper()
	storage := session.NewMemoryStorage()
	clock := &fixedClock{now: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}
	store := session.NewStore(storage, gw, slog.New(slog.DiscardHandler), session.WithClock(clock.Now))
	return store, storage, clock
}

func storedSession(t *testing.T, storage *session.MemoryStorage) session.Session {
	t.Helper()
	raw, err := storage.Get(t.Context(), tgID, session.KeyUser)
	require.NoError(t, err)
	var sess session.Session
	require.NoError(t, json.Unmarshal([]byte(raw), &sess))
	return sess
}

func TestLogin_ProfileExists(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	gw := &fakeGateway{
		loginResp: talentfit.LoginResponse{
			Token:  signedToken(t, now, now.Add(2*time.Hour)),
			Email:  "jane@company.com",
			Name:   "Jane Smith",
			UserID: 2,
		},
		profile: models.EmployeeProfile{ID: 5, UserID: 2, Geo: "US-East", User: models.User{ID: 2, Role: models.RoleManager}},
	}
	store, storage, _ := newStore(t, gw)

	var provisional session.Session
	gw.onGetMe = func(ctx context.Context) {
		provisional = storedSession(t, storage)
		assert.Equal(t, gw.loginResp.Token, talentfit.TokenFromContext(ctx))
		id, ok := session.TelegramIDFromContext(ctx)
		assert.True(t, ok)
		assert.Equal(t, tgID, id)
	}

	sess, err := store.Login(t.Context(), tgID, "credential")
	require.NoError(t, err)

	assert.Equal(t, models.RoleEmployee, provisional.Role)
	assert.Equal(t, session.ProfileLoading, provisional.ProfileStatus)

	assert.Equal(t, models.RoleManager, sess.Role)
	assert.Equal(t, session.ProfileExists, sess.ProfileStatus)
	assert.Equal(t, now.Add(2*time.Hour).UnixMilli(), sess.TokenExpiry)
	assert.Equal(t, "https://ui-avatars.com/api/?name=Jane+Smith", sess.AvatarURL)
	assert.Equal(t, sess, storedSession(t, storage))

	token, err := storage.Get(t.Context(), tgID, session.KeyAuthToken)
	require.NoError(t, err)
	assert.Equal(t, gw.loginResp.Token, token)

	profile, err := store.Profile(t.Context(), tgID)
	require.NoError(t, err)
	assert.Equal(t, "US-East", profile.Geo)
}

func TestLogin_ProfileStatusOutcomes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		meErr    error
		expected session.ProfileStatus
	}{
		{
			name:     "not found needs creation",
			meErr:    &talentfit.APIError{Kind: talentfit.KindNotFound, Status: http.StatusNotFound},
			expected: session.ProfileNeedsCreation,
		},
		{
			name: "record not found server error needs creation",
			meErr: &talentfit.APIError{
				Kind: talentfit.KindServer, Status: http.StatusInternalServerError, Message: "Record not found",
			},
			expected: session.ProfileNeedsCreation,
		},
		{
			name:     "other failure is error",
			meErr:    &talentfit.APIError{Kind: talentfit.KindServer, Status: http.StatusInternalServerError, Message: "db down"},
			expected: session.ProfileError,
		},
		{
			name:     "network failure is error",
			meErr:    &talentfit.APIError{Kind: talentfit.KindNetwork, Err: errors.New("dial tcp")},
			expected: session.ProfileError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			gw := &fakeGateway{
				loginResp: talentfit.LoginResponse{Token: "opaque", Name: "New Hire", UserID: 9},
				meErr:     tt.meErr,
			}
			store, storage, clock := newStore(t, gw)

			sess, err := store.Login(t.Context(), tgID, "credential")
			require.NoError(t, err)
			assert.Equal(t, tt.expected, sess.ProfileStatus)
			assert.Equal(t, models.RoleEmployee, sess.Role)
			assert.Equal(t, clock.Now().Add(session.FallbackLifetime).UnixMilli(), sess.TokenExpiry)
			assert.Equal(t, tt.expected, storedSession(t, storage).ProfileStatus)
		})
	}
}

func TestLogin_Rejected(t *testing.T) {
	t.Parallel()

	gw := &fakeGateway{loginErr: &talentfit.APIError{Kind: talentfit.KindUnauthorized, Status: http.StatusUnauthorized}}
	store, storage, _ := newStore(t, gw)

	_, err := store.Login(t.Context(), tgID, "bad")
	require.ErrorIs(t, err, talentfit.ErrUnauthorized)

	_, err = storage.Get(t.Context(), tgID, session.KeyUser)
	require.ErrorIs(t, err, session.ErrKeyNotFound)
	assert.Zero(t, gw.meCalls)
}

func TestLogin_TokenRejectedDuringProfileLookup(t *testing.T) {
	t.Parallel()

	gw := &fakeGateway{
		loginResp: talentfit.LoginResponse{Token: "opaque", UserID: 9},
		meErr:     &talentfit.APIError{Kind: talentfit.KindUnauthorized, Status: http.StatusUnauthorized},
	}
	store, _, _ := newStore(t, gw)

	_, err := store.Login(t.Context(), tgID, "credential")
	require.ErrorIs(t, err, talentfit.ErrUnauthorized)

	_, err = store.Restore(t.Context(), tgID)
	require.ErrorIs(t, err, session.ErrNoSession)
}

func TestRetryProfile(t *testing.T) {
	t.Parallel()

	gw := &fakeGateway{
		loginResp: talentfit.LoginResponse{Token: "opaque", UserID: 9},
		meErr:     &talentfit.APIError{Kind: talentfit.KindNetwork, Err: errors.New("timeout")},
	}
	store, _, _ := newStore(t, gw)

	sess, err := store.Login(t.Context(), tgID, "credential")
	require.NoError(t, err)
	require.Equal(t, session.ProfileError, sess.ProfileStatus)

	gw.meErr = nil
	gw.profile = models.EmployeeProfile{UserID: 9, User: models.User{Role: models.RoleEmployee}}

	sess, err = store.RetryProfile(t.Context(), tgID)
	require.NoError(t, err)
	assert.Equal(t, session.ProfileExists, sess.ProfileStatus)
	assert.Equal(t, 2, gw.meCalls)

	sess, err = store.RetryProfile(t.Context(), tgID)
	require.NoError(t, err)
	assert.Equal(t, session.ProfileExists, sess.ProfileStatus)
	assert.Equal(t, 2, gw.meCalls, "settled sessions are not looked up again")
}

func TestRestore(t *testing.T) {
	t.Parallel()

	t.Run("no session", func(t *testing.T) {
		t.Parallel()
		store, _, _ := newStore(t, &fakeGateway{})
		_, err := store.Restore(t.Context(), tgID)
		require.ErrorIs(t, err, session.ErrNoSession)
	})

	t.Run("expired session is logged out", func(t *testing.T) {
		t.Parallel()
		gw := &fakeGateway{loginResp: talentfit.LoginResponse{Token: "opaque", UserID: 1}}
		store, storage, clock := newStore(t, gw)

		_, err := store.Login(t.Context(), tgID, "credential")
		require.NoError(t, err)

		clock.Advance(session.FallbackLifetime + time.Second)
		_, err = store.Restore(t.Context(), tgID)
		require.ErrorIs(t, err, session.ErrSessionExpired)

		for _, key := range session.SessionKeys {
			_, err = storage.Get(t.Context(), tgID, key)
			require.ErrorIs(t, err, session.ErrKeyNotFound, key)
		}
	})

	t.Run("revoked token", func(t *testing.T) {
		t.Parallel()
		gw := &fakeGateway{loginResp: talentfit.LoginResponse{Token: "opaque", UserID: 1}}
		store, _, _ := newStore(t, gw)

		_, err := store.Login(t.Context(), tgID, "credential")
		require.NoError(t, err)

		store.HandleUnauthorized(session.WithTelegramID(t.Context(), tgID))

		_, err = store.Restore(t.Context(), tgID)
		require.ErrorIs(t, err, session.ErrSessionExpired)
	})

	t.Run("unauthorized hook without user is ignored", func(t *testing.T) {
		t.Parallel()
		gw := &fakeGateway{loginResp: talentfit.LoginResponse{Token: "opaque", UserID: 1}}
		store, _, _ := newStore(t, gw)

		_, err := store.Login(t.Context(), tgID, "credential")
		require.NoError(t, err)

		store.HandleUnauthorized(t.Context())

		_, err = store.Restore(t.Context(), tgID)
		require.NoError(t, err)
	})
}

func TestLogout(t *testing.T) {
	t.Parallel()

	t.Run("signed in", func(t *testing.T) {
		t.Parallel()
		gw := &fakeGateway{
			loginResp: talentfit.LoginResponse{Token: "opaque", UserID: 1},
			profile:   models.EmployeeProfile{UserID: 1},
		}
		store, storage, _ := newStore(t, gw)

		_, err := store.Login(t.Context(), tgID, "credential")
		require.NoError(t, err)

		assert.Equal(t, "/", store.Logout(t.Context(), tgID))
		assert.Equal(t, 1, gw.logoutCall)
		for _, key := range session.SessionKeys {
			_, err = storage.Get(t.Context(), tgID, key)
			require.ErrorIs(t, err, session.ErrKeyNotFound, key)
		}
	})

	t.Run("partial leftovers", func(t *testing.T) {
		t.Parallel()
		gw := &fakeGateway{}
		store, storage, _ := newStore(t, gw)
		require.NoError(t, storage.Set(t.Context(), tgID, session.KeyEmployeeProfile, "{}"))
		require.NoError(t, storage.Set(t.Context(), tgID, session.KeyUser, "not json"))

		assert.Equal(t, session.RootPath, store.Logout(t.Context(), tgID))
		assert.Zero(t, gw.logoutCall)
		for _, key := range session.SessionKeys {
			_, err := storage.Get(t.Context(), tgID, key)
			require.ErrorIs(t, err, session.ErrKeyNotFound, key)
		}
	})

	t.Run("never signed in", func(t *testing.T) {
		t.Parallel()
		store, _, _ := newStore(t, &fakeGateway{})
		assert.Equal(t, session.RootPath, store.Logout(t.Context(), tgID))
	})
}

func TestUpdateProfile(t *testing.T) {
	t.Parallel()

	gw := &fakeGateway{
		loginResp: talentfit.LoginResponse{Token: "opaque", Name: "Jane", Email: "jane@company.com", UserID: 2},
		profile:   models.EmployeeProfile{UserID: 2, Geo: "US-East", Industry: "Fintech", Skills: []string{"Go"}},
	}
	store, _, _ := newStore(t, gw)

	_, err := store.Login(t.Context(), tgID, "credential")
	require.NoError(t, err)

	sess, err := store.UpdateProfile(t.Context(), tgID, session.Patch{
		Name:   "Jane Smith",
		Skills: []string{"Go", "PostgreSQL"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Jane Smith", sess.Name)
	assert.Equal(t, "jane@company.com", sess.Email)

	profile, err := store.Profile(t.Context(), tgID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Go", "PostgreSQL"}, profile.Skills)
	assert.Equal(t, "US-East", profile.Geo)
	assert.Equal(t, "Fintech", profile.Industry)
}

func TestAuthorizeRefreshesExpiry(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	gw := &fakeGateway{loginResp: talentfit.LoginResponse{Token: signedToken(t, now, now.Add(time.Hour)), UserID: 3}}
	store, _, clock := newStore(t, gw)

	_, err := store.Login(t.Context(), tgID, "credential")
	require.NoError(t, err)

	clock.Advance(40 * time.Minute)
	ctx, sess, err := store.Authorize(t.Context(), tgID)
	require.NoError(t, err)
	assert.Equal(t, gw.loginResp.Token, talentfit.TokenFromContext(ctx))
	assert.Equal(t, now.Add(100*time.Minute).UnixMilli(), sess.TokenExpiry)

	id, ok := session.TelegramIDFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, tgID, id)
}

func TestCompleteProfile(t *testing.T) {
	t.Parallel()

	gw := &fakeGateway{
		loginResp: talentfit.LoginResponse{Token: "opaque", UserID: 9},
		meErr:     &talentfit.APIError{Kind: talentfit.KindNotFound, Status: http.StatusNotFound},
	}
	store, _, _ := newStore(t, gw)

	sess, err := store.Login(t.Context(), tgID, "credential")
	require.NoError(t, err)
	require.Equal(t, session.ProfileNeedsCreation, sess.ProfileStatus)

	sess, err = store.CompleteProfile(t.Context(), tgID, models.EmployeeProfile{UserID: 9, Geo: "Europe"})
	require.NoError(t, err)
	assert.Equal(t, session.ProfileExists, sess.ProfileStatus)

	profile, err := store.Profile(t.Context(), tgID)
	require.NoError(t, err)
	assert.Equal(t, "Europe", profile.Geo)
}
