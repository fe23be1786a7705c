// Package session owns the signed-in state of every Telegram user: the backend token,
// the resolved role and the staffing profile status.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/UnknownOlympus/talentfit/internal/client/talentfit"
	"github.com/UnknownOlympus/talentfit/internal/metrics"
	"github.com/UnknownOlympus/talentfit/internal/models"
)

// ProfileStatus tracks whether the signed-in user has a staffing profile.
type ProfileStatus string

const (
	ProfileLoading       ProfileStatus = "loading"
	ProfileExists        ProfileStatus = "exists"
	ProfileNeedsCreation ProfileStatus = "needs_creation"
	ProfileError         ProfileStatus = "error"
)

// RootPath is where navigation lands after logout.
const RootPath = "/"

var (
	// ErrNoSession is returned when the user has not signed in.
	ErrNoSession = errors.New("no active session")
	// ErrSessionExpired is returned when the stored token is past its expiry.
	ErrSessionExpired = errors.New("session expired")
)

// Session is the persisted state of one signed-in user.
type Session struct {
	UserID        int64         `json:"id"`
	Name          string        `json:"name"`
	Email         string        `json:"email"`
	Role          models.Role   `json:"role"`
	AvatarURL     string        `json:"avatar_url"`
	AccessToken   string        `json:"access_token"`
	IssuedAt      int64         `json:"issued_at"`
	TokenExpiry   int64         `json:"token_expiry"`
	ProfileStatus ProfileStatus `json:"profile_status"`
}

// Expired reports whether the token expiry has passed at now.
func (s Session) Expired(now time.Time) bool {
	return s.TokenExpiry <= now.UnixMilli()
}

// Patch carries the fields UpdateProfile merges. Empty fields are left untouched.
type Patch struct {
	Name     string
	Email    string
	Geo      string
	Industry string
	Skills   []string
}

// Gateway is the part of the backend client the session needs.
type Gateway interface {
	LoginWithGoogle(ctx context.Context, credential string) (talentfit.LoginResponse, error)
	GetMe(ctx context.Context) (models.EmployeeProfile, error)
	Logout(ctx context.Context) error
}

// Store serializes session mutations per Telegram user and persists them in Storage.
type Store struct {
	storage Storage
	gateway Gateway
	log     *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time

	locks sync.Map
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithClock overrides the time source.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) { s.now = now }
}

// WithMetrics records login outcomes.
func WithMetrics(m *metrics.Metrics) StoreOption {
	return func(s *Store) { s.metrics = m }
}

// NewStore creates a session store.
func NewStore(storage Storage, gateway Gateway, log *slog.Logger, opts ...StoreOption) *Store {
	store := &Store{
		storage: storage,
		gateway: gateway,
		log:     log,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

func (s *Store) lock(tgID int64) func() {
	mu, _ := s.locks.LoadOrStore(tgID, &sync.Mutex{})
	m, _ := mu.(*sync.Mutex)
	m.Lock()
	return m.Unlock
}

// Restore loads the session of a user. A session past its token expiry is logged out.
func (s *Store) Restore(ctx context.Context, tgID int64) (Session, error) {
	unlock := s.lock(tgID)
	defer unlock()

	return s.restore(ctx, tgID)
}

func (s *Store) restore(ctx context.Context, tgID int64) (Session, error) {
	raw, err := s.storage.Get(ctx, tgID, KeyUser)
	if errors.Is(err, ErrKeyNotFound) {
		return Session{}, ErrNoSession
	}
	if err != nil {
		return Session{}, fmt.Errorf("failed to restore session: %w", err)
	}

	var sess Session
	if err = json.Unmarshal([]byte(raw), &sess); err != nil {
		s.log.WarnContext(ctx, "Dropping unreadable session", "user", tgID, "error", err)
		s.clear(ctx, tgID)
		return Session{}, ErrNoSession
	}

	if _, err = s.storage.Get(ctx, tgID, KeyAuthToken); errors.Is(err, ErrKeyNotFound) {
		// the token was revoked by a 401
		s.clear(ctx, tgID)
		return Session{}, ErrSessionExpired
	}

	if sess.Expired(s.now()) {
		s.log.InfoContext(ctx, "Session expired", "user", tgID)
		s.clear(ctx, tgID)
		return Session{}, ErrSessionExpired
	}

	return sess, nil
}

// Login exchanges a Google credential for a backend token and resolves the profile
// status. The returned session never stays in the loading status.
func (s *Store) Login(ctx context.Context, tgID int64, credential string) (Session, error) {
	log := s.log.With("op", "session.Login", "user", tgID)

	unlock := s.lock(tgID)
	defer unlock()

	resp, err := s.gateway.LoginWithGoogle(ctx, credential)
	if err != nil {
		s.countLogin("rejected")
		log.InfoContext(ctx, "Login rejected", "error", err)
		return Session{}, fmt.Errorf("failed to login: %w", err)
	}

	issued, expiry := tokenWindow(resp.Token, s.now())
	sess := Session{
		UserID:        resp.UserID,
		Name:          resp.Name,
		Email:         resp.Email,
		Role:          models.RoleEmployee,
		AvatarURL:     avatarURL(resp.Name, resp.Email),
		AccessToken:   resp.Token,
		IssuedAt:      issued.UnixMilli(),
		TokenExpiry:   expiry.UnixMilli(),
		ProfileStatus: ProfileLoading,
	}
	if err = s.persist(ctx, tgID, sess); err != nil {
		return Session{}, err
	}
	if err = s.storage.Set(ctx, tgID, KeyAuthToken, sess.AccessToken); err != nil {
		return Session{}, fmt.Errorf("failed to store token: %w", err)
	}

	sess, err = s.resolveProfile(ctx, tgID, sess)
	if err != nil {
		return Session{}, err
	}

	s.countLogin(string(sess.ProfileStatus))
	log.InfoContext(ctx, "User signed in", "status", sess.ProfileStatus, "role", sess.Role)
	return sess, nil
}

// RetryProfile repeats the profile lookup for a session stuck in the error status.
func (s *Store) RetryProfile(ctx context.Context, tgID int64) (Session, error) {
	unlock := s.lock(tgID)
	defer unlock()

	sess, err := s.restore(ctx, tgID)
	if err != nil {
		return Session{}, err
	}
	if sess.ProfileStatus != ProfileError {
		return sess, nil
	}

	sess.ProfileStatus = ProfileLoading
	if err = s.persist(ctx, tgID, sess); err != nil {
		return Session{}, err
	}
	return s.resolveProfile(ctx, tgID, sess)
}

// resolveProfile asks the backend for the current profile and settles the status.
func (s *Store) resolveProfile(ctx context.Context, tgID int64, sess Session) (Session, error) {
	profile, err := s.gateway.GetMe(WithTelegramID(talentfit.WithToken(ctx, sess.AccessToken), tgID))
	switch {
	case err == nil:
		sess.ProfileStatus = ProfileExists
		if profile.User.Role != "" {
			sess.Role = profile.User.Role
		}
		if err = s.storeProfile(ctx, tgID, profile); err != nil {
			return Session{}, err
		}
	case errors.Is(err, talentfit.ErrUnauthorized):
		s.clear(ctx, tgID)
		return Session{}, fmt.Errorf("failed to resolve profile: %w", err)
	case talentfit.IsRecordNotFound(err):
		sess.ProfileStatus = ProfileNeedsCreation
		_ = s.storage.Delete(ctx, tgID, KeyEmployeeProfile)
	default:
		s.log.WarnContext(ctx, "Profile lookup failed", "user", tgID, "error", err)
		sess.ProfileStatus = ProfileError
	}

	if err = s.persist(ctx, tgID, sess); err != nil {
		return Session{}, err
	}
	return sess, nil
}

// CompleteProfile records a profile created or replaced through the backend.
func (s *Store) CompleteProfile(ctx context.Context, tgID int64, profile models.EmployeeProfile) (Session, error) {
	unlock := s.lock(tgID)
	defer unlock()

	sess, err := s.restore(ctx, tgID)
	if err != nil {
		return Session{}, err
	}

	sess.ProfileStatus = ProfileExists
	if profile.User.Role != "" {
		sess.Role = profile.User.Role
	}
	if err = s.storeProfile(ctx, tgID, profile); err != nil {
		return Session{}, err
	}
	if err = s.persist(ctx, tgID, sess); err != nil {
		return Session{}, err
	}
	return sess, nil
}

// Profile returns the cached staffing profile of the user.
func (s *Store) Profile(ctx context.Context, tgID int64) (models.EmployeeProfile, error) {
	raw, err := s.storage.Get(ctx, tgID, KeyEmployeeProfile)
	if err != nil {
		return models.EmployeeProfile{}, fmt.Errorf("failed to load profile: %w", err)
	}

	var profile models.EmployeeProfile
	if err = json.Unmarshal([]byte(raw), &profile); err != nil {
		return models.EmployeeProfile{}, fmt.Errorf("failed to decode profile: %w", err)
	}
	return profile, nil
}

// UpdateProfile shallow-merges the non-empty patch fields into the session and the cached
// profile and persists both. It does not call the backend.
func (s *Store) UpdateProfile(ctx context.Context, tgID int64, patch Patch) (Session, error) {
	unlock := s.lock(tgID)
	defer unlock()

	sess, err := s.restore(ctx, tgID)
	if err != nil {
		return Session{}, err
	}

	if patch.Name != "" {
		sess.Name = patch.Name
		sess.AvatarURL = avatarURL(sess.Name, sess.Email)
	}
	if patch.Email != "" {
		sess.Email = patch.Email
	}
	if err = s.persist(ctx, tgID, sess); err != nil {
		return Session{}, err
	}

	profile, err := s.Profile(ctx, tgID)
	if errors.Is(err, ErrKeyNotFound) {
		return sess, nil
	}
	if err != nil {
		return Session{}, err
	}
	if patch.Geo != "" {
		profile.Geo = patch.Geo
	}
	if patch.Industry != "" {
		profile.Industry = patch.Industry
	}
	if len(patch.Skills) > 0 {
		profile.Skills = append([]string{}, patch.Skills...)
	}
	if err = s.storeProfile(ctx, tgID, profile); err != nil {
		return Session{}, err
	}

	return sess, nil
}

func (s *Store) refresh(ctx context.Context, tgID int64, sess Session) (Session, error) {
	lifetime := sess.TokenExpiry - sess.IssuedAt
	if lifetime <= 0 {
		lifetime = FallbackLifetime.Milliseconds()
	}

	now := s.now().UnixMilli()
	if next := now + lifetime; next > sess.TokenExpiry {
		sess.TokenExpiry = next
		if err := s.persist(ctx, tgID, sess); err != nil {
			return Session{}, err
		}
	}
	return sess, nil
}

// Authorize restores and refreshes the session of a user and returns a context carrying
// the bearer token and the Telegram id for backend calls.
func (s *Store) Authorize(ctx context.Context, tgID int64) (context.Context, Session, error) {
	unlock := s.lock(tgID)
	defer unlock()

	sess, err := s.restore(ctx, tgID)
	if err != nil {
		return ctx, Session{}, err
	}
	if sess, err = s.refresh(ctx, tgID, sess); err != nil {
		return ctx, Session{}, err
	}

	ctx = talentfit.WithToken(ctx, sess.AccessToken)
	return WithTelegramID(ctx, tgID), sess, nil
}

// Logout clears every session key of the user, whatever state it was in, and returns
// the navigation target.
func (s *Store) Logout(ctx context.Context, tgID int64) string {
	unlock := s.lock(tgID)
	defer unlock()

	if token, err := s.storage.Get(ctx, tgID, KeyAuthToken); err == nil && token != "" {
		if err = s.gateway.Logout(talentfit.WithToken(ctx, token)); err != nil {
			s.log.InfoContext(ctx, "Backend logout failed", "user", tgID, "error", err)
		}
	}

	s.clear(ctx, tgID)
	s.log.InfoContext(ctx, "User logged out", "user", tgID)
	return RootPath
}

// HandleUnauthorized is registered as the gateway 401 hook. It revokes the stored token
// of the user the request was made for, so the next restore forces a new sign-in.
// It does not take the user lock because it runs inside calls that already hold it.
func (s *Store) HandleUnauthorized(ctx context.Context) {
	tgID, ok := TelegramIDFromContext(ctx)
	if !ok {
		return
	}
	if err := s.storage.Delete(context.WithoutCancel(ctx), tgID, KeyAuthToken); err != nil {
		s.log.ErrorContext(ctx, "Failed to revoke token", "user", tgID, "error", err)
		return
	}
	s.log.InfoContext(ctx, "Token rejected by backend, session revoked", "user", tgID)
}

func (s *Store) persist(ctx context.Context, tgID int64, sess Session) error {
	payload, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err = s.storage.Set(ctx, tgID, KeyUser, string(payload)); err != nil {
		return fmt.Errorf("failed to persist session: %w", err)
	}
	return nil
}

func (s *Store) storeProfile(ctx context.Context, tgID int64, profile models.EmployeeProfile) error {
	payload, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("failed to encode profile: %w", err)
	}
	if err = s.storage.Set(ctx, tgID, KeyEmployeeProfile, string(payload)); err != nil {
		return fmt.Errorf("failed to persist profile: %w", err)
	}
	return nil
}

func (s *Store) clear(ctx context.Context, tgID int64) {
	if err := s.storage.Delete(context.WithoutCancel(ctx), tgID, SessionKeys...); err != nil {
		s.log.ErrorContext(ctx, "Failed to clear session", "user", tgID, "error", err)
	}
}

func (s *Store) countLogin(result string) {
	if s.metrics != nil {
		s.metrics.Logins.WithLabelValues(result).Inc()
	}
}

type telegramIDKey struct{}

// WithTelegramID attaches the Telegram user id to the context.
func WithTelegramID(ctx context.Context, tgID int64) context.Context {
	return context.WithValue(ctx, telegramIDKey{}, tgID)
}

// TelegramIDFromContext returns the id attached by WithTelegramID.
func TelegramIDFromContext(ctx context.Context) (int64, bool) {
	tgID, ok := ctx.Value(telegramIDKey{}).(int64)
	return tgID, ok
}
