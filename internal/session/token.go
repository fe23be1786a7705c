package session

import (
	"net/url"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// FallbackLifetime is assumed when the backend token carries no readable exp claim.
const FallbackLifetime = 30 * time.Minute

const avatarBaseURL = "https://ui-avatars.com/api/?name="

// tokenWindow reads the issue and expiry times of a backend token without verifying it.
func tokenWindow(token string, now time.Time) (time.Time, time.Time) {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil || claims.ExpiresAt == nil {
		return now, now.Add(FallbackLifetime)
	}

	issued := now
	if claims.IssuedAt != nil {
		issued = claims.IssuedAt.Time
	}
	return issued, claims.ExpiresAt.Time
}

func avatarURL(name, email string) string {
	seed := name
	if seed == "" {
		seed = email
	}
	return avatarBaseURL + url.QueryEscape(seed)
}
