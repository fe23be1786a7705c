package talentfit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// LoginResponse is the backend session issued for a Google credential.
type LoginResponse struct {
	Token  string `json:"token"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	UserID int64  `json:"userId"`
}

// LoginWithGoogle exchanges a Google ID token for a backend session token.
func (c *Client) LoginWithGoogle(ctx context.Context, credential string) (LoginResponse, error) {
	var resp LoginResponse
	body := map[string]string{"credential": credential}

	if err := c.do(ctx, http.MethodPost, "/auth/google/login", nil, body, &resp); err != nil {
		return LoginResponse{}, fmt.Errorf("failed to login with google: %w", err)
	}
	if resp.Token == "" {
		return LoginResponse{}, fmt.Errorf("failed to login with google: %w", &APIError{
			Kind: KindServer, Status: http.StatusOK, Message: "empty token in login response",
		})
	}

	return resp, nil
}

// Logout tells the backend the session ends. The backend is stateless, so failures are
// reported but do not block local logout.
func (c *Client) Logout(ctx context.Context) error {
	var ack json.RawMessage
	if err := c.do(ctx, http.MethodPost, "/auth/logout", nil, nil, &ack); err != nil {
		return fmt.Errorf("failed to logout: %w", err)
	}
	return nil
}
