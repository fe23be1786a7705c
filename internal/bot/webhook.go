package bot

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/UnknownOlympus/talentfit/internal/models"
	"github.com/UnknownOlympus/talentfit/internal/repository"
	"gopkg.in/telebot.v4"
)

const (
	notifyTimeout       = time.Minute
	telegramRateTimeout = 100 * time.Millisecond
	maxWebhookBody      = 1 << 20
	// WebhookSecretHeader carries the shared secret of the notification webhook.
	WebhookSecretHeader = "X-Webhook-Secret"
)

// NotificationsWebhookHandler receives backend notifications, a single object or a list,
// and forwards them to Telegram. A notification with a user id goes to that user, one
// without goes to every linked manager. Requests must carry the shared secret in
// WebhookSecretHeader; without a configured secret every request is refused.
func (b *Bot) NotificationsWebhookHandler(writer http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		http.Error(writer, "Only POST requests are accepted", http.StatusMethodNotAllowed)
		return
	}
	if !b.webhookAuthorized(req) {
		b.log.Warn("Rejected webhook request", "remote", req.RemoteAddr)
		http.Error(writer, "Unauthorized", http.StatusUnauthorized)
		return
	}

	body, err := io.ReadAll(io.LimitReader(req.Body, maxWebhookBody))
	if err != nil {
		b.log.Error("Failed to read webhook body", "error", err)
		http.Error(writer, "Failed to read request body", http.StatusInternalServerError)
		return
	}
	defer req.Body.Close()

	notifications, err := decodeNotifications(body)
	if err != nil {
		b.log.Error("Failed to unmarshal webhook payload", "error", err, "body", string(body))
		http.Error(writer, "Failed to decode payload", http.StatusBadRequest)
		return
	}

	go b.deliverNotifications(notifications)

	writer.WriteHeader(http.StatusAccepted)
	if _, err = writer.Write([]byte("Notifications received successfully.")); err != nil {
		b.log.Error("Failed to send success message to requester", "error", err)
	}
}

func (b *Bot) webhookAuthorized(req *http.Request) bool {
	if b.webhookSecret == "" {
		return false
	}
	got := req.Header.Get(WebhookSecretHeader)
	return subtle.ConstantTimeCompare([]byte(got), []byte(b.webhookSecret)) == 1
}

// decodeNotifications accepts a JSON array of notifications or a single object.
func decodeNotifications(body []byte) ([]models.Notification, error) {
	body = bytes.TrimSpace(body)
	if len(body) > 0 && body[0] == '[' {
		var list []models.Notification
		if err := json.Unmarshal(body, &list); err != nil {
			return nil, err
		}
		return list, nil
	}

	var single models.Notification
	if err := json.Unmarshal(body, &single); err != nil {
		return nil, err
	}
	return []models.Notification{single}, nil
}

func (b *Bot) deliverNotifications(notifications []models.Notification) {
	ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
	defer cancel()

	for _, n := range notifications {
		text := func(printer) string { return formatNotification(n) }
		if n.UserID != 0 {
			b.pushToUser(ctx, n.UserID, text)
			continue
		}

		startTime := time.Now()
		managers, err := b.repo.GetManagers(ctx)
		b.metrics.DBQueryDuration.WithLabelValues("get_managers").Observe(time.Since(startTime).Seconds())
		if err != nil {
			b.log.Error("Failed to get managers for notification", "notification", n.ID, "error", err)
			continue
		}
		if len(managers) == 0 {
			b.log.Warn("No managers found to send notification to", "notification", n.ID)
			continue
		}
		for _, telegramID := range managers {
			b.push(ctx, telegramID, text)
		}
	}
}

// pushToUser sends a message to the Telegram account linked to a backend user. Users that
// never signed in through the bot are skipped.
func (b *Bot) pushToUser(ctx context.Context, userID int64, text func(printer) string) {
	startTime := time.Now()
	telegramID, err := b.repo.GetTelegramIDByUserID(ctx, userID)
	b.metrics.DBQueryDuration.WithLabelValues("get_telegram_id").Observe(time.Since(startTime).Seconds())
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			b.log.Debug("User has no linked telegram account", "backend_user", userID)
			return
		}
		b.log.Error("Failed to resolve telegram account", "backend_user", userID, "error", err)
		return
	}
	b.push(ctx, telegramID, text)
}

// push sends a message in the language of the receiver, then pauses to stay under the
// Telegram rate limit.
func (b *Bot) push(ctx context.Context, telegramID int64, text func(printer) string) {
	lang, err := b.repo.GetUserLanguage(ctx, telegramID)
	if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
		b.log.Warn("Failed to get receiver language, using default", "user", telegramID, "error", err)
	}
	p := printer{loc: b.localizer, lang: lang}

	b.metrics.SentMessages.WithLabelValues("push").Inc()
	if _, err = b.sender.Send(telebot.ChatID(telegramID), text(p), telebot.ModeHTML); err != nil {
		b.log.Warn("Failed to push message", "user", telegramID, "error", err)
	}
	time.Sleep(telegramRateTimeout)
}
