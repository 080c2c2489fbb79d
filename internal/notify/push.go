package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"careline-service/internal/domain"
)

const audioFallbackContent = "Sent a voice message"

// PushConfig holds the pre-shared credentials and rendering knobs for the
// external push provider.
type PushConfig struct {
	APIKey            string
	APISecret         string
	BaseURL           string
	ActionURLTemplate string
	TruncateLen       int
}

// Configured reports whether the push feature has credentials.
func (c PushConfig) Configured() bool {
	return c.APIKey != "" && c.APISecret != "" && c.BaseURL != ""
}

// NewPushSender builds the external push sender, or a noop sender when the
// feature is not configured.
func NewPushSender(cfg PushConfig, client *http.Client) Sender {
	if !cfg.Configured() {
		log.Printf("push notifications disabled, using noop: missing credentials")
		return noopPushSender{}
	}
	if cfg.TruncateLen <= 0 {
		cfg.TruncateLen = 160
	}
	if client == nil {
		client = &http.Client{}
	}
	return &PushSender{cfg: cfg, client: client}
}

// PushSender forwards rendered notifications to the third-party push API for
// offline recipients. Recipients never include the acting sender's own
// account; delivery failures are reported to the dispatcher and go no
// further.
type PushSender struct {
	cfg    PushConfig
	client *http.Client
}

func (s *PushSender) Name() string { return "push" }

func (s *PushSender) NotifyMessageCreated(ctx context.Context, chat domain.Chat, msg domain.Message) error {
	content := msg.Content
	if msg.Kind == domain.MessageAudio {
		content = audioFallbackContent
	}
	return s.send(ctx, chat, msg.SenderID, "New message", truncate(content, s.cfg.TruncateLen))
}

func (s *PushSender) NotifyEmergencyStatusChanged(ctx context.Context, chat domain.Chat, change domain.EmergencyStatusChange) error {
	title, content := renderEmergency(change)
	return s.send(ctx, chat, change.ActorID, title, content)
}

func renderEmergency(change domain.EmergencyStatusChange) (string, string) {
	switch change.Status {
	case domain.StatusRaised:
		return "Emergency reported", fmt.Sprintf("A %s emergency was reported in the chat.", change.Type)
	case domain.StatusResolved:
		return "Emergency resolved", "All assigned supervisors confirmed the emergency is handled."
	case domain.StatusResolutionRecorded:
		return "Emergency update", fmt.Sprintf("A supervisor confirmed the emergency (%d of %d).", change.ResolvedCount, change.RequiredCount)
	case domain.StatusAlertActivated:
		return "Alert raised", "An alert was raised in the chat."
	case domain.StatusAlertDeactivated:
		return "Alert withdrawn", "The alert was withdrawn."
	}
	return "Emergency update", string(change.Type)
}

type pushRecipient struct {
	ExternalID *string `json:"external_id"`
	Email      *string `json:"email"`
}

type pushNotification struct {
	Title      string          `json:"title"`
	Content    string          `json:"content"`
	ActionURL  *string         `json:"action_url"`
	Recipients []pushRecipient `json:"recipients"`
}

type pushRequest struct {
	Notification pushNotification `json:"notification"`
}

func (s *PushSender) send(ctx context.Context, chat domain.Chat, actorID int, title, content string) error {
	recipients := lo.FilterMap(chat.Participants, func(p domain.Participant, _ int) (pushRecipient, bool) {
		if p.UserID == actorID {
			return pushRecipient{}, false
		}
		if p.ExternalID == nil && p.Email == nil {
			return pushRecipient{}, false
		}
		return pushRecipient{ExternalID: p.ExternalID, Email: p.Email}, true
	})
	if len(recipients) == 0 {
		return nil
	}

	body, err := json.Marshal(pushRequest{Notification: pushNotification{
		Title:      title,
		Content:    content,
		ActionURL:  s.actionURL(chat.ID),
		Recipients: recipients,
	}})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.BaseURL+"/notifications", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-KEY", s.cfg.APIKey)
	req.Header.Set("X-API-SECRET", s.cfg.APISecret)

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("push api returned status %d", resp.StatusCode)
	}
	return nil
}

func (s *PushSender) actionURL(chatID int) *string {
	if s.cfg.ActionURLTemplate == "" {
		return nil
	}
	url := strings.ReplaceAll(s.cfg.ActionURLTemplate, "{chatId}", strconv.Itoa(chatID))
	return &url
}

// truncate caps content at limit runes, marking the cut with an ellipsis.
func truncate(content string, limit int) string {
	runes := []rune(content)
	if len(runes) <= limit {
		return content
	}
	return string(runes[:limit]) + "…"
}

// noopPushSender is used when credentials are missing; every delivery is a
// silent no-op.
type noopPushSender struct{}

func (noopPushSender) Name() string { return "push" }

func (noopPushSender) NotifyMessageCreated(context.Context, domain.Chat, domain.Message) error {
	return nil
}

func (noopPushSender) NotifyEmergencyStatusChanged(context.Context, domain.Chat, domain.EmergencyStatusChange) error {
	return nil
}
