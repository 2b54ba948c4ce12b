package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/atendesk/atendesk/internal/config"
	apperrors "github.com/atendesk/atendesk/pkg/util"
)

// Client talks to the WhatsApp gateway (Evolution API) for one configured
// instance. Instance provisioning is managed outside this service.
type Client struct {
	baseURL  string
	apiKey   string
	instance string
	http     *http.Client
	logger   *zap.Logger
}

// NewClient builds a gateway client from configuration.
func NewClient(cfg config.GatewayConfig, logger *zap.Logger) *Client {
	return &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:   cfg.APIKey,
		instance: cfg.InstanceName,
		http:     &http.Client{Timeout: cfg.Timeout()},
		logger:   logger,
	}
}

// SendResult carries the gateway's identifier for a sent message.
type SendResult struct {
	MessageID string
}

// SendText delivers a text message to a phone number. quotedID, when set,
// references the gateway message id being replied to.
func (c *Client) SendText(ctx context.Context, number, text string, quotedID *string) (*SendResult, error) {
	payload := map[string]any{
		"number": FormatNumber(number),
		"text":   text,
	}
	if quotedID != nil && *quotedID != "" {
		payload["quoted"] = map[string]any{
			"key": map[string]any{"id": *quotedID},
		}
	}

	var resp struct {
		Key struct {
			ID string `json:"id"`
		} `json:"key"`
	}
	endpoint := fmt.Sprintf("/message/sendText/%s", c.instance)
	if err := c.request(ctx, http.MethodPost, endpoint, payload, &resp); err != nil {
		return nil, err
	}
	return &SendResult{MessageID: resp.Key.ID}, nil
}

// ConnectionState reports the instance state ("open", "connecting", "close").
func (c *Client) ConnectionState(ctx context.Context) (string, error) {
	var resp struct {
		State    string `json:"state"`
		Instance struct {
			State string `json:"state"`
		} `json:"instance"`
	}
	endpoint := fmt.Sprintf("/instance/connectionState/%s", c.instance)
	if err := c.request(ctx, http.MethodGet, endpoint, nil, &resp); err != nil {
		return "", err
	}
	if resp.Instance.State != "" {
		return resp.Instance.State, nil
	}
	return resp.State, nil
}

// MarkRead acknowledges a received message on the gateway.
func (c *Client) MarkRead(ctx context.Context, remoteJID, messageID string) error {
	payload := map[string]any{
		"readMessages": []map[string]any{
			{"remoteJid": remoteJID, "id": messageID, "fromMe": false},
		},
	}
	endpoint := fmt.Sprintf("/chat/markMessageAsRead/%s", c.instance)
	return c.request(ctx, http.MethodPost, endpoint, payload, nil)
}

func (c *Client) request(ctx context.Context, method, endpoint string, payload any, out any) error {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return apperrors.NewInternalError(err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, body)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", c.apiKey)

	c.logger.Debug("gateway request", zap.String("method", method), zap.String("endpoint", endpoint))

	resp, err := c.http.Do(req)
	if err != nil {
		return apperrors.NewTransportError("gateway unreachable", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperrors.NewTransportError("gateway response read failed", err)
	}

	if resp.StatusCode >= 400 {
		message := gatewayErrorMessage(raw, resp.StatusCode)
		c.logger.Warn("gateway error",
			zap.String("endpoint", endpoint),
			zap.Int("status", resp.StatusCode),
			zap.String("message", message),
		)
		return apperrors.NewTransportError(message, nil)
	}

	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return apperrors.NewTransportError("gateway response decode failed", err)
		}
	}
	return nil
}

func gatewayErrorMessage(raw []byte, status int) string {
	var parsed struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(raw, &parsed); err == nil {
		if parsed.Message != "" {
			return parsed.Message
		}
		if parsed.Error != "" {
			return parsed.Error
		}
	}
	return fmt.Sprintf("gateway returned HTTP %d", status)
}

// ParseJIDToNumber strips the server suffix from a JID.
// 5511999999999@s.whatsapp.net -> 5511999999999
func ParseJIDToNumber(jid string) string {
	if idx := strings.Index(jid, "@"); idx >= 0 {
		return jid[:idx]
	}
	return jid
}

// FormatJID builds a user JID from a bare number.
func FormatJID(number string) string {
	if strings.Contains(number, "@") {
		return number
	}
	return FormatNumber(number) + "@s.whatsapp.net"
}

// FormatNumber keeps digits only.
func FormatNumber(number string) string {
	var b strings.Builder
	for _, r := range number {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// IsGroupJID reports whether the JID addresses a group chat.
func IsGroupJID(jid string) bool {
	return strings.HasSuffix(jid, "@g.us")
}
