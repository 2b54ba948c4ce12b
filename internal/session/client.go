package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/atendesk/atendesk/internal/config"
	"github.com/atendesk/atendesk/internal/domain"
	apperrors "github.com/atendesk/atendesk/pkg/util"
)

// Client is the HTTP implementation of the API contract, speaking to the
// helpdesk server's REST surface. Server-side rejections come back with
// their original error code so guards behave identically to local ones.
type Client struct {
	baseURL  string
	token    string
	pageSize int
	http     *http.Client
}

// NewClient builds a client from console configuration. Call Login before
// any authenticated operation.
func NewClient(cfg config.ConsoleConfig) *Client {
	return &Client{
		baseURL:  strings.TrimRight(cfg.ServerURL, "/"),
		pageSize: cfg.PageSize,
		http:     &http.Client{Timeout: 15 * time.Second},
	}
}

// Login authenticates the agent and stores the bearer token for subsequent
// calls.
func (c *Client) Login(ctx context.Context, email, password string) error {
	var out struct {
		Token string `json:"token"`
	}
	payload := map[string]string{"email": email, "password": password}
	if err := c.request(ctx, http.MethodPost, "/auth/login", payload, &out); err != nil {
		return err
	}
	c.token = out.Token
	return nil
}

type wireConversation struct {
	ID              string                    `json:"id"`
	Protocol        string                    `json:"protocol"`
	ContactID       string                    `json:"contact_id"`
	ContactName     string                    `json:"contact_name"`
	Status          domain.ConversationStatus `json:"status"`
	TeamID          *string                   `json:"team_id"`
	AssignedUserID  *string                   `json:"assigned_user_id"`
	Classification  *string                   `json:"classification"`
	Rating          *int                      `json:"rating"`
	ClosedAt        *time.Time                `json:"closed_at"`
	FirstResponseAt *time.Time                `json:"first_response_at"`
	UpdatedAt       time.Time                 `json:"updated_at"`
}

type wireMessage struct {
	ID              string                `json:"id"`
	WhatsAppID      string                `json:"whatsapp_id"`
	FromMe          bool                  `json:"from_me"`
	Type            domain.MessageType    `json:"type"`
	Content         *string               `json:"content"`
	QuotedMessageID *string               `json:"quoted_message_id"`
	DeliveryStatus  domain.DeliveryStatus `json:"delivery_status"`
	Timestamp       time.Time             `json:"timestamp"`
}

// ListConversations fetches one page of summaries.
func (c *Client) ListConversations(ctx context.Context, filter ListFilter) (*ConversationPage, error) {
	query := url.Values{}
	if filter.Status != "" && filter.Status != FilterAll {
		query.Set("status", string(filter.Status))
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = c.pageSize
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	if filter.Offset > 0 {
		query.Set("offset", strconv.Itoa(filter.Offset))
	}

	var out struct {
		Items []wireConversation `json:"items"`
		Total int                `json:"total"`
	}
	endpoint := "/api/v1/conversations"
	if encoded := query.Encode(); encoded != "" {
		endpoint += "?" + encoded
	}
	if err := c.request(ctx, http.MethodGet, endpoint, nil, &out); err != nil {
		return nil, err
	}

	page := &ConversationPage{Total: out.Total, Items: make([]ConversationSummary, 0, len(out.Items))}
	for _, item := range out.Items {
		page.Items = append(page.Items, summaryFromWire(item))
	}
	return page, nil
}

// GetConversation fetches one summary.
func (c *Client) GetConversation(ctx context.Context, id string) (*ConversationSummary, error) {
	var out wireConversation
	if err := c.request(ctx, http.MethodGet, "/api/v1/conversations/"+id, nil, &out); err != nil {
		return nil, err
	}
	summary := summaryFromWire(out)
	return &summary, nil
}

// GetThread fetches the message thread oldest first.
func (c *Client) GetThread(ctx context.Context, id string) ([]MessageView, error) {
	var out struct {
		Messages []wireMessage `json:"messages"`
	}
	if err := c.request(ctx, http.MethodGet, "/api/v1/conversations/"+id+"/messages", nil, &out); err != nil {
		return nil, err
	}
	thread := make([]MessageView, 0, len(out.Messages))
	for _, msg := range out.Messages {
		thread = append(thread, MessageView{
			ID:              msg.ID,
			WhatsAppID:      msg.WhatsAppID,
			FromMe:          msg.FromMe,
			Type:            msg.Type,
			Content:         msg.Content,
			QuotedMessageID: msg.QuotedMessageID,
			DeliveryStatus:  msg.DeliveryStatus,
			Timestamp:       msg.Timestamp,
		})
	}
	return thread, nil
}

// Counts fetches per-status totals.
func (c *Client) Counts(ctx context.Context) (Counts, error) {
	var out struct {
		Waiting    int `json:"waiting"`
		InProgress int `json:"in_progress"`
		Closed     int `json:"closed"`
	}
	if err := c.request(ctx, http.MethodGet, "/api/v1/conversations/counts", nil, &out); err != nil {
		return Counts{}, err
	}
	return Counts{Waiting: out.Waiting, InProgress: out.InProgress, Closed: out.Closed}, nil
}

// SendMessage delivers an agent reply.
func (c *Client) SendMessage(ctx context.Context, id, text string, quotedID *string) error {
	payload := map[string]any{"text": text}
	if quotedID != nil {
		payload["quoted_message_id"] = *quotedID
	}
	return c.request(ctx, http.MethodPost, "/api/v1/conversations/"+id+"/messages", payload, nil)
}

// Transfer routes the conversation to a team, optionally claiming it for a
// user.
func (c *Client) Transfer(ctx context.Context, id, teamID string, userID *string) error {
	payload := map[string]any{"team_id": teamID}
	if userID != nil {
		payload["user_id"] = *userID
	}
	return c.request(ctx, http.MethodPost, "/api/v1/conversations/"+id+"/transfer", payload, nil)
}

// Close ends the conversation.
func (c *Client) Close(ctx context.Context, id string, input CloseRequest) error {
	payload := map[string]any{}
	if input.Classification != nil {
		payload["classification"] = *input.Classification
	}
	if input.Rating != nil {
		payload["rating"] = *input.Rating
	}
	if input.ClosingComments != nil {
		payload["closing_comments"] = *input.ClosingComments
	}
	return c.request(ctx, http.MethodPost, "/api/v1/conversations/"+id+"/close", payload, nil)
}

// Reopen returns a closed conversation to in_progress.
func (c *Client) Reopen(ctx context.Context, id string) error {
	return c.request(ctx, http.MethodPost, "/api/v1/conversations/"+id+"/reopen", nil, nil)
}

// UpdateContactName records an agent-assigned contact name.
func (c *Client) UpdateContactName(ctx context.Context, contactID, customName string) error {
	payload := map[string]string{"custom_name": customName}
	return c.request(ctx, http.MethodPut, "/api/v1/contacts/"+contactID+"/name", payload, nil)
}

// ListTeams fetches transfer destination teams.
func (c *Client) ListTeams(ctx context.Context) ([]TeamView, error) {
	var out []struct {
		ID        string   `json:"id"`
		Name      string   `json:"name"`
		MemberIDs []string `json:"member_ids"`
	}
	if err := c.request(ctx, http.MethodGet, "/api/v1/teams", nil, &out); err != nil {
		return nil, err
	}
	teams := make([]TeamView, 0, len(out))
	for _, team := range out {
		teams = append(teams, TeamView{ID: team.ID, Name: team.Name, MemberIDs: team.MemberIDs})
	}
	return teams, nil
}

// ListUsers fetches the agent roster.
func (c *Client) ListUsers(ctx context.Context) ([]UserView, error) {
	var out []struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if err := c.request(ctx, http.MethodGet, "/api/v1/users", nil, &out); err != nil {
		return nil, err
	}
	users := make([]UserView, 0, len(out))
	for _, user := range out {
		users = append(users, UserView{ID: user.ID, Name: user.Name, Email: user.Email})
	}
	return users, nil
}

// ListQuickReplies fetches canned messages.
func (c *Client) ListQuickReplies(ctx context.Context) ([]QuickReplyView, error) {
	var out []struct {
		ID      string `json:"id"`
		Title   string `json:"title"`
		Content string `json:"content"`
	}
	if err := c.request(ctx, http.MethodGet, "/api/v1/quick-replies", nil, &out); err != nil {
		return nil, err
	}
	replies := make([]QuickReplyView, 0, len(out))
	for _, reply := range out {
		replies = append(replies, QuickReplyView{ID: reply.ID, Title: reply.Title, Content: reply.Content})
	}
	return replies, nil
}

// ListClassifications fetches closing classification options.
func (c *Client) ListClassifications(ctx context.Context) ([]ClassificationView, error) {
	var out []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	if err := c.request(ctx, http.MethodGet, "/api/v1/classifications", nil, &out); err != nil {
		return nil, err
	}
	classifications := make([]ClassificationView, 0, len(out))
	for _, item := range out {
		classifications = append(classifications, ClassificationView{ID: item.ID, Name: item.Name})
	}
	return classifications, nil
}

func summaryFromWire(item wireConversation) ConversationSummary {
	return ConversationSummary{
		ID:              item.ID,
		Protocol:        item.Protocol,
		ContactID:       item.ContactID,
		ContactName:     item.ContactName,
		Status:          item.Status,
		TeamID:          item.TeamID,
		AssignedUserID:  item.AssignedUserID,
		Classification:  item.Classification,
		Rating:          item.Rating,
		ClosedAt:        item.ClosedAt,
		FirstResponseAt: item.FirstResponseAt,
		UpdatedAt:       item.UpdatedAt,
	}
}

// request performs one HTTP exchange, unwrapping the server's {"data": ...}
// envelope into out and rebuilding server error codes as local error kinds.
func (c *Client) request(ctx context.Context, method, endpoint string, payload, out any) error {
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
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return apperrors.NewTransportError("server unreachable", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperrors.NewTransportError("response read failed", err)
	}

	if resp.StatusCode >= 400 {
		return decodeError(raw, resp.StatusCode)
	}

	if out != nil && len(raw) > 0 {
		var envelope struct {
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(raw, &envelope); err != nil || envelope.Data == nil {
			return apperrors.NewTransportError("response decode failed", err)
		}
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return apperrors.NewTransportError("response decode failed", err)
		}
	}
	return nil
}

// decodeError maps the server's error envelope back onto the shared error
// taxonomy. Unknown shapes degrade to a transport failure carrying the HTTP
// status.
func decodeError(raw []byte, status int) error {
	var envelope struct {
		Error struct {
			Code    string         `json:"code"`
			Message string         `json:"message"`
			Details map[string]any `json:"details"`
		} `json:"error"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Error.Code != "" {
		return apperrors.NewDomainError(envelope.Error.Code, envelope.Error.Message, status, envelope.Error.Details)
	}
	return apperrors.NewTransportError(fmt.Sprintf("server returned HTTP %d", status), nil)
}
