package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/atendesk/atendesk/internal/config"
	apperrors "github.com/atendesk/atendesk/pkg/util"
)

func newTestGateway(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(config.GatewayConfig{
		BaseURL:        server.URL,
		APIKey:         "secret-key",
		InstanceName:   "atendesk",
		TimeoutSeconds: 5,
	}, zap.NewNop())
}

func TestSendTextPostsToInstanceEndpoint(t *testing.T) {
	var got map[string]any
	client := newTestGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/message/sendText/atendesk", r.URL.Path)
		assert.Equal(t, "secret-key", r.Header.Get("apikey"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"key": map[string]any{"id": "wa-123"},
		})
	}))

	result, err := client.SendText(context.Background(), "+55 11 99999-0000", "hello", nil)
	require.NoError(t, err)
	assert.Equal(t, "wa-123", result.MessageID)
	assert.Equal(t, "5511999990000", got["number"])
	assert.Equal(t, "hello", got["text"])
	_, quoted := got["quoted"]
	assert.False(t, quoted)
}

func TestSendTextIncludesQuotedReference(t *testing.T) {
	var got map[string]any
	client := newTestGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(map[string]any{"key": map[string]any{"id": "wa-1"}})
	}))

	quotedID := "wa-prev"
	_, err := client.SendText(context.Background(), "5511999990000", "reply", &quotedID)
	require.NoError(t, err)
	quoted, ok := got["quoted"].(map[string]any)
	require.True(t, ok)
	key, ok := quoted["key"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "wa-prev", key["id"])
}

func TestGatewayErrorBecomesTransportFailure(t *testing.T) {
	client := newTestGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]any{"message": "number not on whatsapp"})
	}))

	_, err := client.SendText(context.Background(), "5511999990000", "hello", nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsTransport(err))
	assert.Contains(t, err.Error(), "number not on whatsapp")
}

func TestConnectionStateReadsNestedShape(t *testing.T) {
	client := newTestGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/instance/connectionState/atendesk", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"instance": map[string]any{"state": "open"},
		})
	}))

	state, err := client.ConnectionState(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "open", state)
}

func TestJIDHelpers(t *testing.T) {
	assert.Equal(t, "5511999990000", ParseJIDToNumber("5511999990000@s.whatsapp.net"))
	assert.Equal(t, "5511999990000", ParseJIDToNumber("5511999990000"))
	assert.Equal(t, "5511999990000@s.whatsapp.net", FormatJID("+55 (11) 99999-0000"))
	assert.Equal(t, "5511999990000@s.whatsapp.net", FormatJID("5511999990000@s.whatsapp.net"))
	assert.True(t, IsGroupJID("120363001@g.us"))
	assert.False(t, IsGroupJID("5511999990000@s.whatsapp.net"))
}

func TestMessageContentExtract(t *testing.T) {
	msgType, content, mediaURL, mimeType, filename := MessageContent{Conversation: "plain text"}.Extract()
	assert.Equal(t, "text", string(msgType))
	require.NotNil(t, content)
	assert.Equal(t, "plain text", *content)
	assert.Nil(t, mediaURL)
	assert.Nil(t, mimeType)
	assert.Nil(t, filename)

	msgType, content, mediaURL, _, filename = MessageContent{
		DocumentMessage: &DocumentBody{URL: "https://cdn/doc.pdf", FileName: "invoice.pdf", MimeType: "application/pdf"},
	}.Extract()
	assert.Equal(t, "document", string(msgType))
	assert.Equal(t, "invoice.pdf", *content)
	assert.Equal(t, "https://cdn/doc.pdf", *mediaURL)
	assert.Equal(t, "invoice.pdf", *filename)
}

func TestDeliveryStatusMapping(t *testing.T) {
	assert.Equal(t, "pending", string(MessageUpdate{Status: 1}.DeliveryStatus()))
	assert.Equal(t, "sent", string(MessageUpdate{Status: 2}.DeliveryStatus()))
	assert.Equal(t, "delivered", string(MessageUpdate{Status: 3}.DeliveryStatus()))
	assert.Equal(t, "read", string(MessageUpdate{Status: 4}.DeliveryStatus()))
	assert.Empty(t, string(MessageUpdate{Status: 99}.DeliveryStatus()))
}
