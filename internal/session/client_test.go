package session

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atendesk/atendesk/internal/config"
	"github.com/atendesk/atendesk/internal/domain"
	apperrors "github.com/atendesk/atendesk/pkg/util"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client := NewClient(config.ConsoleConfig{ServerURL: server.URL, PageSize: 20})
	return client, server
}

func TestClientLoginStoresToken(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/auth/login", r.URL.Path)
		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "a@example.com", req["email"])
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{"token": "tok-123"},
		})
	}))

	require.NoError(t, client.Login(context.Background(), "a@example.com", "secret"))
	assert.Equal(t, "tok-123", client.token)
}

func TestClientListConversations(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/conversations", r.URL.Path)
		assert.Equal(t, "waiting", r.URL.Query().Get("status"))
		assert.Equal(t, "20", r.URL.Query().Get("limit"))
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{
				"items": []map[string]any{
					{"id": "c1", "protocol": "ATD20240101120000", "status": "waiting", "contact_name": "Alice"},
				},
				"total": 7,
			},
		})
	}))
	client.token = "tok"

	page, err := client.ListConversations(context.Background(), ListFilter{Status: FilterWaiting})
	require.NoError(t, err)
	assert.Equal(t, 7, page.Total)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "c1", page.Items[0].ID)
	assert.Equal(t, domain.StatusWaiting, page.Items[0].Status)
	assert.Equal(t, "Alice", page.Items[0].ContactName)
}

func TestClientMapsServerErrorCodes(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{
				"code":    "CONFLICT",
				"message": "conversation already closed",
			},
		})
	}))

	err := client.Close(context.Background(), "c1", CloseRequest{})
	require.Error(t, err)
	assert.True(t, apperrors.IsConflict(err))
}

func TestClientMapsValidationError(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{
				"code":    "VALIDATION_FAILED",
				"message": "message text is required",
			},
		})
	}))

	err := client.SendMessage(context.Background(), "c1", "", nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}

func TestClientUnreachableServerIsTransportFailure(t *testing.T) {
	client, server := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	_, err := client.Counts(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.IsTransport(err))
}

func TestClientTransferPayload(t *testing.T) {
	var got map[string]any
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/conversations/c1/transfer", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(map[string]any{"data": map[string]any{}})
	}))

	userID := "u1"
	require.NoError(t, client.Transfer(context.Background(), "c1", "t1", &userID))
	assert.Equal(t, "t1", got["team_id"])
	assert.Equal(t, "u1", got["user_id"])

	got = nil
	require.NoError(t, client.Transfer(context.Background(), "c1", "t1", nil))
	_, present := got["user_id"]
	assert.False(t, present)
}
