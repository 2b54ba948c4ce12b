package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/atendesk/atendesk/internal/domain"
	"github.com/atendesk/atendesk/internal/gateway"
)

type ingestFixture struct {
	conversations *memConversationRepo
	messages      *memMessageRepo
	contacts      *memContactRepo
	service       *IngestService
}

func newIngestFixture(t *testing.T) *ingestFixture {
	t.Helper()
	f := &ingestFixture{
		conversations: newMemConversationRepo(),
		messages:      &memMessageRepo{},
		contacts:      newMemContactRepo(),
	}
	f.service = NewIngestService(IngestDependencies{
		ConversationRepo: f.conversations,
		MessageRepo:      f.messages,
		ContactRepo:      f.contacts,
		Logger:           zap.NewNop(),
	})
	return f
}

func textUpsert(jid, id, text, pushName string) gateway.MessageUpsert {
	return gateway.MessageUpsert{
		Key:      gateway.MessageKey{RemoteJID: jid, ID: id},
		PushName: pushName,
		Message:  gateway.MessageContent{Conversation: text},
	}
}

func TestInboundMessageOpensWaitingConversation(t *testing.T) {
	f := newIngestFixture(t)
	ctx := context.Background()

	err := f.service.HandleMessageUpsert(ctx, textUpsert("5511999990000@s.whatsapp.net", "wa-1", "help please", "Alice"))
	require.NoError(t, err)

	contact, err := f.contacts.GetByRemoteJID(ctx, "5511999990000@s.whatsapp.net")
	require.NoError(t, err)
	assert.Equal(t, "5511999990000", contact.PhoneNumber)
	require.NotNil(t, contact.PushName)
	assert.Equal(t, "Alice", *contact.PushName)

	conv, err := f.conversations.FindOpenByContact(ctx, contact.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusWaiting, conv.Status)
	assert.Nil(t, conv.AssignedUserID)
	assert.Contains(t, conv.Protocol, "ATD")

	thread, err := f.messages.ListByConversation(ctx, conv.ID, 0)
	require.NoError(t, err)
	require.Len(t, thread, 1)
	assert.False(t, thread[0].FromMe)
	assert.Equal(t, "help please", *thread[0].Content)
	assert.Equal(t, domain.DeliveryReceived, thread[0].DeliveryStatus)
}

func TestSecondInboundMessageAppendsToOpenConversation(t *testing.T) {
	f := newIngestFixture(t)
	ctx := context.Background()

	require.NoError(t, f.service.HandleMessageUpsert(ctx, textUpsert("5511999990000@s.whatsapp.net", "wa-1", "first", "Alice")))
	require.NoError(t, f.service.HandleMessageUpsert(ctx, textUpsert("5511999990000@s.whatsapp.net", "wa-2", "second", "Alice")))

	contact, err := f.contacts.GetByRemoteJID(ctx, "5511999990000@s.whatsapp.net")
	require.NoError(t, err)
	conv, err := f.conversations.FindOpenByContact(ctx, contact.ID)
	require.NoError(t, err)

	thread, err := f.messages.ListByConversation(ctx, conv.ID, 0)
	require.NoError(t, err)
	assert.Len(t, thread, 2)

	counts, err := f.conversations.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, counts[domain.StatusWaiting])
}

func TestDuplicateWebhookDeliveryIsIgnored(t *testing.T) {
	f := newIngestFixture(t)
	ctx := context.Background()

	event := textUpsert("5511999990000@s.whatsapp.net", "wa-1", "hello", "Alice")
	require.NoError(t, f.service.HandleMessageUpsert(ctx, event))
	require.NoError(t, f.service.HandleMessageUpsert(ctx, event))

	contact, err := f.contacts.GetByRemoteJID(ctx, "5511999990000@s.whatsapp.net")
	require.NoError(t, err)
	conv, err := f.conversations.FindOpenByContact(ctx, contact.ID)
	require.NoError(t, err)

	thread, err := f.messages.ListByConversation(ctx, conv.ID, 0)
	require.NoError(t, err)
	assert.Len(t, thread, 1)
}

func TestGroupMessagesAreSkipped(t *testing.T) {
	f := newIngestFixture(t)
	ctx := context.Background()

	err := f.service.HandleMessageUpsert(ctx, textUpsert("120363001@g.us", "wa-1", "group chatter", ""))
	require.NoError(t, err)

	contacts, err := f.contacts.List(ctx, "", 0, 0)
	require.NoError(t, err)
	assert.Empty(t, contacts)
}

func TestDeliveryStatusUpdateApplied(t *testing.T) {
	f := newIngestFixture(t)
	ctx := context.Background()

	require.NoError(t, f.service.HandleMessageUpsert(ctx, textUpsert("5511999990000@s.whatsapp.net", "wa-1", "hello", "Alice")))

	err := f.service.HandleMessageUpdate(ctx, gateway.MessageUpdate{
		Key:    gateway.MessageKey{ID: "wa-1"},
		Status: 4,
	})
	require.NoError(t, err)

	msg, err := f.messages.GetByWhatsAppID(ctx, "wa-1")
	require.NoError(t, err)
	assert.Equal(t, domain.DeliveryRead, msg.DeliveryStatus)
}

func TestDeliveryUpdateForUnknownMessageIgnored(t *testing.T) {
	f := newIngestFixture(t)
	err := f.service.HandleMessageUpdate(context.Background(), gateway.MessageUpdate{
		Key:    gateway.MessageKey{ID: "missing"},
		Status: 3,
	})
	assert.NoError(t, err)
}

func TestContactsUpsertRefreshesPushName(t *testing.T) {
	f := newIngestFixture(t)
	ctx := context.Background()

	require.NoError(t, f.service.HandleMessageUpsert(ctx, textUpsert("5511999990000@s.whatsapp.net", "wa-1", "hi", "Alice")))

	err := f.service.HandleContactsUpsert(ctx, []gateway.ContactUpsert{
		{RemoteJID: "5511999990000@s.whatsapp.net", PushName: "Alice Silva"},
		{RemoteJID: "000000@s.whatsapp.net", PushName: "Stranger"},
	})
	require.NoError(t, err)

	contact, err := f.contacts.GetByRemoteJID(ctx, "5511999990000@s.whatsapp.net")
	require.NoError(t, err)
	require.NotNil(t, contact.PushName)
	assert.Equal(t, "Alice Silva", *contact.PushName)

	_, err = f.contacts.GetByRemoteJID(ctx, "000000@s.whatsapp.net")
	assert.Error(t, err)
}

func TestMediaMessageExtraction(t *testing.T) {
	f := newIngestFixture(t)
	ctx := context.Background()

	event := gateway.MessageUpsert{
		Key: gateway.MessageKey{RemoteJID: "5511999990000@s.whatsapp.net", ID: "wa-img"},
		Message: gateway.MessageContent{
			ImageMessage: &gateway.MediaBody{URL: "https://cdn/img.jpg", Caption: "receipt", MimeType: "image/jpeg"},
		},
	}
	require.NoError(t, f.service.HandleMessageUpsert(ctx, event))

	msg, err := f.messages.GetByWhatsAppID(ctx, "wa-img")
	require.NoError(t, err)
	assert.Equal(t, domain.MessageTypeImage, msg.Type)
	require.NotNil(t, msg.Content)
	assert.Equal(t, "receipt", *msg.Content)
	require.NotNil(t, msg.MediaURL)
	assert.Equal(t, "https://cdn/img.jpg", *msg.MediaURL)
}
