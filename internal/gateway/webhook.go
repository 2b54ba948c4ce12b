package gateway

import (
	"encoding/json"

	"github.com/atendesk/atendesk/internal/domain"
)

// Webhook event names emitted by the gateway.
const (
	EventMessagesUpsert = "MESSAGES_UPSERT"
	EventMessagesUpdate = "MESSAGES_UPDATE"
	EventContactsUpsert = "CONTACTS_UPSERT"
)

// WebhookEvent is the envelope posted by the gateway.
type WebhookEvent struct {
	Event    string          `json:"event"`
	Instance string          `json:"instance"`
	Data     json.RawMessage `json:"data"`
}

// MessageKey identifies a message within the gateway.
type MessageKey struct {
	RemoteJID string `json:"remoteJid"`
	ID        string `json:"id"`
	FromMe    bool   `json:"fromMe"`
}

// MessageUpsert is the payload of a MESSAGES_UPSERT event.
type MessageUpsert struct {
	Key      MessageKey     `json:"key"`
	PushName string         `json:"pushName"`
	Message  MessageContent `json:"message"`
}

// MessageContent mirrors the gateway's per-type message body.
type MessageContent struct {
	Conversation        string        `json:"conversation"`
	ExtendedTextMessage *TextBody     `json:"extendedTextMessage"`
	ImageMessage        *MediaBody    `json:"imageMessage"`
	VideoMessage        *MediaBody    `json:"videoMessage"`
	AudioMessage        *MediaBody    `json:"audioMessage"`
	DocumentMessage     *DocumentBody `json:"documentMessage"`
	StickerMessage      *MediaBody    `json:"stickerMessage"`
}

// TextBody is the extended-text payload.
type TextBody struct {
	Text string `json:"text"`
}

// MediaBody covers image/video/audio/sticker payloads.
type MediaBody struct {
	URL      string `json:"url"`
	Caption  string `json:"caption"`
	MimeType string `json:"mimetype"`
}

// DocumentBody is the document payload.
type DocumentBody struct {
	URL      string `json:"url"`
	FileName string `json:"fileName"`
	MimeType string `json:"mimetype"`
}

// MessageUpdate is the payload of a MESSAGES_UPDATE event. Status uses the
// gateway's numeric delivery scale.
type MessageUpdate struct {
	Key    MessageKey `json:"key"`
	Status int        `json:"status"`
}

// ContactUpsert is one entry of a CONTACTS_UPSERT event.
type ContactUpsert struct {
	RemoteJID         string `json:"remoteJid"`
	ID                string `json:"id"`
	PushName          string `json:"pushName"`
	ProfilePictureURL string `json:"profilePictureUrl"`
}

// JID returns whichever identity field the gateway populated.
func (c ContactUpsert) JID() string {
	if c.RemoteJID != "" {
		return c.RemoteJID
	}
	return c.ID
}

// Extract resolves the message type, textual content and media fields from
// the per-type body.
func (m MessageContent) Extract() (msgType domain.MessageType, content, mediaURL, mimeType, filename *string) {
	switch {
	case m.Conversation != "":
		return domain.MessageTypeText, strptr(m.Conversation), nil, nil, nil
	case m.ExtendedTextMessage != nil:
		return domain.MessageTypeText, strptr(m.ExtendedTextMessage.Text), nil, nil, nil
	case m.ImageMessage != nil:
		return domain.MessageTypeImage, strptr(m.ImageMessage.Caption), strptr(m.ImageMessage.URL), strptr(m.ImageMessage.MimeType), nil
	case m.VideoMessage != nil:
		return domain.MessageTypeVideo, strptr(m.VideoMessage.Caption), strptr(m.VideoMessage.URL), strptr(m.VideoMessage.MimeType), nil
	case m.AudioMessage != nil:
		return domain.MessageTypeAudio, nil, strptr(m.AudioMessage.URL), strptr(m.AudioMessage.MimeType), nil
	case m.DocumentMessage != nil:
		return domain.MessageTypeDocument, strptr(m.DocumentMessage.FileName), strptr(m.DocumentMessage.URL), strptr(m.DocumentMessage.MimeType), strptr(m.DocumentMessage.FileName)
	case m.StickerMessage != nil:
		return domain.MessageTypeSticker, nil, strptr(m.StickerMessage.URL), strptr(m.StickerMessage.MimeType), nil
	}
	return domain.MessageTypeText, nil, nil, nil, nil
}

// DeliveryStatus maps the gateway's numeric status to the domain value.
// Unknown values map to empty, meaning "leave unchanged".
func (u MessageUpdate) DeliveryStatus() domain.DeliveryStatus {
	switch u.Status {
	case 1:
		return domain.DeliveryPending
	case 2:
		return domain.DeliverySent
	case 3:
		return domain.DeliveryDelivered
	case 4:
		return domain.DeliveryRead
	}
	return ""
}

func strptr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
