package domain

import "time"

// MessageType classifies message payloads as reported by the gateway.
type MessageType string

const (
	MessageTypeText     MessageType = "text"
	MessageTypeImage    MessageType = "image"
	MessageTypeVideo    MessageType = "video"
	MessageTypeAudio    MessageType = "audio"
	MessageTypeDocument MessageType = "document"
	MessageTypeSticker  MessageType = "sticker"
)

// DeliveryStatus tracks message delivery as reported by the gateway.
type DeliveryStatus string

const (
	DeliveryPending   DeliveryStatus = "pending"
	DeliverySent      DeliveryStatus = "sent"
	DeliveryDelivered DeliveryStatus = "delivered"
	DeliveryRead      DeliveryStatus = "read"
	DeliveryReceived  DeliveryStatus = "received"
)

// Message captures one entry in a conversation thread. Content is nil for
// media-only payloads; FromMe distinguishes outbound agent messages from
// inbound contact messages.
type Message struct {
	ID              string
	ConversationID  string
	WhatsAppID      string
	RemoteJID       string
	FromMe          bool
	Type            MessageType
	Content         *string
	MediaURL        *string
	MediaMimeType   *string
	MediaFilename   *string
	QuotedMessageID *string
	DeliveryStatus  DeliveryStatus
	Timestamp       time.Time
}
