package domain

import "strings"

// MessageIDPrefix namespaces message ids the bridge creates on the livechat
// side, so quote references can be correlated back to GREEN-API message ids.
const MessageIDPrefix = "greenapi"

// ErrorEchoPrefix marks delivery-failure notifications the bridge posts back
// into a livechat room. The outbound transformer must filter messages
// starting with it, or every failure would echo into another send attempt.
const ErrorEchoPrefix = "🚫 Failed to deliver message:"

// FileDescriptor carries a media attachment through the bridge unchanged.
type FileDescriptor struct {
	URL      string
	FileName string
	Caption  string
	MimeType string
}

// CanonicalMessage is the normalized envelope produced by either transformer.
// Exactly one of Text or File is meaningfully populated; structured message
// types are flattened into formatted Text.
type CanonicalMessage struct {
	ChatID     string // phone-derived conversation identity, e.g. "79001234567@c.us"
	SenderName string
	MessageID  string
	Text       string
	File       *FileDescriptor
}

// TextDispatch is an outbound text message for GREEN-API.
type TextDispatch struct {
	ChatID          string
	Message         string
	QuotedMessageID string
}

// FileDispatch is an outbound file message for GREEN-API.
type FileDispatch struct {
	ChatID          string
	URL             string
	FileName        string
	Caption         string
	QuotedMessageID string
}

// CleanChatID strips the WhatsApp chat suffix ("@c.us", "@g.us") from a chat
// id, leaving the bare phone number.
func CleanChatID(chatID string) string {
	for _, suffix := range []string{"@c.us", "@g.us"} {
		if strings.HasSuffix(chatID, suffix) {
			return strings.TrimSuffix(chatID, suffix)
		}
	}
	return chatID
}
