package usecase

import (
	"strings"

	"github.com/rs/zerolog"

	"github.com/greenbridge/rocketchat-bridge/internal/biz/domain"
)

// quoteStanzaPrefix is how Rocket.Chat encodes a reply inside the message
// body: a leading markdown link stanza "[ ](<permalink>)\n".
const quoteStanzaPrefix = "[ ]("

// quoteIDDelimiter is the attachment-title channel for the quoted message's
// original GREEN-API id: "<file name>:greenapi:<id>".
const quoteIDDelimiter = ":" + domain.MessageIDPrefix + ":"

// OutboundMessage is the result of transforming an agent message: exactly one
// of Text or File is set.
type OutboundMessage struct {
	Text *domain.TextDispatch
	File *domain.FileDispatch
}

// OutboundTransformer converts Rocket.Chat livechat agent messages into
// GREEN-API dispatches, extracting quote correlation ids on the way.
type OutboundTransformer struct {
	log zerolog.Logger
}

// NewOutboundTransformer creates an OutboundTransformer.
func NewOutboundTransformer(log zerolog.Logger) *OutboundTransformer {
	return &OutboundTransformer{log: log.With().Str("component", "outbound").Logger()}
}

// Transform produces the outbound dispatch for a livechat webhook. baseURL is
// the workspace base URL, used to resolve relative attachment links. Returns
// domain.ErrAgentIdentityMismatch for messages that are not attributable to a
// genuine human agent; those must never reach the messaging platform.
func (t *OutboundTransformer) Transform(webhook *domain.RocketChatWebhook, baseURL string) (*OutboundMessage, error) {
	if len(webhook.Messages) == 0 {
		return nil, domain.NewValidationError("webhook carries no message")
	}
	msg := webhook.Messages[0]

	switch {
	case webhook.Agent.Email == "":
		return nil, domain.ErrAgentIdentityMismatch
	case msg.U.ID != webhook.Agent.ID:
		// System notifications and visitor echoes are authored by someone
		// other than the agent the webhook is attributed to.
		return nil, domain.ErrAgentIdentityMismatch
	case strings.HasPrefix(msg.Msg, domain.ErrorEchoPrefix):
		return nil, domain.ErrAgentIdentityMismatch
	}

	chatID := chatIDFromVisitor(webhook.Visitor)
	if chatID == "" {
		return nil, domain.NewValidationError("visitor %q carries no chat id", webhook.Visitor.Username)
	}

	quotedID := extractQuotedID(msg)
	body := stripQuoteStanza(msg.Msg)

	if msg.FileUpload != nil {
		fileName := "file"
		if msg.File != nil && msg.File.Name != "" {
			fileName = msg.File.Name
		}
		return &OutboundMessage{File: &domain.FileDispatch{
			ChatID:          chatID,
			URL:             msg.FileUpload.PublicFilePath,
			FileName:        fileName,
			Caption:         attachmentDescription(msg.Attachments),
			QuotedMessageID: quotedID,
		}}, nil
	}

	// Some Rocket.Chat versions deliver uploads without a fileUpload block:
	// an empty body and an attachment carrying a relative download link.
	if strings.TrimSpace(body) == "" {
		if att := attachmentWithLink(msg.Attachments); att != nil {
			return &OutboundMessage{File: &domain.FileDispatch{
				ChatID:          chatID,
				URL:             strings.TrimSuffix(baseURL, "/") + att.TitleLink,
				FileName:        attachmentFileName(*att),
				Caption:         att.Description,
				QuotedMessageID: quotedID,
			}}, nil
		}
	}

	return &OutboundMessage{Text: &domain.TextDispatch{
		ChatID:          chatID,
		Message:         body,
		QuotedMessageID: quotedID,
	}}, nil
}

// chatIDFromVisitor recovers the WhatsApp chat id from the visitor username
// ("greenapi:<chatId>").
func chatIDFromVisitor(v domain.RocketChatVisitor) string {
	_, chatID, ok := strings.Cut(v.Username, ":")
	if !ok {
		return ""
	}
	return chatID
}

// extractQuotedID pulls the quoted message's GREEN-API id out of the webhook.
// The attachment-title encoding wins over the text-link encoding; absence of
// both simply means the message quotes nothing.
func extractQuotedID(msg domain.RocketChatMessage) string {
	for _, att := range msg.Attachments {
		if idx := strings.LastIndex(att.Title, quoteIDDelimiter); idx != -1 {
			if id := att.Title[idx+len(quoteIDDelimiter):]; id != "" {
				return id
			}
		}
	}

	if _, tail, ok := strings.Cut(msg.Msg, "?msg="); ok {
		if _, ref, ok := strings.Cut(tail, domain.MessageIDPrefix+":"); ok {
			id, _, _ := strings.Cut(ref, ")")
			return id
		}
	}
	return ""
}

// stripQuoteStanza removes the leading "[ ](...)\n" reply stanza, leaving the
// text the agent actually typed.
func stripQuoteStanza(msg string) string {
	if !strings.HasPrefix(msg, quoteStanzaPrefix) {
		return msg
	}
	if end := strings.Index(msg, ")\n"); end != -1 {
		return msg[end+2:]
	}
	return msg
}

func attachmentDescription(atts []domain.RocketChatAttachment) string {
	if len(atts) == 0 {
		return ""
	}
	return atts[0].Description
}

func attachmentWithLink(atts []domain.RocketChatAttachment) *domain.RocketChatAttachment {
	for i := range atts {
		if atts[i].TitleLink != "" {
			return &atts[i]
		}
	}
	return nil
}

func attachmentFileName(att domain.RocketChatAttachment) string {
	title := att.Title
	if idx := strings.LastIndex(title, quoteIDDelimiter); idx != -1 {
		title = title[:idx]
	}
	if title == "" {
		return "file"
	}
	return title
}
