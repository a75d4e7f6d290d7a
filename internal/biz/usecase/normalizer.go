package usecase

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/greenbridge/rocketchat-bridge/internal/biz/domain"
)

// UnsupportedMessagePlaceholder is rendered for message subtypes the bridge
// does not handle, so a conversation turn is never silently dropped.
const UnsupportedMessagePlaceholder = "System error: 'Unsupported message type'"

const defaultSenderName = "WhatsApp User"

// Normalizer converts GREEN-API message webhooks into canonical messages.
// Structured subtypes are flattened into fixed text templates; media subtypes
// carry a file descriptor instead.
type Normalizer struct {
	log zerolog.Logger
}

// NewNormalizer creates a Normalizer.
func NewNormalizer(log zerolog.Logger) *Normalizer {
	return &Normalizer{log: log.With().Str("component", "normalizer").Logger()}
}

// Normalize produces a CanonicalMessage for a message-creation webhook, or
// domain.ErrUnsupportedWebhook for any other event type.
func (n *Normalizer) Normalize(webhook *domain.GreenAPIWebhook) (*domain.CanonicalMessage, error) {
	if webhook.TypeWebhook != domain.WebhookIncomingMessage {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedWebhook, webhook.TypeWebhook)
	}

	msg := &domain.CanonicalMessage{
		ChatID:     webhook.SenderData.ChatID,
		SenderName: senderName(webhook.SenderData),
		MessageID:  webhook.IDMessage,
	}

	md := webhook.MessageData
	if fd := md.FileMessageData; fd != nil && isMediaType(md.TypeMessage) {
		msg.File = &domain.FileDescriptor{
			URL:      fd.DownloadURL,
			FileName: fd.FileName,
			Caption:  fd.Caption,
			MimeType: fd.MimeType,
		}
	} else {
		msg.Text = n.renderBody(md)
	}

	if q := md.QuotedMessage; q != nil {
		header := n.renderQuoteHeader(q, webhook.InstanceData.Wid)
		if msg.File != nil {
			// Quotes stay text-only even for media: the header lands in the
			// file caption, no extra upload happens for the quoted side.
			msg.File.Caption = prependHeader(header, msg.File.Caption)
		} else {
			msg.Text = prependHeader(header, msg.Text)
		}
	}

	return msg, nil
}

func (n *Normalizer) renderBody(md domain.MessageData) string {
	switch md.TypeMessage {
	case domain.TypeTextMessage:
		if md.TextMessageData != nil {
			return md.TextMessageData.TextMessage
		}
		return ""
	case domain.TypeExtendedTextMessage:
		if md.ExtendedTextMessageData != nil {
			return md.ExtendedTextMessageData.Text
		}
		return ""
	case domain.TypeLocationMessage:
		if md.LocationMessageData != nil {
			return formatLocation(md.LocationMessageData)
		}
	case domain.TypeContactMessage:
		if md.ContactMessageData != nil {
			return formatContact(md.ContactMessageData)
		}
	case domain.TypeContactsArrayMessage:
		if md.ContactsArrayMessageData != nil {
			return formatContacts(md.ContactsArrayMessageData)
		}
	case domain.TypePollMessage:
		if md.PollMessageData != nil {
			return formatPoll(md.PollMessageData)
		}
	case domain.TypeButtonsMessage:
		if md.ButtonsMessageData != nil {
			return formatButtons(md.ButtonsMessageData)
		}
	case domain.TypeListMessage:
		if md.ListMessageData != nil {
			return formatList(md.ListMessageData)
		}
	case domain.TypeTemplateMessage:
		if md.TemplateMessageData != nil {
			return formatTemplate(md.TemplateMessageData)
		}
	case domain.TypeGroupInviteMessage:
		if md.GroupInviteMessageData != nil {
			return formatGroupInvite(md.GroupInviteMessageData)
		}
	case domain.TypeEditedMessage:
		if md.EditedMessageData != nil {
			return "✏️ Edited message:\n" + md.EditedMessageData.TextMessage
		}
	case domain.TypeDeletedMessage:
		return "🗑️ This message was deleted"
	}

	n.log.Debug().Str("type", md.TypeMessage).Msg("unsupported message subtype, rendering placeholder")
	return UnsupportedMessagePlaceholder
}

// renderQuoteHeader formats the reply header for a quoted message. The quoted
// sender's role is resolved by comparing the participant identity against the
// instance's own bound identity.
func (n *Normalizer) renderQuoteHeader(q *domain.QuotedMessage, instanceWid string) string {
	role := "customer"
	if q.Participant == instanceWid {
		role = "agent"
	}

	body := n.renderQuotedBody(q)
	lines := []string{fmt.Sprintf("↪️ Replying to %s:", role)}
	for _, line := range strings.Split(body, "\n") {
		lines = append(lines, "> "+line)
	}
	return strings.Join(lines, "\n")
}

func (n *Normalizer) renderQuotedBody(q *domain.QuotedMessage) string {
	switch q.TypeMessage {
	case domain.TypeTextMessage, domain.TypeExtendedTextMessage:
		return q.TextMessage
	case domain.TypeLocationMessage:
		if q.LocationMessageData != nil {
			return formatLocation(q.LocationMessageData)
		}
	case domain.TypeContactMessage:
		if q.ContactMessageData != nil {
			return formatContact(q.ContactMessageData)
		}
	case domain.TypeContactsArrayMessage:
		if q.ContactsArrayMessageData != nil {
			return formatContacts(q.ContactsArrayMessageData)
		}
	case domain.TypePollMessage:
		if q.PollMessageData != nil {
			return formatPoll(q.PollMessageData)
		}
	case domain.TypeImageMessage, domain.TypeVideoMessage, domain.TypeDocumentMessage,
		domain.TypeAudioMessage, domain.TypeStickerMessage:
		if q.FileMessageData != nil {
			summary := "📎 " + q.FileMessageData.FileName
			if q.FileMessageData.Caption != "" {
				summary += "\n" + q.FileMessageData.Caption
			}
			return summary
		}
	}
	return UnsupportedMessagePlaceholder
}

func prependHeader(header, body string) string {
	if body == "" {
		return header
	}
	return header + "\n\n" + body
}

func senderName(sd domain.SenderData) string {
	if sd.ChatName != "" {
		return sd.ChatName
	}
	return defaultSenderName
}

func isMediaType(typeMessage string) bool {
	switch typeMessage {
	case domain.TypeImageMessage, domain.TypeVideoMessage, domain.TypeDocumentMessage,
		domain.TypeAudioMessage, domain.TypeStickerMessage:
		return true
	}
	return false
}

func formatLocation(l *domain.LocationMessageData) string {
	var lines []string
	if l.NameLocation != "" {
		lines = append(lines, "📍 "+l.NameLocation)
	}
	if l.Address != "" {
		lines = append(lines, "📮 "+l.Address)
	}
	lines = append(lines, fmt.Sprintf("📌 https://www.google.com/maps?q=%s,%s",
		formatCoord(l.Latitude), formatCoord(l.Longitude)))
	return strings.Join(lines, "\n")
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatContact(c *domain.ContactMessageData) string {
	lines := []string{"👤 Contact shared:"}
	if c.DisplayName != "" {
		lines = append(lines, "Name: "+c.DisplayName)
	}
	if phone := extractPhoneFromVCard(c.Vcard); phone != "" {
		lines = append(lines, "Phone: "+phone)
	}
	return strings.Join(lines, "\n")
}

func formatContacts(cs *domain.ContactsArrayMessageData) string {
	lines := []string{"👥 Multiple contacts shared:", ""}
	for _, c := range cs.Contacts {
		if c.DisplayName != "" {
			lines = append(lines, "👤 "+c.DisplayName)
		}
		if phone := extractPhoneFromVCard(c.Vcard); phone != "" {
			lines = append(lines, "📱 "+phone)
		}
	}
	return strings.Join(lines, "\n")
}

func formatPoll(p *domain.PollMessageData) string {
	lines := []string{"📊 Poll: " + p.Name, "", "Options:"}
	for i, opt := range p.Options {
		lines = append(lines, fmt.Sprintf("%d. %s", i+1, opt.OptionName))
	}
	lines = append(lines, "")
	if p.MultipleAnswers {
		lines = append(lines, "Multiple answers allowed")
	} else {
		lines = append(lines, "Single answer only")
	}
	return strings.Join(lines, "\n")
}

func formatButtons(b *domain.ButtonsMessageData) string {
	lines := []string{"🔘 " + b.ContentText, "", "Buttons:"}
	for i, btn := range b.Buttons {
		lines = append(lines, fmt.Sprintf("%d. %s", i+1, btn.ButtonText))
	}
	if b.Footer != "" {
		lines = append(lines, "", b.Footer)
	}
	return strings.Join(lines, "\n")
}

func formatList(l *domain.ListMessageData) string {
	lines := []string{"📋 " + l.Title}
	if l.Description != "" {
		lines = append(lines, l.Description)
	}
	for _, section := range l.Sections {
		lines = append(lines, "", section.Title+":")
		for i, row := range section.Rows {
			entry := fmt.Sprintf("%d. %s", i+1, row.Title)
			if row.Description != "" {
				entry += " — " + row.Description
			}
			lines = append(lines, entry)
		}
	}
	return strings.Join(lines, "\n")
}

func formatTemplate(t *domain.TemplateMessageData) string {
	lines := []string{"📄 " + t.Content}
	if len(t.Buttons) > 0 {
		lines = append(lines, "", "Buttons:")
		for i, btn := range t.Buttons {
			lines = append(lines, fmt.Sprintf("%d. %s", i+1, btn.ButtonText))
		}
	}
	return strings.Join(lines, "\n")
}

func formatGroupInvite(g *domain.GroupInviteMessageData) string {
	lines := []string{"👥 Group invite: " + g.GroupName}
	if g.Caption != "" {
		lines = append(lines, g.Caption)
	}
	return strings.Join(lines, "\n")
}

var (
	vcardWaidRe = regexp.MustCompile(`waid=(\d+)`)
	vcardTelRe  = regexp.MustCompile(`(?m)^TEL[^:]*:([^\r\n]+)`)
)

// extractPhoneFromVCard pulls a phone number out of a vCard payload. The
// WhatsApp id parameter wins over the formatted TEL value when present.
func extractPhoneFromVCard(vcard string) string {
	if m := vcardWaidRe.FindStringSubmatch(vcard); m != nil {
		return m[1]
	}
	if m := vcardTelRe.FindStringSubmatch(vcard); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}
