package domain

// GREEN-API webhook payloads. Field names follow the platform's JSON schema;
// only the events and message subtypes the bridge handles are modeled, the
// rest fall through to the normalizer's placeholder policy.

// Webhook type discriminants.
const (
	WebhookIncomingMessage = "incomingMessageReceived"
	WebhookStateInstance   = "stateInstanceChanged"
)

// Message type discriminants.
const (
	TypeTextMessage          = "textMessage"
	TypeExtendedTextMessage  = "extendedTextMessage"
	TypeLocationMessage      = "locationMessage"
	TypeContactMessage       = "contactMessage"
	TypeContactsArrayMessage = "contactsArrayMessage"
	TypePollMessage          = "pollMessage"
	TypeButtonsMessage       = "buttonsMessage"
	TypeListMessage          = "listMessage"
	TypeTemplateMessage      = "templateMessage"
	TypeGroupInviteMessage   = "groupInviteMessage"
	TypeEditedMessage        = "editedMessage"
	TypeDeletedMessage       = "deletedMessage"
	TypeImageMessage         = "imageMessage"
	TypeVideoMessage         = "videoMessage"
	TypeDocumentMessage      = "documentMessage"
	TypeAudioMessage         = "audioMessage"
	TypeStickerMessage       = "stickerMessage"
)

// GreenAPIWebhook is an inbound GREEN-API event.
type GreenAPIWebhook struct {
	TypeWebhook   string       `json:"typeWebhook"`
	InstanceData  InstanceData `json:"instanceData"`
	Timestamp     int64        `json:"timestamp"`
	IDMessage     string       `json:"idMessage,omitempty"`
	SenderData    SenderData   `json:"senderData,omitempty"`
	MessageData   MessageData  `json:"messageData,omitempty"`
	StateInstance string       `json:"stateInstance,omitempty"`
}

// InstanceData identifies the GREEN-API instance that produced an event.
type InstanceData struct {
	IDInstance   int64  `json:"idInstance"`
	Wid          string `json:"wid"`
	TypeInstance string `json:"typeInstance,omitempty"`
}

// SenderData identifies the WhatsApp-side sender of a message event.
type SenderData struct {
	ChatID     string `json:"chatId"`
	Sender     string `json:"sender"`
	ChatName   string `json:"chatName"`
	SenderName string `json:"senderName"`
}

// MessageData is the per-subtype payload union of a message event.
type MessageData struct {
	TypeMessage string `json:"typeMessage"`

	TextMessageData          *TextMessageData          `json:"textMessageData,omitempty"`
	ExtendedTextMessageData  *ExtendedTextMessageData  `json:"extendedTextMessageData,omitempty"`
	LocationMessageData      *LocationMessageData      `json:"locationMessageData,omitempty"`
	ContactMessageData       *ContactMessageData       `json:"contactMessageData,omitempty"`
	ContactsArrayMessageData *ContactsArrayMessageData `json:"contactsArrayMessageData,omitempty"`
	PollMessageData          *PollMessageData          `json:"pollMessageData,omitempty"`
	ButtonsMessageData       *ButtonsMessageData       `json:"buttonsMessage,omitempty"`
	ListMessageData          *ListMessageData          `json:"listMessage,omitempty"`
	TemplateMessageData      *TemplateMessageData      `json:"templateMessage,omitempty"`
	GroupInviteMessageData   *GroupInviteMessageData   `json:"groupInviteMessageData,omitempty"`
	EditedMessageData        *EditedMessageData        `json:"editedMessageData,omitempty"`
	DeletedMessageData       *DeletedMessageData       `json:"deletedMessageData,omitempty"`
	FileMessageData          *FileMessageData          `json:"fileMessageData,omitempty"`

	QuotedMessage *QuotedMessage `json:"quotedMessage,omitempty"`
}

// TextMessageData is a plain text message.
type TextMessageData struct {
	TextMessage string `json:"textMessage"`
}

// ExtendedTextMessageData is a text message with link preview metadata.
type ExtendedTextMessageData struct {
	Text        string `json:"text"`
	Description string `json:"description,omitempty"`
	Title       string `json:"title,omitempty"`
}

// LocationMessageData is a shared location.
type LocationMessageData struct {
	NameLocation string  `json:"nameLocation"`
	Address      string  `json:"address"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
}

// ContactMessageData is a single shared contact card.
type ContactMessageData struct {
	DisplayName string `json:"displayName"`
	Vcard       string `json:"vcard"`
}

// ContactsArrayMessageData is a batch of shared contact cards.
type ContactsArrayMessageData struct {
	Contacts []ContactMessageData `json:"contacts"`
}

// PollMessageData is a poll.
type PollMessageData struct {
	Name            string       `json:"name"`
	Options         []PollOption `json:"options"`
	MultipleAnswers bool         `json:"multipleAnswers"`
}

// PollOption is one answer option of a poll.
type PollOption struct {
	OptionName string `json:"optionName"`
}

// ButtonsMessageData is an interactive buttons message.
type ButtonsMessageData struct {
	ContentText string          `json:"contentText"`
	Buttons     []MessageButton `json:"buttons"`
	Footer      string          `json:"footer,omitempty"`
}

// MessageButton is one button of a buttons or template message.
type MessageButton struct {
	ButtonID   string `json:"buttonId,omitempty"`
	ButtonText string `json:"buttonText"`
}

// ListMessageData is an interactive list message.
type ListMessageData struct {
	Title       string        `json:"title"`
	Description string        `json:"description,omitempty"`
	ButtonText  string        `json:"buttonText,omitempty"`
	Sections    []ListSection `json:"sections"`
}

// ListSection is one section of a list message.
type ListSection struct {
	Title string    `json:"title"`
	Rows  []ListRow `json:"rows"`
}

// ListRow is one row of a list section.
type ListRow struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	RowID       string `json:"rowId,omitempty"`
}

// TemplateMessageData is a template message.
type TemplateMessageData struct {
	Content string          `json:"content"`
	Buttons []MessageButton `json:"buttons,omitempty"`
	Footer  string          `json:"footer,omitempty"`
}

// GroupInviteMessageData is a group invitation.
type GroupInviteMessageData struct {
	GroupName  string `json:"groupName"`
	Caption    string `json:"caption,omitempty"`
	InviteCode string `json:"inviteCode,omitempty"`
}

// EditedMessageData carries the new body of an edited message.
type EditedMessageData struct {
	TextMessage string `json:"textMessage"`
	IDMessage   string `json:"idMessage"`
}

// DeletedMessageData references a deleted message.
type DeletedMessageData struct {
	IDMessage string `json:"idMessage"`
}

// FileMessageData is the payload of every media subtype.
type FileMessageData struct {
	DownloadURL string `json:"downloadUrl"`
	FileName    string `json:"fileName"`
	Caption     string `json:"caption,omitempty"`
	MimeType    string `json:"mimeType"`
}

// QuotedMessage is a reference to the message being replied to. The payload
// mirrors MessageData for the quoted subtype.
type QuotedMessage struct {
	StanzaID    string `json:"stanzaId"`
	Participant string `json:"participant"`
	TypeMessage string `json:"typeMessage"`

	TextMessage string `json:"textMessage,omitempty"`

	LocationMessageData      *LocationMessageData      `json:"locationMessageData,omitempty"`
	ContactMessageData       *ContactMessageData       `json:"contactMessageData,omitempty"`
	ContactsArrayMessageData *ContactsArrayMessageData `json:"contactsArrayMessageData,omitempty"`
	PollMessageData          *PollMessageData          `json:"pollMessageData,omitempty"`
	FileMessageData          *FileMessageData          `json:"fileMessageData,omitempty"`
}

// WaSettings is the live settings snapshot fetched from GREEN-API when an
// instance is created.
type WaSettings struct {
	Phone         string `json:"phone"`
	StateInstance string `json:"stateInstance"`
}
