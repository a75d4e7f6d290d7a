package domain

// Rocket.Chat livechat webhook payload (omnichannel "agent message" event)
// and command envelope. Field names follow Rocket.Chat's JSON schema.

// RocketChatWebhook is the livechat message-sent webhook body.
type RocketChatWebhook struct {
	ID            string             `json:"_id"`
	Label         string             `json:"label"`
	CreatedAt     string             `json:"createdAt"`
	LastMessageAt string             `json:"lastMessageAt"`
	Visitor       RocketChatVisitor  `json:"visitor"`
	Agent         RocketChatAgent    `json:"agent"`
	Type          string             `json:"type"`
	Messages      []RocketChatMessage `json:"messages"`
}

// RocketChatVisitor is the external conversation participant.
type RocketChatVisitor struct {
	ID       string `json:"_id"`
	Token    string `json:"token"`
	Name     string `json:"name"`
	Username string `json:"username"`
	Phone    []struct {
		PhoneNumber string `json:"phoneNumber"`
	} `json:"phone"`
}

// RocketChatAgent is the livechat agent attributed to the webhook.
type RocketChatAgent struct {
	ID       string `json:"_id"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Email    string `json:"email"`
}

// RocketChatMessage is one message record inside the webhook.
type RocketChatMessage struct {
	U struct {
		ID       string `json:"_id"`
		Username string `json:"username"`
		Name     string `json:"name"`
	} `json:"u"`
	ID         string                 `json:"_id"`
	Username   string                 `json:"username"`
	Msg        string                 `json:"msg"`
	Ts         string                 `json:"ts"`
	Rid        string                 `json:"rid"`
	AgentID    string                 `json:"agentId"`
	File       *RocketChatFile        `json:"file,omitempty"`
	FileUpload *RocketChatFileUpload  `json:"fileUpload,omitempty"`
	Attachments []RocketChatAttachment `json:"attachments,omitempty"`
}

// RocketChatFile is the file metadata of an uploaded message.
type RocketChatFile struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
	Type string `json:"type"`
	Size int64  `json:"size"`
}

// RocketChatFileUpload carries the public download path of an upload.
type RocketChatFileUpload struct {
	PublicFilePath string `json:"publicFilePath"`
	Type           string `json:"type"`
	Size           int64  `json:"size"`
}

// RocketChatAttachment is one attachment entry; Title doubles as the quote
// correlation channel ("...:greenapi:<id>").
type RocketChatAttachment struct {
	Type        string `json:"type,omitempty"`
	Description string `json:"description,omitempty"`
	Title       string `json:"title,omitempty"`
	TitleLink   string `json:"title_link,omitempty"`
}

// Command type discriminants.
const (
	CmdRegisterWorkspace = "register-workspace"
	CmdRegisterAgent     = "register-agent"
	CmdUpdateToken       = "update-token"
	CmdCreateInstance    = "create-instance"
	CmdRemoveInstance    = "remove-instance"
	CmdSyncAppURL        = "sync-app-url"
	CmdListInstances     = "list-instances"
	CmdListUsers         = "list-users"
)

// Role markers asserted by the slash-command front end on every command.
const (
	RoleLivechatAgent = "livechat-agent"
	RoleAdmin         = "admin"
)

// Command is the flat envelope of every slash-command request. The front end
// fills only the fields relevant for the command type; Roles is the caller's
// asserted role set and is never persisted.
type Command struct {
	Type             string   `json:"type"`
	Email            string   `json:"email"`
	RocketChatURL    string   `json:"rocketChatUrl"`
	RocketChatID     string   `json:"rocketChatId"`
	RocketChatToken  string   `json:"rocketChatToken"`
	CommandToken     string   `json:"commandToken"`
	IDInstance       int64    `json:"idInstance,string,omitempty"`
	APITokenInstance string   `json:"apiTokenInstance,omitempty"`
	AppURL           string   `json:"appUrl,omitempty"`
	Roles            []string `json:"roles,omitempty"`
}

// HasRole reports whether the asserted role set contains role.
func (c *Command) HasRole(role string) bool {
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}
