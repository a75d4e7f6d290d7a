package domain

import "time"

// User is a livechat agent registered in a workspace, together with the
// personal access token the bridge uses to act on the agent's behalf.
type User struct {
	ID              int64
	WorkspaceID     int64
	Email           string
	RocketChatID    string
	RocketChatToken string
	CreatedAt       time.Time
}
