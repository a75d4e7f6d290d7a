package domain

import "time"

// RoomMapping routes a livechat room back to the instance that provisioned
// it. Keyed by (RoomID, UserID); the first writer wins.
type RoomMapping struct {
	RoomID     string
	UserID     int64
	InstanceID int64
	CreatedAt  time.Time
}
