package httpdto

import "time"

// PresenceDTO is returned by GET /users/:id/presence
type PresenceDTO struct {
	UserID   string    `json:"user_id"`
	IsOnline bool      `json:"is_online"`
	LastSeen time.Time `json:"last_seen"`
}
