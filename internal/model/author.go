package model

import (
	"time"
)

// PresenceState 用户在线状态
type PresenceState string

const (
	PresenceOnline  PresenceState = "online"
	PresenceAway    PresenceState = "away"
	PresenceOffline PresenceState = "offline"
)

// Author 用户只读投影，由身份子系统提供
type Author struct {
	ID            uint64        `json:"id"`
	DisplayName   string        `json:"display_name"`
	AvatarURL     string        `json:"avatar_url,omitempty"`
	Role          string        `json:"role,omitempty"`
	Department    string        `json:"department,omitempty"`
	Bio           string        `json:"bio,omitempty"`
	PresenceState PresenceState `json:"presence_state,omitempty"`
	LastSeenAt    *time.Time    `json:"last_seen_at,omitempty"`
}
