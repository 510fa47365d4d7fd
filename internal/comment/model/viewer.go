package model

type Role string

const (
	RoleMember    Role = "member"
	RoleDoctor    Role = "doctor"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

// Viewer is the authenticated user looking at a thread.
type Viewer struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
	Verified bool   `json:"verified"`
}

// Author returns the snapshot stored on comments the viewer writes.
func (v Viewer) Author() Author {
	return Author{ID: v.ID, Username: v.Username, Role: v.Role, Verified: v.Verified}
}

type UnreadCount struct {
	Count int64 `json:"count"`
}
