package model

import "time"

type Sort string

const (
	SortCreatedAtAsc  Sort = "created_at_asc"
	SortCreatedAtDesc Sort = "created_at_desc"
)

// Author is a snapshot of the commenter taken when the comment was written.
// It does not follow later profile changes.
type Author struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
	Verified bool   `json:"verified"`
}

// VerifiedProfessional reports whether the author gets the professional badge.
func (a Author) VerifiedProfessional() bool {
	return a.Role == RoleDoctor && a.Verified
}

type Comment struct {
	ID             int64          `json:"id"`
	PostID         int64          `json:"post_id"`
	ParentID       int64          `json:"parent_id,omitempty"`
	Author         Author         `json:"author"`
	Content        string         `json:"content"`
	CreatedAt      time.Time      `json:"created_at"`
	Reactions      ReactionCounts `json:"reactions"`
	ViewerReaction ReactionKind   `json:"viewer_reaction,omitempty"`
	Replies        []Comment      `json:"replies"`
}

func (c Comment) TopLevel() bool { return c.ParentID == 0 }

type TreePage struct {
	Items []Comment `json:"items"`
	Page  int       `json:"page"`
	Limit int       `json:"limit"`
	Total int       `json:"total"`
}
