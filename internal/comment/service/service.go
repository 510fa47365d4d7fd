package service

import (
	"context"

	"github.com/MyNameIsWhaaat/peerthread/internal/comment/model"
)

type CommentService interface {
	Create(ctx context.Context, author model.Viewer, postID, parentID int64, content string) (model.Comment, error)
	GetTreePage(ctx context.Context, viewerID string, postID int64, page, limit int, sort model.Sort) (model.TreePage, error)
}

type ReactionService interface {
	ToggleReaction(ctx context.Context, viewerID string, ref model.EntityRef, kind model.ReactionKind) (model.ReactionState, error)
	PostReaction(ctx context.Context, viewerID string, postID int64) (model.ReactionState, error)
}

type NotificationService interface {
	UnreadCount(ctx context.Context, viewerID string) (int64, error)
	MarkRead(ctx context.Context, viewerID string) error
}

// Forum is everything the HTTP layer needs.
type Forum interface {
	CommentService
	ReactionService
	NotificationService
}
