package storage

import (
	"context"

	"github.com/MyNameIsWhaaat/peerthread/internal/comment/model"
)

// Repository stores comments. Get returns sql.ErrNoRows for unknown ids.
type Repository interface {
	Create(ctx context.Context, c model.Comment) (model.Comment, error)
	Get(ctx context.Context, id int64) (model.Comment, error)
	GetTreePage(ctx context.Context, postID int64, page, limit int, sort model.Sort) (model.TreePage, error)
}

// ReactionRepository keeps at most one reaction per viewer per entity.
type ReactionRepository interface {
	Toggle(ctx context.Context, viewerID string, ref model.EntityRef, kind model.ReactionKind) (model.ReactionState, error)
	States(ctx context.Context, viewerID string, refs []model.EntityRef) (map[model.EntityRef]model.ReactionState, error)
}

// UnreadCounter counts unread notifications per viewer.
type UnreadCounter interface {
	Incr(ctx context.Context, viewerID string) (int64, error)
	Count(ctx context.Context, viewerID string) (int64, error)
	Reset(ctx context.Context, viewerID string) error
}
