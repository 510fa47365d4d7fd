package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/MyNameIsWhaaat/peerthread/internal/comment/model"
)

// ToggleReaction applies kind for the viewer and returns the new aggregate.
// Posts live in another service, so only comment targets are checked.
func (s *forumService) ToggleReaction(ctx context.Context, viewerID string, ref model.EntityRef, kind model.ReactionKind) (model.ReactionState, error) {
	if !kind.Valid() || ref.ID <= 0 || strings.TrimSpace(viewerID) == "" {
		return model.ReactionState{}, ErrInvalidInput
	}

	switch ref.Kind {
	case model.EntityPost:
	case model.EntityComment:
		if _, err := s.repo.Get(ctx, ref.ID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return model.ReactionState{}, ErrNotFound
			}
			return model.ReactionState{}, fmt.Errorf("load comment %d: %w", ref.ID, err)
		}
	default:
		return model.ReactionState{}, ErrInvalidInput
	}

	st, err := s.reactions.Toggle(ctx, viewerID, ref, kind)
	if err != nil {
		return model.ReactionState{}, fmt.Errorf("toggle %s: %w", ref, err)
	}
	s.log.Debug("reaction toggled",
		zap.Stringer("entity", ref),
		zap.String("kind", string(kind)),
		zap.String("result", string(st.UserReaction)))
	return st, nil
}

// PostReaction returns the post's counts and the viewer's own reaction.
func (s *forumService) PostReaction(ctx context.Context, viewerID string, postID int64) (model.ReactionState, error) {
	if postID <= 0 || strings.TrimSpace(viewerID) == "" {
		return model.ReactionState{}, ErrInvalidInput
	}
	ref := model.PostRef(postID)
	states, err := s.reactions.States(ctx, viewerID, []model.EntityRef{ref})
	if err != nil {
		return model.ReactionState{}, fmt.Errorf("load reactions of %s: %w", ref, err)
	}
	return states[ref], nil
}
