package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/MyNameIsWhaaat/peerthread/internal/comment/model"
	"github.com/MyNameIsWhaaat/peerthread/internal/comment/storage"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
)

const (
	maxContentLen = 2000
	maxPageLimit  = 100
)

type forumService struct {
	repo      storage.Repository
	reactions storage.ReactionRepository
	unread    storage.UnreadCounter
	log       *zap.Logger
}

func New(repo storage.Repository, reactions storage.ReactionRepository, unread storage.UnreadCounter, log *zap.Logger) Forum {
	if log == nil {
		log = zap.NewNop()
	}
	return &forumService{repo: repo, reactions: reactions, unread: unread, log: log}
}

func (s *forumService) Create(ctx context.Context, author model.Viewer, postID, parentID int64, content string) (model.Comment, error) {
	content = strings.TrimSpace(content)
	if err := validateContent(content); err != nil {
		return model.Comment{}, err
	}
	if postID <= 0 || parentID < 0 || strings.TrimSpace(author.ID) == "" {
		return model.Comment{}, ErrInvalidInput
	}

	var parent model.Comment
	if parentID != 0 {
		p, err := s.repo.Get(ctx, parentID)
		if errors.Is(err, sql.ErrNoRows) {
			return model.Comment{}, ErrNotFound
		}
		if err != nil {
			return model.Comment{}, fmt.Errorf("load parent %d: %w", parentID, err)
		}
		if p.PostID != postID {
			return model.Comment{}, fmt.Errorf("%w: parent %d belongs to post %d", ErrInvalidInput, parentID, p.PostID)
		}
		parent = p
	}

	c, err := s.repo.Create(ctx, model.Comment{
		PostID:   postID,
		ParentID: parentID,
		Author:   author.Author(),
		Content:  content,
	})
	if err != nil {
		return model.Comment{}, fmt.Errorf("create comment: %w", err)
	}
	c.Replies = []model.Comment{}

	if parentID != 0 && parent.Author.ID != author.ID {
		if _, err := s.unread.Incr(ctx, parent.Author.ID); err != nil {
			s.log.Warn("unread increment failed",
				zap.String("viewer", parent.Author.ID),
				zap.Int64("comment_id", c.ID),
				zap.Error(err))
		}
	}

	s.log.Info("comment created",
		zap.Int64("comment_id", c.ID),
		zap.Int64("post_id", postID),
		zap.Int64("parent_id", parentID))
	return c, nil
}

func (s *forumService) GetTreePage(ctx context.Context, viewerID string, postID int64, page, limit int, sortMode model.Sort) (model.TreePage, error) {
	if postID <= 0 {
		return model.TreePage{}, ErrInvalidInput
	}
	if page <= 0 || limit <= 0 || limit > maxPageLimit {
		return model.TreePage{}, ErrInvalidInput
	}
	if sortMode == "" {
		sortMode = model.SortCreatedAtAsc
	}
	if sortMode != model.SortCreatedAtAsc && sortMode != model.SortCreatedAtDesc {
		return model.TreePage{}, ErrInvalidInput
	}

	tp, err := s.repo.GetTreePage(ctx, postID, page, limit, sortMode)
	if err != nil {
		return model.TreePage{}, fmt.Errorf("load tree page: %w", err)
	}

	var refs []model.EntityRef
	collectRefs(tp.Items, &refs)
	if len(refs) == 0 {
		return tp, nil
	}
	states, err := s.reactions.States(ctx, viewerID, refs)
	if err != nil {
		return model.TreePage{}, fmt.Errorf("load reactions: %w", err)
	}
	applyStates(tp.Items, states)
	return tp, nil
}

func collectRefs(items []model.Comment, refs *[]model.EntityRef) {
	for _, c := range items {
		*refs = append(*refs, model.CommentRef(c.ID))
		collectRefs(c.Replies, refs)
	}
}

func applyStates(items []model.Comment, states map[model.EntityRef]model.ReactionState) {
	for i := range items {
		st := states[model.CommentRef(items[i].ID)]
		items[i].Reactions = st.Counts()
		items[i].ViewerReaction = st.UserReaction
		applyStates(items[i].Replies, states)
	}
}

func validateContent(text string) error {
	if text == "" || utf8.RuneCountInString(text) > maxContentLen {
		return ErrInvalidInput
	}
	return nil
}
