package service

import (
	"context"
	"fmt"
	"strings"
)

func (s *forumService) UnreadCount(ctx context.Context, viewerID string) (int64, error) {
	if strings.TrimSpace(viewerID) == "" {
		return 0, ErrInvalidInput
	}
	n, err := s.unread.Count(ctx, viewerID)
	if err != nil {
		return 0, fmt.Errorf("unread count: %w", err)
	}
	return n, nil
}

func (s *forumService) MarkRead(ctx context.Context, viewerID string) error {
	if strings.TrimSpace(viewerID) == "" {
		return ErrInvalidInput
	}
	if err := s.unread.Reset(ctx, viewerID); err != nil {
		return fmt.Errorf("reset unread: %w", err)
	}
	return nil
}
