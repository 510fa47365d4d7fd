// Package api is the client of the forum REST service.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/MyNameIsWhaaat/peerthread/internal/comment/model"
)

const (
	defaultPageLimit = 100
	defaultTimeout   = 15 * time.Second
)

// Error is a non-2xx answer from the service.
type Error struct {
	Status    int
	Message   string
	RequestID string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api: %d %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("api: %d %s", e.Status, e.Message)
}

// IsStatus reports whether err is an *Error with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status == status
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

func WithLogger(log *zap.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// WithPageLimit sets how many top-level comments FetchComments asks for
// per request.
func WithPageLimit(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.pageLimit = n
		}
	}
}

type Client struct {
	base      *url.URL
	token     string
	http      *http.Client
	log       *zap.Logger
	pageLimit int
}

func New(baseURL, token string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", baseURL)
	}
	c := &Client{
		base:      u,
		token:     token,
		http:      &http.Client{Timeout: defaultTimeout},
		log:       zap.NewNop(),
		pageLimit: defaultPageLimit,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) FetchViewer(ctx context.Context) (model.Viewer, error) {
	var v model.Viewer
	err := c.do(ctx, http.MethodGet, "/me", nil, nil, &v)
	return v, err
}

// FetchComments returns every top-level comment of the post with its
// replies, following the service's pagination.
func (c *Client) FetchComments(ctx context.Context, postID int64) ([]model.Comment, error) {
	all := []model.Comment{}
	for page := 1; ; page++ {
		q := url.Values{}
		q.Set("page", strconv.Itoa(page))
		q.Set("limit", strconv.Itoa(c.pageLimit))

		var tp model.TreePage
		if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/posts/%d/comments", postID), q, nil, &tp); err != nil {
			return nil, err
		}
		all = append(all, tp.Items...)
		if len(tp.Items) == 0 || len(all) >= tp.Total {
			return all, nil
		}
	}
}

type createCommentRequest struct {
	ParentID int64  `json:"parent_id,omitempty"`
	Content  string `json:"content"`
}

// FetchPostReaction returns the post's counts and the viewer's own reaction.
func (c *Client) FetchPostReaction(ctx context.Context, postID int64) (model.ReactionState, error) {
	var st model.ReactionState
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/posts/%d/reactions", postID), nil, nil, &st)
	return st, err
}

func (c *Client) CreateComment(ctx context.Context, postID, parentID int64, content string) (model.Comment, error) {
	var out model.Comment
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("/posts/%d/comments", postID), nil,
		createCommentRequest{ParentID: parentID, Content: content}, &out)
	return out, err
}

func (c *Client) ToggleReaction(ctx context.Context, ref model.EntityRef, kind model.ReactionKind) (model.ReactionState, error) {
	var path string
	switch ref.Kind {
	case model.EntityPost:
		path = fmt.Sprintf("/posts/%d/reactions", ref.ID)
	case model.EntityComment:
		path = fmt.Sprintf("/comments/%d/reactions", ref.ID)
	default:
		return model.ReactionState{}, fmt.Errorf("unknown entity kind %q", ref.Kind)
	}
	var st model.ReactionState
	err := c.do(ctx, http.MethodPost, path, nil, map[string]model.ReactionKind{"kind": kind}, &st)
	return st, err
}

func (c *Client) UnreadCount(ctx context.Context) (int64, error) {
	var n model.UnreadCount
	err := c.do(ctx, http.MethodGet, "/notifications/unread-count", nil, nil, &n)
	return n.Count, err
}

func (c *Client) MarkNotificationsRead(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/notifications/read", nil, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/") + path
	u.RawQuery = query.Encode()

	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return err
	}
	reqID := uuid.NewString()
	req.Header.Set("X-Request-ID", reqID)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	res, err := c.http.Do(req)
	if err != nil {
		c.log.Debug("request failed", zap.String("request_id", reqID), zap.String("method", method), zap.String("path", path), zap.Error(err))
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		apiErr := &Error{Status: res.StatusCode, RequestID: reqID}
		var payload struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(io.LimitReader(res.Body, 1<<16)).Decode(&payload); err == nil {
			apiErr.Message = payload.Error
		}
		c.log.Debug("request rejected", zap.String("request_id", reqID), zap.String("method", method),
			zap.String("path", path), zap.Int("status", res.StatusCode), zap.String("error", apiErr.Message))
		return apiErr
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, res.Body)
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}
