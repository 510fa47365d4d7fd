package inmemory

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/MyNameIsWhaaat/peerthread/internal/comment/model"
)

type Repo struct {
	mu sync.RWMutex

	nextID   int64
	byID     map[int64]model.Comment
	roots    map[int64][]int64
	children map[int64][]int64

	now func() time.Time
}

func New() *Repo {
	return &Repo{
		nextID:   1,
		byID:     make(map[int64]model.Comment),
		roots:    make(map[int64][]int64),
		children: make(map[int64][]int64),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (r *Repo) Get(ctx context.Context, id int64) (model.Comment, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byID[id]
	if !ok {
		return model.Comment{}, sql.ErrNoRows
	}
	return c, nil
}

func (r *Repo) Create(ctx context.Context, c model.Comment) (model.Comment, error) {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	c.ID = r.nextID
	c.CreatedAt = r.now()
	c.Replies = nil
	r.nextID++

	r.byID[c.ID] = c
	if c.ParentID == 0 {
		r.roots[c.PostID] = append(r.roots[c.PostID], c.ID)
	} else {
		r.children[c.ParentID] = append(r.children[c.ParentID], c.ID)
	}

	return c, nil
}

func (r *Repo) GetTreePage(ctx context.Context, postID int64, page, limit int, sortMode model.Sort) (model.TreePage, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	rootIDs := append([]int64(nil), r.roots[postID]...)
	total := len(rootIDs)
	r.sortLocked(rootIDs, sortMode)

	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}
	pageIDs := rootIDs[start:end]

	items := make([]model.Comment, 0, len(pageIDs))
	for _, id := range pageIDs {
		items = append(items, r.buildNodeLocked(id))
	}

	return model.TreePage{
		Items: items,
		Page:  page,
		Limit: limit,
		Total: total,
	}, nil
}

func (r *Repo) buildNodeLocked(id int64) model.Comment {
	c := r.byID[id]
	childIDs := append([]int64(nil), r.children[id]...)
	r.sortLocked(childIDs, model.SortCreatedAtAsc)

	c.Replies = make([]model.Comment, 0, len(childIDs))
	for _, cid := range childIDs {
		c.Replies = append(c.Replies, r.buildNodeLocked(cid))
	}
	return c
}

func (r *Repo) sortLocked(ids []int64, sortMode model.Sort) {
	sort.SliceStable(ids, func(i, j int) bool {
		a, b := r.byID[ids[i]], r.byID[ids[j]]
		if a.CreatedAt.Equal(b.CreatedAt) {
			if sortMode == model.SortCreatedAtDesc {
				return a.ID > b.ID
			}
			return a.ID < b.ID
		}
		if sortMode == model.SortCreatedAtDesc {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
}
