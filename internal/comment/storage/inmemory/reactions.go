package inmemory

import (
	"context"
	"sync"

	"github.com/MyNameIsWhaaat/peerthread/internal/comment/model"
)

type Reactions struct {
	mu    sync.Mutex
	byRef map[model.EntityRef]map[string]model.ReactionKind
}

func NewReactions() *Reactions {
	return &Reactions{byRef: make(map[model.EntityRef]map[string]model.ReactionKind)}
}

func (r *Reactions) Toggle(ctx context.Context, viewerID string, ref model.EntityRef, kind model.ReactionKind) (model.ReactionState, error) {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	viewers := r.byRef[ref]
	if viewers == nil {
		viewers = make(map[string]model.ReactionKind)
		r.byRef[ref] = viewers
	}

	next := model.NextReaction(viewers[viewerID], kind)
	if next == model.ReactionNone {
		delete(viewers, viewerID)
	} else {
		viewers[viewerID] = next
	}

	return r.stateLocked(viewerID, ref), nil
}

func (r *Reactions) States(ctx context.Context, viewerID string, refs []model.EntityRef) (map[model.EntityRef]model.ReactionState, error) {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	out := make(map[model.EntityRef]model.ReactionState, len(refs))
	for _, ref := range refs {
		out[ref] = r.stateLocked(viewerID, ref)
	}
	return out, nil
}

func (r *Reactions) stateLocked(viewerID string, ref model.EntityRef) model.ReactionState {
	var st model.ReactionState
	for id, k := range r.byRef[ref] {
		switch k {
		case model.ReactionLike:
			st.Likes++
		case model.ReactionDislike:
			st.Dislikes++
		}
		if id == viewerID {
			st.UserReaction = k
		}
	}
	return st
}
