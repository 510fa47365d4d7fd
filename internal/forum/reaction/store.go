// Package reaction tracks the viewer's like/dislike state per entity and
// runs the toggle protocol against the backend.
package reaction

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/MyNameIsWhaaat/peerthread/internal/comment/model"
)

var (
	ErrNoViewer    = errors.New("reaction: no viewer identity")
	ErrInFlight    = errors.New("reaction: toggle already in flight")
	ErrInvalidKind = errors.New("reaction: invalid kind")
)

// IsGuard reports whether err is a rejected precondition rather than a
// failure worth showing.
func IsGuard(err error) bool {
	return errors.Is(err, ErrNoViewer) || errors.Is(err, ErrInFlight)
}

type Backend interface {
	ToggleReaction(ctx context.Context, ref model.EntityRef, kind model.ReactionKind) (model.ReactionState, error)
}

type entry struct {
	state    model.ReactionState
	inFlight bool
}

type Store struct {
	backend Backend
	log     *zap.Logger

	mu      sync.Mutex
	entries map[model.EntityRef]*entry
}

func NewStore(backend Backend, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{
		backend: backend,
		log:     log,
		entries: make(map[model.EntityRef]*entry),
	}
}

// Seed records server-provided state. It does not override an entity with a
// toggle in flight.
func (s *Store) Seed(ref model.EntityRef, st model.ReactionState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.entryLocked(ref)
	if e.inFlight {
		return
	}
	e.state = st
}

func (s *Store) State(ref model.EntityRef) model.ReactionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[ref]; ok {
		return e.state
	}
	return model.ReactionState{}
}

func (s *Store) InFlight(ref model.EntityRef) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[ref]
	return ok && e.inFlight
}

// Disabled is the predicate for the reaction buttons of ref.
func (s *Store) Disabled(ref model.EntityRef, viewer *model.Viewer) bool {
	return viewer == nil || viewer.ID == "" || s.InFlight(ref)
}

// Toggle asks the backend to apply kind for viewer and adopts the returned
// state. Counts never move before the response; on failure they stay as
// they were.
func (s *Store) Toggle(ctx context.Context, ref model.EntityRef, viewer *model.Viewer, kind model.ReactionKind) (model.ReactionState, error) {
	if !kind.Valid() {
		return s.State(ref), ErrInvalidKind
	}
	if viewer == nil || viewer.ID == "" {
		return s.State(ref), ErrNoViewer
	}

	s.mu.Lock()
	e := s.entryLocked(ref)
	if e.inFlight {
		st := e.state
		s.mu.Unlock()
		return st, ErrInFlight
	}
	e.inFlight = true
	s.mu.Unlock()

	st, err := s.backend.ToggleReaction(ctx, ref, kind)

	s.mu.Lock()
	defer s.mu.Unlock()
	e.inFlight = false
	if err != nil {
		s.log.Warn("reaction toggle failed",
			zap.Stringer("entity", ref),
			zap.String("kind", string(kind)),
			zap.Error(err))
		return e.state, fmt.Errorf("toggle %s on %s: %w", kind, ref, err)
	}
	e.state = st
	return st, nil
}

func (s *Store) entryLocked(ref model.EntityRef) *entry {
	e, ok := s.entries[ref]
	if !ok {
		e = &entry{}
		s.entries[ref] = e
	}
	return e
}
