package model

import "fmt"

type ReactionKind string

const (
	ReactionNone    ReactionKind = ""
	ReactionLike    ReactionKind = "like"
	ReactionDislike ReactionKind = "dislike"
)

// Valid reports whether k is a kind a viewer can request.
func (k ReactionKind) Valid() bool {
	return k == ReactionLike || k == ReactionDislike
}

type EntityKind string

const (
	EntityPost    EntityKind = "post"
	EntityComment EntityKind = "comment"
)

// EntityRef identifies anything that can be liked or disliked.
type EntityRef struct {
	Kind EntityKind
	ID   int64
}

func PostRef(id int64) EntityRef    { return EntityRef{Kind: EntityPost, ID: id} }
func CommentRef(id int64) EntityRef { return EntityRef{Kind: EntityComment, ID: id} }

func (r EntityRef) String() string {
	return fmt.Sprintf("%s:%d", r.Kind, r.ID)
}

type ReactionCounts struct {
	Likes    int64 `json:"likes"`
	Dislikes int64 `json:"dislikes"`
}

// ReactionState is what the server returns after a toggle.
type ReactionState struct {
	Likes        int64        `json:"likes"`
	Dislikes     int64        `json:"dislikes"`
	UserReaction ReactionKind `json:"user_reaction"`
}

func (s ReactionState) Counts() ReactionCounts {
	return ReactionCounts{Likes: s.Likes, Dislikes: s.Dislikes}
}

// NextReaction returns the viewer's reaction after requesting kind while
// holding current. Same kind clears, anything else replaces.
func NextReaction(current, kind ReactionKind) ReactionKind {
	if current == kind {
		return ReactionNone
	}
	return kind
}

// Toggle applies a viewer's request to an aggregate state. The viewer holds
// at most one reaction, so a switch moves one count across.
func (s ReactionState) Toggle(kind ReactionKind) ReactionState {
	next := NextReaction(s.UserReaction, kind)
	out := s
	out.adjust(s.UserReaction, -1)
	out.adjust(next, 1)
	out.UserReaction = next
	return out
}

func (s *ReactionState) adjust(k ReactionKind, delta int64) {
	switch k {
	case ReactionLike:
		s.Likes += delta
		if s.Likes < 0 {
			s.Likes = 0
		}
	case ReactionDislike:
		s.Dislikes += delta
		if s.Dislikes < 0 {
			s.Dislikes = 0
		}
	}
}
