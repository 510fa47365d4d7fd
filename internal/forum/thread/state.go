package thread

import "errors"

// Phase is the reply-form state of one comment.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseComposing
	PhaseSubmitting
	PhaseError
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseComposing:
		return "composing"
	case PhaseSubmitting:
		return "submitting"
	case PhaseError:
		return "error"
	default:
		return "unknown"
	}
}

// FormOpen reports whether the reply form is visible in this phase.
func (p Phase) FormOpen() bool { return p != PhaseIdle }

var (
	ErrEmptyDraft     = errors.New("thread: reply text is empty")
	ErrNotComposing   = errors.New("thread: reply form is not open")
	ErrSubmitting     = errors.New("thread: reply already submitting")
	ErrUnknownComment = errors.New("thread: comment not in tree")
	ErrClosed         = errors.New("thread: controller closed")
)

type nodeState struct {
	phase    Phase
	draft    string
	expanded bool
	err      error
	// attempt changes whenever the form is reset, so a late response can
	// tell that the user moved on.
	attempt uint64
}

func (s *nodeState) reset() {
	s.phase = PhaseIdle
	s.draft = ""
	s.err = nil
	s.attempt++
}
