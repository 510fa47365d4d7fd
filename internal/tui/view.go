package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/MyNameIsWhaaat/peerthread/internal/comment/model"
	"github.com/MyNameIsWhaaat/peerthread/internal/forum/thread"
)

const helpText = "j/k move · enter expand · r reply · c comment · l/d react · L/D react to post · / search · R refresh · n mark read · q quit"

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	var s strings.Builder

	post := m.ctrl.PostReaction()
	header := fmt.Sprintf("post #%d · %d comments · %s", m.ctrl.PostID(), m.ctrl.CommentCount(), reactions(post))
	s.WriteString(captionStyle.Render(header))
	if m.unread > 0 {
		s.WriteString("  ")
		s.WriteString(badgeStyle.Render(fmt.Sprintf("● %d unread", m.unread)))
	}
	if m.ctrl.Viewer() == nil {
		s.WriteString("  ")
		s.WriteString(emptyStyle.Render("read-only: no viewer identity"))
	}
	s.WriteString("\n\n")

	if len(m.rows) == 0 {
		s.WriteString(emptyStyle.Render("No comments yet. Press c to start the conversation."))
		s.WriteString("\n")
	}
	for i, row := range m.rows {
		s.WriteString(m.renderRow(row, i == m.selected))
	}

	if m.mode == modeComment || m.mode == modeSearch {
		s.WriteString("\n")
		s.WriteString(m.input.View())
		s.WriteString("\n")
	}
	if m.status != "" {
		s.WriteString("\n")
		s.WriteString(errorStyle.Render(m.status))
		s.WriteString("\n")
	}
	s.WriteString("\n")
	s.WriteString(helpStyle.Render(helpText))
	return s.String()
}

func reactions(st model.ReactionState) string {
	likes := fmt.Sprintf("▲ %d", st.Likes)
	dislikes := fmt.Sprintf("▼ %d", st.Dislikes)
	switch st.UserReaction {
	case model.ReactionLike:
		likes = reactedStyle.Render(likes)
	case model.ReactionDislike:
		dislikes = reactedStyle.Render(dislikes)
	}
	return likes + " " + dislikes
}

func (m Model) renderRow(row thread.Row, selected bool) string {
	indent := strings.Repeat(indentUnit, row.Indent)
	var b strings.Builder

	head := authorStyle.Render(row.Author.Username)
	if row.Badge {
		head += " " + badgeStyle.Render("✔ verified professional")
	}
	head += " " + timeStyle.Render(row.CreatedAt.Local().Format("2006-01-02 15:04"))

	meta := reactions(row.Reaction)
	if row.ReplyCount > 0 {
		marker := "+"
		if row.Expanded {
			marker = "-"
		}
		meta += fmt.Sprintf("  [%s] %d %s", marker, row.ReplyCount, plural(row.ReplyCount, "reply", "replies"))
	}
	switch row.Phase {
	case thread.PhaseSubmitting:
		meta += "  sending…"
	case thread.PhaseError:
		meta += "  " + errorStyle.Render("reply failed, r to retry")
	}

	lines := []string{head, row.Content, metaStyle.Render(meta)}
	if row.Phase.FormOpen() {
		if m.mode == modeReply && m.target == row.ID {
			lines = append(lines, m.input.View())
		} else if row.Draft != "" {
			lines = append(lines, metaStyle.Render("draft: "+row.Draft))
		}
	}

	block := lipgloss.JoinVertical(lipgloss.Left, lines...)
	if selected {
		block = selectedStyle.Render(block)
	}
	for _, line := range strings.Split(block, "\n") {
		b.WriteString(indent)
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
