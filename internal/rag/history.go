package rag

import (
	"fmt"
	"strings"

	"github.com/akolanti/SecoursTech/internal/domain/chatModel"
	"github.com/akolanti/SecoursTech/internal/rag/llm"
)

const (
	TranscriptWindow = 6
	TurnWindow       = 10

	emptyTranscript = "Aucun historique (Nouvelle conversation)."
)

// Transcript renders the last TranscriptWindow messages as quoted lines for
// the router prompt.
func Transcript(msgs []chatModel.Message) string {
	recent := lastN(chatModel.WithoutNotices(msgs), TranscriptWindow)
	if len(recent) == 0 {
		return emptyTranscript
	}
	lines := make([]string, 0, len(recent))
	for _, m := range recent {
		speaker := "Assistant"
		if m.Role == chatModel.RoleUser {
			speaker = "User"
		}
		lines = append(lines, fmt.Sprintf("%s: \"%s\"", speaker, m.Content))
	}
	return strings.Join(lines, "\n")
}

// Turns returns the last TurnWindow messages in structured form.
func Turns(msgs []chatModel.Message) []llm.Turn {
	recent := lastN(chatModel.WithoutNotices(msgs), TurnWindow)
	turns := make([]llm.Turn, 0, len(recent))
	for _, m := range recent {
		role := llm.RoleModel
		if m.Role == chatModel.RoleUser {
			role = llm.RoleUser
		}
		turns = append(turns, llm.Turn{Role: role, Text: m.Content})
	}
	return turns
}

func lastN(msgs []chatModel.Message, n int) []chatModel.Message {
	if len(msgs) <= n {
		return msgs
	}
	return msgs[len(msgs)-n:]
}
