package agent

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/riri324/ChatbotJob1/internal/llm"
	"github.com/riri324/ChatbotJob1/internal/store"
)

// Session owns the single conversation thread: the in-memory transcript, the
// mode flag, and the rules deciding which system prompt governs a turn. One
// session per process; the mutex serializes the whole load-apply-persist
// cycle so concurrent HTTP requests cannot lose updates.
type Session struct {
	store *store.Store
	gen   Generator

	genTimeout time.Duration

	mu    sync.Mutex
	state store.State
}

// NewSession loads persisted state and returns a ready session.
func NewSession(st *store.Store, gen Generator) *Session {
	return &Session{
		store:      st,
		gen:        gen,
		genTimeout: 20 * time.Second,
		state:      st.Load(),
	}
}

// Respond processes one user utterance and returns the assistant reply.
// Generation failure is never surfaced: the fixed apology is substituted so
// the conversation is never left without a reply.
func (s *Session) Respond(ctx context.Context, text string) (string, error) {
	trimmed := strings.TrimSpace(text)
	lower := strings.ToLower(trimmed)

	// Greeting check runs before command dispatch. The nudge is not part of
	// the dialogue the model should see later, so nothing is persisted.
	if _, ok := greetings[lower]; ok {
		return StartNudge, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch lower {
	case "/start":
		s.state.InterviewMode = true
		s.commit(trimmed, FirstQuestion)
		return FirstQuestion, nil
	case "/end":
		s.state.InterviewMode = false
		s.commit(trimmed, EndLine)
		return EndLine, nil
	}

	system := assistantPrompt
	if s.state.InterviewMode {
		system = interviewerPrompt
	}

	// The directive is recomputed from the current mode, not replayed from
	// history, so persisted system turns are filtered out.
	messages := make([]llm.Message, 0, len(s.state.Messages)+2)
	messages = append(messages, llm.Message{Role: "system", Content: system})
	for _, t := range s.state.Messages {
		if t.Role == "system" {
			continue
		}
		messages = append(messages, llm.Message{Role: t.Role, Content: t.Content})
	}
	messages = append(messages, llm.Message{Role: "user", Content: trimmed})

	genCtx, cancel := context.WithTimeout(ctx, s.genTimeout)
	defer cancel()
	reply, err := s.gen.Generate(genCtx, messages)
	if err != nil {
		log.Printf("agent: generation failed: %v", err)
		return Apology, nil
	}

	s.commit(trimmed, reply)
	return reply, nil
}

// commit appends a user/assistant turn pair and rewrites the persisted
// document. A write failure is logged and the in-memory state keeps going;
// the reply still reaches the user.
func (s *Session) commit(user, assistant string) {
	s.state.Messages = append(s.state.Messages,
		store.Turn{Role: "user", Content: user},
		store.Turn{Role: "assistant", Content: assistant},
	)
	if err := s.store.Save(s.state); err != nil {
		log.Printf("agent: persist transcript: %v", err)
	}
}

// Reset clears the transcript and returns to idle mode. The in-memory state
// is reset even when persistence fails.
func (s *Session) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, err := s.store.Reset()
	s.state = st
	return err
}

// Mode reports the active mode as a label for the status probe.
func (s *Session) Mode() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.InterviewMode {
		return "interview"
	}
	return "idle"
}

// TurnCount reports the number of persisted turns.
func (s *Session) TurnCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.state.Messages)
}
