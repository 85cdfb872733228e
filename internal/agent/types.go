package agent

import (
	"context"

	"github.com/riri324/ChatbotJob1/internal/llm"
)

// Generator produces an assistant reply for a full message list.
type Generator interface {
	Generate(ctx context.Context, messages []llm.Message) (string, error)
}

// Fixed replies emitted without calling the generator.
const (
	// FirstQuestion opens the interview after /start.
	FirstQuestion = "Can you introduce yourself?"
	// EndLine acknowledges /end.
	EndLine = "Interview ended. How else can I help you?"
	// StartNudge is returned for bare greetings instead of a generated reply.
	StartNudge = "Hi! Send /start when you're ready to begin the interview."
	// Apology substitutes for the assistant reply when generation fails.
	Apology = "I'm sorry, there was an error processing your request. Please try again."
)

const interviewerPrompt = "You are Greg, an AI technical interviewer for a software engineering job. " +
	"Do not introduce yourself. Do not say 'Nice to meet you'. " +
	"Start the interview immediately. Ask only one technical interview question at a time. " +
	"Never say general compliments. Stay strictly in the role of an interviewer. " +
	"Keep your questions short and focused. Wait for the user's answer, then continue with the next question."

const assistantPrompt = "You are a helpful, friendly AI assistant. You can answer questions, help with tasks, and chat about anything."

// greetings short-circuit generation entirely; checked before control
// commands, so a literal greeting never starts the interview.
var greetings = map[string]struct{}{
	"hello": {},
	"hi":    {},
	"hey":   {},
}
