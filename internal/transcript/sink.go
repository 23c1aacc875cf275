package transcript

import "sync"

// Roles attached to appended messages.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one line of the conversation transcript.
type Message struct {
	ID          string
	Role        string
	Content     string
	IsStreaming bool
}

// Sink receives transcript lines for display. Translated text arrives with
// a "[src → tgt] ..." direction marker prefix; that format is stable
// because the dispatcher reads it back to recognize its own output.
type Sink interface {
	Append(id, role, content string, isStreaming bool) error
}

// MemorySink accumulates messages in memory. It backs the local transcript
// view and doubles as the test sink.
type MemorySink struct {
	mu       sync.Mutex
	messages []Message
}

// NewMemorySink creates an empty in-memory sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

// Append records a message. Appending under an existing ID replaces that
// message's content, which is how streaming updates land.
func (s *MemorySink) Append(id, role, content string, isStreaming bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.messages {
		if s.messages[i].ID == id {
			s.messages[i].Content = content
			s.messages[i].IsStreaming = isStreaming
			return nil
		}
	}
	s.messages = append(s.messages, Message{
		ID:          id,
		Role:        role,
		Content:     content,
		IsStreaming: isStreaming,
	})
	return nil
}

// Messages returns a snapshot of the transcript.
func (s *MemorySink) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Len returns the number of transcript lines.
func (s *MemorySink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}
