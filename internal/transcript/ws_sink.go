package transcript

import (
	"fmt"
	"sync"

	"github.com/gorilla/websocket"
)

// wsMessage is the wire form pushed to the UI.
type wsMessage struct {
	Type        string `json:"type"`
	ID          string `json:"id"`
	Role        string `json:"role"`
	Content     string `json:"content"`
	IsStreaming bool   `json:"is_streaming"`
}

// WSSink pushes transcript lines over a WebSocket connection to the
// browser UI. Writes are serialized because gorilla/websocket allows only
// one concurrent writer.
type WSSink struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

// NewWSSink wraps an established WebSocket connection.
func NewWSSink(conn *websocket.Conn) *WSSink {
	return &WSSink{conn: conn}
}

// Append sends one transcript line to the UI.
func (s *WSSink) Append(id, role, content string, isStreaming bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg := wsMessage{
		Type:        "transcript.append",
		ID:          id,
		Role:        role,
		Content:     content,
		IsStreaming: isStreaming,
	}
	if err := s.conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("failed to push transcript message: %w", err)
	}
	return nil
}
