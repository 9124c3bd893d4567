// Package content holds the adapters for the content-management
// collaborator that stores accepted messages.
package content

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/caracol-studio/formgate/core"
	"github.com/caracol-studio/formgate/ports"
)

// Memory keeps accepted messages in process. Used by the tests and by
// standalone mode, where no CMS is wired in.
type Memory struct {
	mu       sync.Mutex
	messages []core.CreatedMessage
}

var _ ports.ContentStore = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) CreateMessage(_ context.Context, fields map[string]any) (*core.CreatedMessage, error) {
	created := core.CreatedMessage{
		ID:         uuid.New().String(),
		Attributes: fields,
	}

	m.mu.Lock()
	m.messages = append(m.messages, created)
	m.mu.Unlock()

	return &created, nil
}

// Messages returns a snapshot of everything stored so far.
func (m *Memory) Messages() []core.CreatedMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]core.CreatedMessage, len(m.messages))
	copy(out, m.messages)
	return out
}
