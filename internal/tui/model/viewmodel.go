package model

import (
	"context"
	"sync"

	"github.com/matheus3301/imsg/internal/api"
	"github.com/matheus3301/imsg/internal/chatdb"
	"github.com/matheus3301/imsg/internal/client"
)

// PageSize bounds every listing the TUI requests.
const PageSize = 200

// Backend is the part of *client.Client the TUI reads from.
type Backend interface {
	Status(ctx context.Context) (api.Status, error)
	Conversations(ctx context.Context, p client.ListParams) ([]chatdb.Conversation, error)
	ConversationMessages(ctx context.Context, conversationGUID string, p client.MessageParams) ([]chatdb.Message, error)
}

// ViewModel caches daemon state for the views.
type ViewModel struct {
	mu sync.RWMutex

	backend       Backend
	status        *api.Status
	conversations []chatdb.Conversation
	messages      []chatdb.Message
	active        string
	Flash         Flash
}

// NewViewModel creates a view model reading from backend.
func NewViewModel(backend Backend) *ViewModel {
	return &ViewModel{backend: backend}
}

// LoadStatus fetches daemon status.
func (vm *ViewModel) LoadStatus(ctx context.Context) error {
	st, err := vm.backend.Status(ctx)
	if err != nil {
		return err
	}
	vm.mu.Lock()
	vm.status = &st
	vm.mu.Unlock()
	return nil
}

// LoadConversations fetches the conversation list with participants and
// last messages.
func (vm *ViewModel) LoadConversations(ctx context.Context) error {
	convs, err := vm.backend.Conversations(ctx, client.ListParams{
		ConversationOptions: chatdb.ConversationOptions{
			WithParticipants: true,
			WithLastMessage:  true,
		},
		Limit: PageSize,
	})
	if err != nil {
		return err
	}
	vm.mu.Lock()
	vm.conversations = convs
	vm.mu.Unlock()
	return nil
}

// LoadMessages fetches the newest page of a conversation and makes it
// active. Messages are kept oldest first.
func (vm *ViewModel) LoadMessages(ctx context.Context, conversationGUID string) error {
	msgs, err := vm.backend.ConversationMessages(ctx, conversationGUID, client.MessageParams{
		MessageOptions: chatdb.MessageOptions{WithSender: true, WithAttachments: true},
		Limit:          PageSize,
		Sort:           chatdb.SortDescending,
	})
	if err != nil {
		return err
	}
	oldestFirst := make([]chatdb.Message, len(msgs))
	for i, m := range msgs {
		oldestFirst[len(msgs)-1-i] = m
	}
	vm.mu.Lock()
	vm.active = conversationGUID
	vm.messages = oldestFirst
	vm.mu.Unlock()
	return nil
}

// Apply folds a streamed message into the cache. It reports whether the
// message belongs to the active conversation.
func (vm *ViewModel) Apply(m chatdb.Message) bool {
	vm.mu.Lock()
	defer vm.mu.Unlock()

	for i := range vm.conversations {
		if vm.conversations[i].GUID == m.ConversationGUID {
			last := m
			vm.conversations[i].LastMessage = &last
			break
		}
	}
	if m.ConversationGUID != vm.active {
		return false
	}
	for _, existing := range vm.messages {
		if existing.GUID == m.GUID {
			return true
		}
	}
	vm.messages = append(vm.messages, m)
	return true
}

// Close clears the active conversation.
func (vm *ViewModel) Close() {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	vm.active = ""
	vm.messages = nil
}

// Conversations returns a snapshot of the conversation list.
func (vm *ViewModel) Conversations() []chatdb.Conversation {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.conversations
}

// Conversation returns the cached conversation with guid.
func (vm *ViewModel) Conversation(guid string) (chatdb.Conversation, bool) {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	for _, c := range vm.conversations {
		if c.GUID == guid {
			return c, true
		}
	}
	return chatdb.Conversation{}, false
}

// Messages returns a snapshot of the active conversation's messages.
func (vm *ViewModel) Messages() []chatdb.Message {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.messages
}

// Active returns the GUID of the open conversation, if any.
func (vm *ViewModel) Active() string {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.active
}

// Status returns the last fetched daemon status, or nil.
func (vm *ViewModel) Status() *api.Status {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.status
}
