package model

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/matheus3301/imsg/internal/api"
	"github.com/matheus3301/imsg/internal/chatdb"
	"github.com/matheus3301/imsg/internal/client"
)

type fakeBackend struct {
	convs    []chatdb.Conversation
	msgs     []chatdb.Message
	err      error
	lastList client.ListParams
	lastMsgs client.MessageParams
}

func (f *fakeBackend) Status(context.Context) (api.Status, error) {
	return api.Status{Session: "main", State: "READY"}, f.err
}

func (f *fakeBackend) Conversations(_ context.Context, p client.ListParams) ([]chatdb.Conversation, error) {
	f.lastList = p
	return f.convs, f.err
}

func (f *fakeBackend) ConversationMessages(_ context.Context, _ string, p client.MessageParams) ([]chatdb.Message, error) {
	f.lastMsgs = p
	return f.msgs, f.err
}

func TestLoadMessagesOldestFirst(t *testing.T) {
	fb := &fakeBackend{msgs: []chatdb.Message{{GUID: "m3"}, {GUID: "m2"}, {GUID: "m1"}}}
	vm := NewViewModel(fb)

	if err := vm.LoadMessages(context.Background(), "c1"); err != nil {
		t.Fatalf("LoadMessages error = %v", err)
	}
	got := vm.Messages()
	if len(got) != 3 || got[0].GUID != "m1" || got[2].GUID != "m3" {
		t.Errorf("messages = %+v, want m1..m3", got)
	}
	if vm.Active() != "c1" {
		t.Errorf("active = %q, want c1", vm.Active())
	}
	if fb.lastMsgs.Sort != chatdb.SortDescending || fb.lastMsgs.Limit != PageSize || !fb.lastMsgs.WithSender {
		t.Errorf("params = %+v", fb.lastMsgs)
	}
}

func TestLoadConversationsRequestsRelations(t *testing.T) {
	fb := &fakeBackend{convs: []chatdb.Conversation{{GUID: "c1"}}}
	vm := NewViewModel(fb)
	if err := vm.LoadConversations(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !fb.lastList.WithParticipants || !fb.lastList.WithLastMessage {
		t.Errorf("params = %+v", fb.lastList)
	}
	if _, ok := vm.Conversation("c1"); !ok {
		t.Error("conversation c1 not cached")
	}
}

func TestLoadErrorKeepsCache(t *testing.T) {
	fb := &fakeBackend{convs: []chatdb.Conversation{{GUID: "c1"}}}
	vm := NewViewModel(fb)
	_ = vm.LoadConversations(context.Background())

	fb.err = errors.New("down")
	if err := vm.LoadConversations(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if len(vm.Conversations()) != 1 {
		t.Error("failed load must not clear cached conversations")
	}
	if err := vm.LoadStatus(context.Background()); err == nil || vm.Status() != nil {
		t.Errorf("status = %+v, err = %v", vm.Status(), err)
	}
}

func TestApply(t *testing.T) {
	fb := &fakeBackend{
		convs: []chatdb.Conversation{{GUID: "c1"}, {GUID: "c2"}},
		msgs:  []chatdb.Message{{GUID: "m1", ConversationGUID: "c1"}},
	}
	vm := NewViewModel(fb)
	_ = vm.LoadConversations(context.Background())
	_ = vm.LoadMessages(context.Background(), "c1")

	if !vm.Apply(chatdb.Message{GUID: "m2", ConversationGUID: "c1"}) {
		t.Error("message in the active conversation should report true")
	}
	if vm.Apply(chatdb.Message{GUID: "x", ConversationGUID: "c2"}) {
		t.Error("message elsewhere should report false")
	}
	vm.Apply(chatdb.Message{GUID: "m2", ConversationGUID: "c1"})

	if got := vm.Messages(); len(got) != 2 || got[1].GUID != "m2" {
		t.Errorf("messages = %+v, want [m1 m2]", got)
	}
	c2, _ := vm.Conversation("c2")
	if c2.LastMessage == nil || c2.LastMessage.GUID != "x" {
		t.Errorf("c2 last message = %+v", c2.LastMessage)
	}

	vm.Close()
	if vm.Active() != "" || vm.Messages() != nil {
		t.Error("Close should clear the active conversation")
	}
}

func TestFlashExpires(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	f := Flash{now: func() time.Time { return now }}

	f.Warn("careful", time.Second)
	if msg, warn := f.Get(); msg != "careful" || !warn {
		t.Errorf("Get = %q, %v", msg, warn)
	}
	f.Info("hello", time.Second)
	if msg, warn := f.Get(); msg != "hello" || warn {
		t.Errorf("Get = %q, %v", msg, warn)
	}
	now = now.Add(2 * time.Second)
	if msg, _ := f.Get(); msg != "" {
		t.Errorf("expired flash = %q", msg)
	}
}
