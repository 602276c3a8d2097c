package api

import (
	"context"
	"errors"
	"time"

	"github.com/matheus3301/imsg/internal/bus"
	"github.com/matheus3301/imsg/internal/chatdb"
	"github.com/matheus3301/imsg/internal/status"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	grpcstatus "google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// Request defaults for listings.
const (
	DefaultLimit  = 1000
	DefaultOffset = 0
)

// QueryService serves chat.db queries over gRPC.
type QueryService struct {
	db          *chatdb.DB
	bus         *bus.Bus
	machine     *status.Machine
	sessionName string
	startedAt   time.Time
}

var _ QueryServer = (*QueryService)(nil)

// NewQueryService creates a query service. db may be nil before the store
// is open; queries then fail with Unavailable.
func NewQueryService(sessionName string, db *chatdb.DB, machine *status.Machine, b *bus.Bus) *QueryService {
	return &QueryService{
		db:          db,
		bus:         b,
		machine:     machine,
		sessionName: sessionName,
		startedAt:   time.Now(),
	}
}

// Status is the GetStatus response.
type Status struct {
	Session          string           `json:"session"`
	State            string           `json:"state"`
	StateSinceUnixMs int64            `json:"stateSinceUnixMs"`
	UptimeMs         int64            `json:"uptimeMs"`
	StorePath        string           `json:"storePath"`
	CursorUnixMs     int64            `json:"cursorUnixMs"`
	Counts           map[string]int64 `json:"counts"`
}

// GetStatus reports daemon state and entity counts. Counts that fail are
// left out.
func (s *QueryService) GetStatus(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	st := Status{
		Session:  s.sessionName,
		UptimeMs: time.Since(s.startedAt).Milliseconds(),
		Counts:   map[string]int64{},
	}
	if s.machine != nil {
		st.State = string(s.machine.Current())
		st.StateSinceUnixMs = s.machine.Since().UnixMilli()
	}
	if s.db != nil {
		st.StorePath = s.db.Path()
		st.CursorUnixMs = chatdb.StoreToUnixMilli(s.db.Cursor())
		for _, kind := range []chatdb.EntityKind{chatdb.KindConversation, chatdb.KindMessage, chatdb.KindParticipant, chatdb.KindAttachment} {
			if n, err := s.db.EntityCount(ctx, kind); err == nil {
				st.Counts[string(kind)] = n
			}
		}
	}
	return encodeResponse(st)
}

// GetConversation fields: guid, with_participants, with_last_message,
// with_sender, with_attachments (the latter two apply to the last message).
func (s *QueryService) GetConversation(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	req := newRequest(in)
	guid, err := req.requiredStr("guid")
	if err != nil {
		return nil, err
	}
	opts, err := conversationOptions(req)
	if err != nil {
		return nil, err
	}
	c, err := s.db.GetConversation(ctx, guid, opts)
	if err != nil {
		return nil, toStatus(err)
	}
	if c == nil {
		return nil, grpcstatus.Errorf(codes.NotFound, "conversation %q not found", guid)
	}
	return encodeResponse(c)
}

// ListConversations fields: limit, offset, sort, plus the GetConversation
// flags. Responds {"conversations": [...]}.
func (s *QueryService) ListConversations(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	req := newRequest(in)
	opts, err := conversationOptions(req)
	if err != nil {
		return nil, err
	}
	limit, offset, err := window(req)
	if err != nil {
		return nil, err
	}
	sort, err := req.str("sort")
	if err != nil {
		return nil, err
	}
	convs, err := s.db.ListConversations(ctx, chatdb.ConversationQuery{
		ConversationOptions: opts,
		Limit:               limit,
		Offset:              offset,
		Sort:                sort,
	})
	if err != nil {
		return nil, toStatus(err)
	}
	if convs == nil {
		convs = []chatdb.Conversation{}
	}
	return encodeResponse(map[string]any{"conversations": convs})
}

// GetServiceBreakdown responds with chatdb.ServiceBreakdown.
func (s *QueryService) GetServiceBreakdown(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	b, err := s.db.ConversationServiceBreakdown(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	return encodeResponse(b)
}

// CountEntities fields: kind. Responds {"kind", "count"}.
func (s *QueryService) CountEntities(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	raw, err := newRequest(in).requiredStr("kind")
	if err != nil {
		return nil, err
	}
	kind, err := chatdb.ParseEntityKind(raw)
	if err != nil {
		return nil, invalid("%v", err)
	}
	n, err := s.db.EntityCount(ctx, kind)
	if err != nil {
		return nil, toStatus(err)
	}
	return encodeResponse(map[string]any{"kind": kind, "count": n})
}

// GetMessage fields: guid, with_sender, with_attachments.
func (s *QueryService) GetMessage(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	req := newRequest(in)
	guid, err := req.requiredStr("guid")
	if err != nil {
		return nil, err
	}
	opts, err := messageOptions(req)
	if err != nil {
		return nil, err
	}
	m, err := s.db.GetMessage(ctx, guid, opts)
	if err != nil {
		return nil, toStatus(err)
	}
	if m == nil {
		return nil, grpcstatus.Errorf(codes.NotFound, "message %q not found", guid)
	}
	return encodeResponse(m)
}

// GetAttachment fields: guid.
func (s *QueryService) GetAttachment(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	guid, err := newRequest(in).requiredStr("guid")
	if err != nil {
		return nil, err
	}
	a, err := s.db.GetAttachment(ctx, guid)
	if err != nil {
		return nil, toStatus(err)
	}
	if a == nil {
		return nil, grpcstatus.Errorf(codes.NotFound, "attachment %q not found", guid)
	}
	return encodeResponse(a)
}

// ListConversationMessages fields: conversation_guid, with_sender,
// with_attachments, limit, offset, sort ("ASC"/"DESC"), after and before in
// Unix milliseconds. Responds {"messages": [...]}.
func (s *QueryService) ListConversationMessages(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	req := newRequest(in)
	guid, err := req.requiredStr("conversation_guid")
	if err != nil {
		return nil, err
	}
	q, err := messageQuery(req)
	if err != nil {
		return nil, err
	}
	msgs, found, err := s.db.ListConversationMessages(ctx, guid, q)
	if err != nil {
		return nil, toStatus(err)
	}
	if !found {
		return nil, grpcstatus.Errorf(codes.NotFound, "conversation %q not found", guid)
	}
	if msgs == nil {
		msgs = []chatdb.Message{}
	}
	return encodeResponse(map[string]any{"messages": msgs})
}

// GetLastMessage fields: conversation_rowid.
func (s *QueryService) GetLastMessage(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	req := newRequest(in)
	if _, ok := req.value("conversation_rowid"); !ok {
		return nil, invalid("conversation_rowid is required")
	}
	rowID, err := req.int("conversation_rowid", 0)
	if err != nil {
		return nil, err
	}
	m, err := s.db.LastMessageForConversation(ctx, rowID)
	if err != nil {
		return nil, toStatus(err)
	}
	if m == nil {
		return nil, grpcstatus.Errorf(codes.NotFound, "conversation %d has no messages", rowID)
	}
	return encodeResponse(m)
}

// WatchEvent is one WatchMessages stream item.
type WatchEvent struct {
	EventID          string         `json:"eventId"`
	Session          string         `json:"session"`
	OccurredAtUnixMs int64          `json:"occurredAtUnixMs"`
	Kind             string         `json:"kind"`
	Message          chatdb.Message `json:"message"`
}

// WatchMessages streams newly polled messages. Optional field:
// conversation_guid restricts the stream to one conversation.
func (s *QueryService) WatchMessages(in *structpb.Struct, stream grpc.ServerStream) error {
	if s.bus == nil {
		return grpcstatus.Errorf(codes.Unavailable, "event bus not initialized")
	}
	filter, err := newRequest(in).str("conversation_guid")
	if err != nil {
		return err
	}

	ch, unsub := s.bus.Subscribe("message.", 256)
	defer unsub()

	for {
		select {
		case evt := <-ch:
			msg, ok := evt.Payload.(chatdb.Message)
			if !ok || (filter != "" && msg.ConversationGUID != filter) {
				continue
			}
			out, err := encodeResponse(WatchEvent{
				EventID:          evt.ID,
				Session:          s.sessionName,
				OccurredAtUnixMs: evt.Timestamp.UnixMilli(),
				Kind:             evt.Kind,
				Message:          msg,
			})
			if err != nil {
				return err
			}
			if err := stream.SendMsg(out); err != nil {
				return err
			}
		case <-stream.Context().Done():
			return nil
		}
	}
}

func (s *QueryService) ready() error {
	if s.db == nil {
		return grpcstatus.Errorf(codes.Unavailable, "store not open")
	}
	return nil
}

func messageOptions(req request) (chatdb.MessageOptions, error) {
	var (
		opts chatdb.MessageOptions
		err  error
	)
	if opts.WithSender, err = req.flag("with_sender"); err != nil {
		return opts, err
	}
	if opts.WithAttachments, err = req.flag("with_attachments"); err != nil {
		return opts, err
	}
	return opts, nil
}

func conversationOptions(req request) (chatdb.ConversationOptions, error) {
	var (
		opts chatdb.ConversationOptions
		err  error
	)
	if opts.WithParticipants, err = req.flag("with_participants"); err != nil {
		return opts, err
	}
	if opts.WithLastMessage, err = req.flag("with_last_message"); err != nil {
		return opts, err
	}
	if opts.LastMessage, err = messageOptions(req); err != nil {
		return opts, err
	}
	return opts, nil
}

func window(req request) (limit, offset int, err error) {
	l, err := req.int("limit", DefaultLimit)
	if err != nil {
		return 0, 0, err
	}
	o, err := req.int("offset", DefaultOffset)
	if err != nil {
		return 0, 0, err
	}
	return clampInt(l), clampInt(o), nil
}

func messageQuery(req request) (chatdb.MessageQuery, error) {
	var q chatdb.MessageQuery
	var err error
	if q.MessageOptions, err = messageOptions(req); err != nil {
		return q, err
	}
	if q.Limit, q.Offset, err = window(req); err != nil {
		return q, err
	}
	sort, err := req.str("sort")
	if err != nil {
		return q, err
	}
	if q.Sort, err = chatdb.ParseSortOrder(sort); err != nil {
		return q, invalid("%v", err)
	}
	after, err := req.int("after", 0)
	if err != nil {
		return q, err
	}
	before, err := req.int("before", 0)
	if err != nil {
		return q, err
	}
	q.After = chatdb.StoreEpochFromUnixMilli(after)
	if before > 0 {
		q.Before, q.HasBefore = chatdb.StoreEpochFromUnixMilli(before), true
	}
	return q, nil
}

func clampInt(n int64) int {
	return int(min(n, int64(maxInt)))
}

const maxInt = int(^uint(0) >> 1)

// toStatus maps a chatdb error onto a gRPC status.
func toStatus(err error) error {
	switch {
	case errors.Is(err, chatdb.ErrOrphanMessage):
		return grpcstatus.Errorf(codes.DataLoss, "%v", err)
	case errors.Is(err, context.Canceled):
		return grpcstatus.Errorf(codes.Canceled, "%v", err)
	default:
		return grpcstatus.Errorf(codes.Internal, "%v", err)
	}
}
