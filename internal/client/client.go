// Package client is the typed gRPC client for imsgd.
package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"time"

	"github.com/matheus3301/imsg/internal/api"
	"github.com/matheus3301/imsg/internal/chatdb"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	grpcstatus "google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// Client wraps the gRPC connection to a daemon.
type Client struct {
	conn *grpc.ClientConn
}

// New dials the daemon's Unix domain socket.
func New(socketPath string) (*Client, error) {
	conn, err := grpc.NewClient(
		"unix://"+socketPath,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		return nil, fmt.Errorf("dial daemon: %w", err)
	}
	return &Client{conn: conn}, nil
}

// Close closes the gRPC connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// IsNotFound reports whether err is a NotFound status from the daemon.
func IsNotFound(err error) bool {
	return grpcstatus.Code(err) == codes.NotFound
}

// ListParams pages a conversation listing. Zero Limit uses the daemon
// default.
type ListParams struct {
	chatdb.ConversationOptions
	Limit  int
	Offset int
	Sort   string
}

// MessageParams selects a window of a conversation's messages. Zero times
// leave that bound open.
type MessageParams struct {
	chatdb.MessageOptions
	Limit  int
	Offset int
	Sort   chatdb.SortOrder
	After  time.Time
	Before time.Time
}

// Status fetches daemon status.
func (c *Client) Status(ctx context.Context) (api.Status, error) {
	var out api.Status
	err := c.call(ctx, api.MethodGetStatus, nil, &out)
	return out, err
}

// Conversation fetches one conversation by GUID.
func (c *Client) Conversation(ctx context.Context, guid string, opts chatdb.ConversationOptions) (chatdb.Conversation, error) {
	req := conversationFields(opts)
	req["guid"] = guid
	var out chatdb.Conversation
	err := c.call(ctx, api.MethodGetConversation, req, &out)
	return out, err
}

// Conversations lists conversations.
func (c *Client) Conversations(ctx context.Context, p ListParams) ([]chatdb.Conversation, error) {
	req := conversationFields(p.ConversationOptions)
	window(req, p.Limit, p.Offset)
	if p.Sort != "" {
		req["sort"] = p.Sort
	}
	var out struct {
		Conversations []chatdb.Conversation `json:"conversations"`
	}
	err := c.call(ctx, api.MethodListConversations, req, &out)
	return out.Conversations, err
}

// ServiceBreakdown fetches per-service conversation counts.
func (c *Client) ServiceBreakdown(ctx context.Context) (chatdb.ServiceBreakdown, error) {
	var out chatdb.ServiceBreakdown
	err := c.call(ctx, api.MethodGetServiceBreakdown, nil, &out)
	return out, err
}

// Count returns the number of rows of the given kind.
func (c *Client) Count(ctx context.Context, kind chatdb.EntityKind) (int64, error) {
	var out struct {
		Count int64 `json:"count"`
	}
	err := c.call(ctx, api.MethodCountEntities, map[string]any{"kind": string(kind)}, &out)
	return out.Count, err
}

// Message fetches one message by GUID.
func (c *Client) Message(ctx context.Context, guid string, opts chatdb.MessageOptions) (chatdb.Message, error) {
	req := messageFields(opts)
	req["guid"] = guid
	var out chatdb.Message
	err := c.call(ctx, api.MethodGetMessage, req, &out)
	return out, err
}

// Attachment fetches one attachment by GUID.
func (c *Client) Attachment(ctx context.Context, guid string) (chatdb.Attachment, error) {
	var out chatdb.Attachment
	err := c.call(ctx, api.MethodGetAttachment, map[string]any{"guid": guid}, &out)
	return out, err
}

// ConversationMessages lists messages of one conversation.
func (c *Client) ConversationMessages(ctx context.Context, conversationGUID string, p MessageParams) ([]chatdb.Message, error) {
	req := messageFields(p.MessageOptions)
	req["conversation_guid"] = conversationGUID
	req["sort"] = p.Sort.String()
	window(req, p.Limit, p.Offset)
	if !p.After.IsZero() {
		req["after"] = p.After.UnixMilli()
	}
	if !p.Before.IsZero() {
		// 0 means unbounded on the wire; earlier times still bound the window.
		req["before"] = max(p.Before.UnixMilli(), 1)
	}
	var out struct {
		Messages []chatdb.Message `json:"messages"`
	}
	err := c.call(ctx, api.MethodListConversationMessages, req, &out)
	return out.Messages, err
}

// LastMessage fetches the reported last message of a conversation.
func (c *Client) LastMessage(ctx context.Context, conversationRowID int64) (chatdb.Message, error) {
	var out chatdb.Message
	err := c.call(ctx, api.MethodGetLastMessage, map[string]any{"conversation_rowid": conversationRowID}, &out)
	return out, err
}

// Watch streams new messages until ctx ends. An empty conversationGUID
// watches every conversation. The sequence stops after the first error.
func (c *Client) Watch(ctx context.Context, conversationGUID string) (iter.Seq2[api.WatchEvent, error], error) {
	req := map[string]any{}
	if conversationGUID != "" {
		req["conversation_guid"] = conversationGUID
	}
	in, err := structpb.NewStruct(req)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	stream, err := c.conn.NewStream(ctx, &api.WatchStreamDesc, api.FullMethod(api.MethodWatchMessages))
	if err != nil {
		return nil, fmt.Errorf("open watch stream: %w", err)
	}
	if err := stream.SendMsg(in); err != nil {
		return nil, fmt.Errorf("send watch request: %w", err)
	}
	if err := stream.CloseSend(); err != nil {
		return nil, fmt.Errorf("close watch send: %w", err)
	}

	return func(yield func(api.WatchEvent, error) bool) {
		for {
			out := new(structpb.Struct)
			if err := stream.RecvMsg(out); err != nil {
				if errors.Is(err, io.EOF) || grpcstatus.Code(err) == codes.Canceled {
					return
				}
				yield(api.WatchEvent{}, err)
				return
			}
			var evt api.WatchEvent
			if err := api.Decode(out, &evt); err != nil {
				yield(api.WatchEvent{}, err)
				return
			}
			if !yield(evt, nil) {
				return
			}
		}
	}, nil
}

func (c *Client) call(ctx context.Context, method string, req map[string]any, out any) error {
	in, err := structpb.NewStruct(req)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	resp := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, api.FullMethod(method), in, resp); err != nil {
		return err
	}
	return api.Decode(resp, out)
}

func messageFields(opts chatdb.MessageOptions) map[string]any {
	return map[string]any{
		"with_sender":      opts.WithSender,
		"with_attachments": opts.WithAttachments,
	}
}

func conversationFields(opts chatdb.ConversationOptions) map[string]any {
	req := messageFields(opts.LastMessage)
	req["with_participants"] = opts.WithParticipants
	req["with_last_message"] = opts.WithLastMessage
	return req
}

func window(req map[string]any, limit, offset int) {
	if limit > 0 {
		req["limit"] = limit
	}
	if offset > 0 {
		req["offset"] = offset
	}
}
