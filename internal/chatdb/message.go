package chatdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"
)

// GetMessage returns the message with the given GUID, or nil if there is
// none. A message without an owning conversation yields ErrOrphanMessage.
func (d *DB) GetMessage(ctx context.Context, guid string, opts MessageOptions) (*Message, error) {
	var out *Message
	err := d.withConn(ctx, func(ctx context.Context, q querier) error {
		m, err := d.messageByGUID(ctx, q, guid, opts)
		out = m
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("get message %q: %w", guid, err)
	}
	return out, nil
}

func (d *DB) messageByGUID(ctx context.Context, q querier, guid string, opts MessageOptions) (*Message, error) {
	r, err := scanMessageRow(q.QueryRowContext(ctx,
		`SELECT `+selectList("", messageColumns)+` FROM message WHERE guid = ?`, guid))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	m, err := d.resolveMessage(ctx, q, r, opts, "")
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// ListConversationMessages returns the messages of one conversation created
// strictly between query.After and query.Before, sorted by query.Sort and
// paged by Offset/Limit. found is false when the conversation does not
// exist.
func (d *DB) ListConversationMessages(ctx context.Context, conversationGUID string, query MessageQuery) (msgs []Message, found bool, err error) {
	err = d.withConn(ctx, func(ctx context.Context, q querier) error {
		var conversationRowID int64
		err := q.QueryRowContext(ctx, `SELECT ROWID FROM chat WHERE guid = ?`, conversationGUID).Scan(&conversationRowID)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("query conversation: %w", err)
		}
		found = true

		before := int64(math.MaxInt64)
		if query.HasBefore {
			before = query.Before
		}
		rows, err := d.windowRows(ctx, q, conversationRowID, query.After, before)
		if err != nil {
			return err
		}

		all := make([]Message, 0, len(rows))
		for _, r := range rows {
			m, err := d.resolveMessage(ctx, q, r, query.MessageOptions, conversationGUID)
			if IsDecodeError(err) {
				d.dropped("message", err, zap.String("guid", r.guid.String))
				continue
			}
			if err != nil {
				return err
			}
			all = append(all, m)
		}
		sortMessages(all, query.Sort)
		msgs = Paginate(all, query.Offset, query.Limit)
		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("list messages of %q: %w", conversationGUID, err)
	}
	return msgs, found, nil
}

func (d *DB) windowRows(ctx context.Context, q querier, conversationRowID, after, before int64) ([]messageRow, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+selectList("m", messageColumns)+`
		FROM chat_message_join cmj
		JOIN message m ON m.ROWID = cmj.message_id
		WHERE cmj.chat_id = ? AND cmj.message_date > ? AND cmj.message_date < ?`,
		conversationRowID, after, before)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []messageRow
	for rows.Next() {
		r, err := scanMessageRow(rows)
		if err != nil {
			d.dropped("message", err, zap.Int64("conversation_rowid", conversationRowID))
			continue
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}
	return out, nil
}

// LastMessageForConversation returns the message reported as the
// conversation's last one under Options.LastMessageOrder, with sender and
// attachments resolved. It is nil for an empty or unknown conversation.
func (d *DB) LastMessageForConversation(ctx context.Context, conversationRowID int64) (*Message, error) {
	var out *Message
	err := d.withConn(ctx, func(ctx context.Context, q querier) error {
		m, err := d.lastMessage(ctx, q, conversationRowID, MessageOptions{WithSender: true, WithAttachments: true})
		out = m
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("last message of conversation %d: %w", conversationRowID, err)
	}
	return out, nil
}
