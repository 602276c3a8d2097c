package chatdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// GetConversation returns the conversation with the given GUID, or nil if
// there is none.
func (d *DB) GetConversation(ctx context.Context, guid string, opts ConversationOptions) (*Conversation, error) {
	var out *Conversation
	err := d.withConn(ctx, func(ctx context.Context, q querier) error {
		r, err := scanConversationRow(q.QueryRowContext(ctx,
			`SELECT `+selectList("", conversationColumns)+` FROM chat WHERE guid = ?`, guid))
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}
		c, err := d.resolveConversation(ctx, q, r, opts)
		if err != nil {
			return err
		}
		out = &c
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("get conversation %q: %w", guid, err)
	}
	return out, nil
}

// ListConversations pages through conversations in store order. Rows that
// fail to decode are skipped before paging, and relations are resolved only
// for the returned page.
func (d *DB) ListConversations(ctx context.Context, query ConversationQuery) ([]Conversation, error) {
	var out []Conversation
	err := d.withConn(ctx, func(ctx context.Context, q querier) error {
		rows, err := d.conversationRows(ctx, q, fetchWindow(query.Offset, query.Limit))
		if err != nil {
			return err
		}
		decodable := make([]conversationRow, 0, len(rows))
		for _, r := range rows {
			if _, err := newConversation(r, nil, nil); err != nil {
				d.dropped("conversation", err, zap.String("guid", r.guid.String))
				continue
			}
			decodable = append(decodable, r)
		}

		page := Paginate(decodable, query.Offset, query.Limit)
		out = make([]Conversation, 0, len(page))
		for _, r := range page {
			c, err := d.resolveConversation(ctx, q, r, query.ConversationOptions)
			if err != nil {
				return err
			}
			out = append(out, c)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	return out, nil
}

func (d *DB) conversationRows(ctx context.Context, q querier, limit int) ([]conversationRow, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+selectList("", conversationColumns)+` FROM chat ORDER BY ROWID LIMIT ?`, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("query conversations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []conversationRow
	for rows.Next() {
		r, err := scanConversationRow(rows)
		if err != nil {
			d.dropped("conversation", err)
			continue
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate conversations: %w", err)
	}
	return out, nil
}
