package chatdb

import (
	"context"
	"errors"
	"fmt"
	"iter"
)

// ErrPollQuery marks a poll whose candidate query failed. The cursor is not
// advanced and the sequence yields only this error.
var ErrPollQuery = errors.New("poll query failed")

// PollNewMessages returns every message created since the previous poll,
// with sender and attachments resolved.
//
// The candidate set is fixed when PollNewMessages is called: the cursor is
// advanced to a "now" reading taken before the query, and the query is
// bounded above by that same reading, so consecutive polls neither skip nor
// repeat a row. Messages are then resolved one at a time as the sequence is
// consumed; a message removed in between is skipped. Each yielded message is
// its own consistent read, taken under the lock separately from the others.
func (d *DB) PollNewMessages(ctx context.Context) iter.Seq2[Message, error] {
	guids, err := d.advanceCursor(ctx)
	return func(yield func(Message, error) bool) {
		if err != nil {
			yield(Message{}, err)
			return
		}
		opts := MessageOptions{WithSender: true, WithAttachments: true}
		for _, guid := range guids {
			var m *Message
			err := d.withConn(ctx, func(ctx context.Context, q querier) error {
				var err error
				m, err = d.messageByGUID(ctx, q, guid, opts)
				return err
			})
			if err != nil {
				if !yield(Message{}, fmt.Errorf("poll message %q: %w", guid, err)) {
					return
				}
				continue
			}
			if m == nil {
				continue
			}
			if !yield(*m, nil) {
				return
			}
		}
	}
}

func (d *DB) advanceCursor(ctx context.Context) ([]string, error) {
	var guids []string
	err := d.withConn(ctx, func(ctx context.Context, q querier) error {
		snapshot := max(StoreEpochFromTime(d.opts.Clock()), d.lastReadTime)
		rows, err := q.QueryContext(ctx,
			`SELECT guid FROM message
			WHERE date > ? AND date <= ? AND guid IS NOT NULL
			ORDER BY date, ROWID`, d.lastReadTime, snapshot)
		if err != nil {
			return fmt.Errorf("query new messages: %w", err)
		}
		defer func() { _ = rows.Close() }()

		for rows.Next() {
			var guid string
			if err := rows.Scan(&guid); err != nil {
				return fmt.Errorf("scan new message: %w", err)
			}
			guids = append(guids, guid)
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("iterate new messages: %w", err)
		}
		d.lastReadTime = snapshot
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPollQuery, err)
	}
	return guids, nil
}

// Cursor returns the poll cursor in store epoch nanoseconds.
func (d *DB) Cursor() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastReadTime
}
