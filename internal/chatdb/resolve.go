package chatdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// The resolver walks the join tables. Each traversal scans its rows to
// completion and closes them before any nested lookup runs on the same
// connection.

func (d *DB) participantsForConversation(ctx context.Context, q querier, conversationRowID int64) ([]Participant, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+selectList("h", participantColumns)+`
		FROM chat_handle_join chj
		JOIN handle h ON h.ROWID = chj.handle_id
		WHERE chj.chat_id = ?
		ORDER BY chj.rowid`, conversationRowID)
	if err != nil {
		return nil, fmt.Errorf("query participants: %w", err)
	}
	defer func() { _ = rows.Close() }()

	participants := []Participant{}
	for rows.Next() {
		r, err := scanParticipantRow(rows)
		if err == nil {
			var p Participant
			if p, err = newParticipant(r); err == nil {
				participants = append(participants, p)
				continue
			}
		}
		d.dropped("participant", err, zap.Int64("conversation_rowid", conversationRowID))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate participants: %w", err)
	}
	return participants, nil
}

func (d *DB) lastMessage(ctx context.Context, q querier, conversationRowID int64, opts MessageOptions) (*Message, error) {
	order := "ASC"
	if d.opts.LastMessageOrder == LastMessageLatest {
		order = "DESC"
	}
	var messageRowID int64
	err := q.QueryRowContext(ctx,
		`SELECT message_id FROM chat_message_join
		WHERE chat_id = ?
		ORDER BY message_date `+order+`, message_id `+order+`
		LIMIT 1`, conversationRowID).Scan(&messageRowID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query last message: %w", err)
	}

	r, err := scanMessageRow(q.QueryRowContext(ctx,
		`SELECT `+selectList("", messageColumns)+` FROM message WHERE ROWID = ?`, messageRowID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err == nil {
		var m Message
		if m, err = d.resolveMessage(ctx, q, r, opts, ""); err == nil {
			return &m, nil
		}
	}
	if IsDecodeError(err) {
		d.dropped("message", err, zap.Int64("conversation_rowid", conversationRowID))
		return nil, nil
	}
	return nil, err
}

// sender returns nil when the message has no handle or the handle row is
// unusable.
func (d *DB) sender(ctx context.Context, q querier, handleRowID int64) (*Participant, error) {
	r, err := scanParticipantRow(q.QueryRowContext(ctx,
		`SELECT `+selectList("", participantColumns)+` FROM handle WHERE ROWID = ?`, handleRowID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err == nil {
		var p Participant
		if p, err = newParticipant(r); err == nil {
			return &p, nil
		}
	}
	if IsDecodeError(err) {
		d.dropped("participant", err, zap.Int64("handle_rowid", handleRowID))
		return nil, nil
	}
	return nil, fmt.Errorf("query sender: %w", err)
}

func (d *DB) attachmentsForMessage(ctx context.Context, q querier, messageRowID int64) ([]Attachment, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+selectList("a", attachmentColumns)+`
		FROM message_attachment_join maj
		JOIN attachment a ON a.ROWID = maj.attachment_id
		WHERE maj.message_id = ?
		ORDER BY maj.rowid`, messageRowID)
	if err != nil {
		return nil, fmt.Errorf("query attachments: %w", err)
	}
	defer func() { _ = rows.Close() }()

	attachments := []Attachment{}
	for rows.Next() {
		r, err := scanAttachmentRow(rows)
		if err == nil {
			var a Attachment
			if a, err = newAttachment(r, nil, nil); err == nil {
				attachments = append(attachments, a)
				continue
			}
		}
		d.dropped("attachment", err, zap.Int64("message_rowid", messageRowID))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attachments: %w", err)
	}
	return attachments, nil
}

// conversationGUIDForMessage follows the message's join row to its chat.
// A missing join row or chat row is ErrOrphanMessage.
func (d *DB) conversationGUIDForMessage(ctx context.Context, q querier, messageRowID int64, messageGUID string) (string, error) {
	var guid sql.NullString
	err := q.QueryRowContext(ctx,
		`SELECT c.guid FROM chat_message_join cmj
		LEFT JOIN chat c ON c.ROWID = cmj.chat_id
		WHERE cmj.message_id = ?
		ORDER BY cmj.chat_id
		LIMIT 1`, messageRowID).Scan(&guid)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && !guid.Valid) {
		return "", orphanError(messageGUID)
	}
	if err != nil {
		return "", fmt.Errorf("query owning conversation: %w", err)
	}
	return guid.String, nil
}

// resolveMessage materializes a scanned message row. When conversationGUID
// is empty the owning conversation is looked up.
func (d *DB) resolveMessage(ctx context.Context, q querier, r messageRow, opts MessageOptions, conversationGUID string) (Message, error) {
	var err error
	if conversationGUID == "" {
		conversationGUID, err = d.conversationGUIDForMessage(ctx, q, r.rowID.Int64, r.guid.String)
		if err != nil {
			return Message{}, err
		}
	}

	var sender *Participant
	if opts.WithSender && r.handleID.Valid {
		if sender, err = d.sender(ctx, q, r.handleID.Int64); err != nil {
			return Message{}, err
		}
	}

	var attachments []Attachment
	if opts.WithAttachments {
		if attachments, err = d.attachmentsForMessage(ctx, q, r.rowID.Int64); err != nil {
			return Message{}, err
		}
	}

	return newMessage(r, sender, attachments, conversationGUID)
}

// resolveConversation materializes a scanned chat row with the requested
// relations.
func (d *DB) resolveConversation(ctx context.Context, q querier, r conversationRow, opts ConversationOptions) (Conversation, error) {
	var (
		participants []Participant
		last         *Message
		err          error
	)
	if opts.WithParticipants {
		if participants, err = d.participantsForConversation(ctx, q, r.rowID.Int64); err != nil {
			return Conversation{}, err
		}
	}
	if opts.WithLastMessage {
		if last, err = d.lastMessage(ctx, q, r.rowID.Int64, opts.LastMessage); err != nil {
			return Conversation{}, err
		}
	}
	return newConversation(r, participants, last)
}

func (d *DB) dropped(entity string, err error, fields ...zap.Field) {
	d.logger.Warn("dropping undecodable row",
		append(fields, zap.String("entity", entity), zap.Error(err))...)
}
