package chatdb

import (
	"database/sql"
	"errors"
	"strconv"
	"strings"
)

// Column lists are explicit so a schema change on the Messages side fails
// loudly at query time instead of shifting fields silently.
var (
	conversationColumns = []string{
		"ROWID", "guid", "style", "chat_identifier", "service_name", "is_archived",
		"is_filtered", "display_name", "group_id", "last_addressed_handle",
	}
	participantColumns = []string{
		"ROWID", "id", "country", "uncanonicalized_id", "service",
	}
	messageColumns = []string{
		"ROWID", "guid", "text", "handle_id", "subject", "error", "service",
		"date", "date_read", "date_delivered", "date_played",
		"is_from_me", "is_delayed", "is_auto_reply", "is_system_message",
		"is_service_message", "is_forward", "is_corrupt", "is_spam",
		"is_audio_message", "has_dd_results", "was_delivered_quietly",
		"did_notify_recipient", "item_type", "group_action_type", "other_handle",
		"group_title", "associated_message_guid", "associated_message_type",
		"expressive_send_style_id", "thread_originator_guid",
		"thread_originator_part", "country", "cache_roomnames", "reply_to_guid",
		"share_status", "share_direction",
	}
	attachmentColumns = []string{
		"ROWID", "guid", "uti", "mime_type", "transfer_name", "total_bytes",
		"transfer_state", "is_outgoing", "hide_attachment", "is_sticker",
		"original_guid", "filename",
	}
)

// selectList renders columns for a SELECT, qualified with alias when set.
func selectList(alias string, columns []string) string {
	if alias == "" {
		return strings.Join(columns, ", ")
	}
	qualified := make([]string, len(columns))
	for i, c := range columns {
		qualified[i] = alias + "." + c
	}
	return strings.Join(qualified, ", ")
}

type scanner interface {
	Scan(dest ...any) error
}

// Raw row views. Every column is scanned nullable; the constructors decide
// which ones are required.

type conversationRow struct {
	rowID, style, isArchived, isFiltered                   sql.NullInt64
	guid, chatIdentifier, serviceName, displayName, groupID sql.NullString
	lastAddressedHandle                                     sql.NullString
}

func scanConversationRow(s scanner) (conversationRow, error) {
	var r conversationRow
	err := s.Scan(&r.rowID, &r.guid, &r.style, &r.chatIdentifier, &r.serviceName,
		&r.isArchived, &r.isFiltered, &r.displayName, &r.groupID, &r.lastAddressedHandle)
	return r, scanError("conversation", err)
}

type participantRow struct {
	rowID                                     sql.NullInt64
	address, country, uncanonicalizedID, svc sql.NullString
}

func scanParticipantRow(s scanner) (participantRow, error) {
	var r participantRow
	err := s.Scan(&r.rowID, &r.address, &r.country, &r.uncanonicalizedID, &r.svc)
	return r, scanError("participant", err)
}

type messageRow struct {
	rowID, handleID, errorCode                              sql.NullInt64
	date, dateRead, dateDelivered, datePlayed               sql.NullInt64
	isFromMe, isDelayed, isAutoReply, isSystemMessage       sql.NullInt64
	isServiceMessage, isForward, isCorrupt, isSpam          sql.NullInt64
	isAudioMessage, hasDDResults, wasDeliveredQuietly       sql.NullInt64
	didNotifyRecipient, itemType, groupActionType           sql.NullInt64
	otherHandle, associatedMessageType                      sql.NullInt64
	shareStatus, shareDirection                             sql.NullInt64
	guid, text, subject, service, groupTitle                sql.NullString
	associatedMessageGUID, expressiveSendStyleID            sql.NullString
	threadOriginatorGUID, threadOriginatorPart, country     sql.NullString
	cacheRoomnames, replyToGUID                             sql.NullString
}

func scanMessageRow(s scanner) (messageRow, error) {
	var r messageRow
	err := s.Scan(&r.rowID, &r.guid, &r.text, &r.handleID, &r.subject, &r.errorCode, &r.service,
		&r.date, &r.dateRead, &r.dateDelivered, &r.datePlayed,
		&r.isFromMe, &r.isDelayed, &r.isAutoReply, &r.isSystemMessage,
		&r.isServiceMessage, &r.isForward, &r.isCorrupt, &r.isSpam,
		&r.isAudioMessage, &r.hasDDResults, &r.wasDeliveredQuietly,
		&r.didNotifyRecipient, &r.itemType, &r.groupActionType, &r.otherHandle,
		&r.groupTitle, &r.associatedMessageGUID, &r.associatedMessageType,
		&r.expressiveSendStyleID, &r.threadOriginatorGUID,
		&r.threadOriginatorPart, &r.country, &r.cacheRoomnames, &r.replyToGUID,
		&r.shareStatus, &r.shareDirection)
	return r, scanError("message", err)
}

type attachmentRow struct {
	rowID, totalBytes, transferState, isOutgoing, hideAttachment, isSticker sql.NullInt64
	guid, uti, mimeType, transferName, originalGUID, filename              sql.NullString
}

func scanAttachmentRow(s scanner) (attachmentRow, error) {
	var r attachmentRow
	err := s.Scan(&r.rowID, &r.guid, &r.uti, &r.mimeType, &r.transferName, &r.totalBytes,
		&r.transferState, &r.isOutgoing, &r.hideAttachment, &r.isSticker,
		&r.originalGUID, &r.filename)
	return r, scanError("attachment", err)
}

// scanError turns a column conversion failure into a DecodeError. Missing
// rows pass through untouched.
func scanError(entity string, err error) error {
	if err == nil || errors.Is(err, sql.ErrNoRows) {
		return err
	}
	return &DecodeError{Entity: entity, Key: "row", Err: err}
}

// decoder collects the first missing required column of a row.
type decoder struct {
	entity string
	key    string
	err    error
}

func newDecoder(entity string, rowID sql.NullInt64, guid sql.NullString) *decoder {
	key := guid.String
	if !guid.Valid {
		key = "rowid " + strconv.FormatInt(rowID.Int64, 10)
	}
	return &decoder{entity: entity, key: key}
}

func (d *decoder) fail(column string) {
	if d.err == nil {
		d.err = &DecodeError{Entity: d.entity, Key: d.key, Err: errors.New("required column " + column + " is NULL")}
	}
}

func (d *decoder) str(column string, v sql.NullString) string {
	if !v.Valid {
		d.fail(column)
	}
	return v.String
}

func (d *decoder) int(column string, v sql.NullInt64) int64 {
	if !v.Valid {
		d.fail(column)
	}
	return v.Int64
}

// flag reads a boolean stored as an integer. Only 1 is true.
func (d *decoder) flag(column string, v sql.NullInt64) bool {
	return d.int(column, v) == 1
}

func (d *decoder) time(column string, v sql.NullInt64) int64 {
	return StoreToUnixMilli(d.int(column, v))
}

func optString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func optInt(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	n := v.Int64
	return &n
}

// Constructors. They take already-resolved relations and never query.

func newConversation(r conversationRow, participants []Participant, last *Message) (Conversation, error) {
	d := newDecoder("conversation", r.rowID, r.guid)
	c := Conversation{
		RowID:               d.int("ROWID", r.rowID),
		GUID:                d.str("guid", r.guid),
		Style:               d.int("style", r.style),
		ChatIdentifier:      d.str("chat_identifier", r.chatIdentifier),
		ServiceName:         optString(r.serviceName),
		IsArchived:          d.flag("is_archived", r.isArchived),
		IsFiltered:          d.flag("is_filtered", r.isFiltered),
		DisplayName:         optString(r.displayName),
		GroupID:             d.str("group_id", r.groupID),
		LastAddressedHandle: optString(r.lastAddressedHandle),
		Participants:        participants,
		LastMessage:         last,
	}
	return c, d.err
}

func newParticipant(r participantRow) (Participant, error) {
	d := newDecoder("participant", r.rowID, sql.NullString{})
	p := Participant{
		RowID:             d.int("ROWID", r.rowID),
		Address:           d.str("id", r.address),
		Country:           d.str("country", r.country),
		UncanonicalizedID: optString(r.uncanonicalizedID),
		Service:           d.str("service", r.svc),
	}
	return p, d.err
}

func newMessage(r messageRow, sender *Participant, attachments []Attachment, conversationGUID string) (Message, error) {
	if attachments == nil {
		attachments = []Attachment{}
	}
	d := newDecoder("message", r.rowID, r.guid)
	m := Message{
		RowID:            d.int("ROWID", r.rowID),
		GUID:             d.str("guid", r.guid),
		Text:             optString(r.text),
		Sender:           sender,
		SenderRowID:      d.int("handle_id", r.handleID),
		Subject:          optString(r.subject),
		Error:            d.int("error", r.errorCode),
		ConversationGUID: conversationGUID,
		Attachments:      attachments,
		Service:          optString(r.service),

		ItemType:              d.int("item_type", r.itemType),
		GroupActionType:       d.int("group_action_type", r.groupActionType),
		OtherHandle:           optInt(r.otherHandle),
		GroupTitle:            optString(r.groupTitle),
		AssociatedMessageGUID: optString(r.associatedMessageGUID),
		AssociatedMessageType: optInt(r.associatedMessageType),
		ExpressiveSendStyleID: optString(r.expressiveSendStyleID),
		ThreadOriginatorGUID:  optString(r.threadOriginatorGUID),
		ThreadOriginatorPart:  optString(r.threadOriginatorPart),
		Country:               optString(r.country),
		CacheRoomnames:        optString(r.cacheRoomnames),
		ReplyToGUID:           optString(r.replyToGUID),
		ShareStatus:           d.int("share_status", r.shareStatus),
		ShareDirection:        d.int("share_direction", r.shareDirection),

		IsFromMe:            d.flag("is_from_me", r.isFromMe),
		IsDelayed:           d.flag("is_delayed", r.isDelayed),
		IsAutoReply:         d.flag("is_auto_reply", r.isAutoReply),
		IsSystemMessage:     d.flag("is_system_message", r.isSystemMessage),
		IsServiceMessage:    d.flag("is_service_message", r.isServiceMessage),
		IsForward:           d.flag("is_forward", r.isForward),
		IsCorrupt:           d.flag("is_corrupt", r.isCorrupt),
		IsSpam:              d.flag("is_spam", r.isSpam),
		IsAudioMessage:      d.flag("is_audio_message", r.isAudioMessage),
		HasDDResults:        d.flag("has_dd_results", r.hasDDResults),
		WasDeliveredQuietly: d.flag("was_delivered_quietly", r.wasDeliveredQuietly),
		DidNotifyRecipient:  d.flag("did_notify_recipient", r.didNotifyRecipient),

		DateCreated:   d.time("date", r.date),
		DateRead:      d.time("date_read", r.dateRead),
		DateDelivered: d.time("date_delivered", r.dateDelivered),
		DatePlayed:    d.time("date_played", r.datePlayed),
	}
	return m, d.err
}

func newAttachment(r attachmentRow, width, height *int) (Attachment, error) {
	d := newDecoder("attachment", r.rowID, r.guid)
	a := Attachment{
		RowID:          d.int("ROWID", r.rowID),
		GUID:           d.str("guid", r.guid),
		UTI:            optString(r.uti),
		MIMEType:       optString(r.mimeType),
		TransferName:   d.str("transfer_name", r.transferName),
		TotalBytes:     d.int("total_bytes", r.totalBytes),
		TransferState:  d.int("transfer_state", r.transferState),
		IsOutgoing:     d.flag("is_outgoing", r.isOutgoing),
		HideAttachment: d.flag("hide_attachment", r.hideAttachment),
		IsSticker:      d.flag("is_sticker", r.isSticker),
		OriginalGUID:   d.str("original_guid", r.originalGUID),
		Filename:       optString(r.filename),
		Width:          width,
		Height:         height,
		Metadata:       "{}",
	}
	return a, d.err
}
