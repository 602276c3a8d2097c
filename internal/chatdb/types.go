package chatdb

import (
	"fmt"
	"strings"
)

// Conversation is a chat thread materialized from the chat table.
type Conversation struct {
	RowID               int64   `json:"originalROWID"`
	GUID                string  `json:"guid"`
	Style               int64   `json:"style"`
	ChatIdentifier      string  `json:"chatIdentifier"`
	ServiceName         *string `json:"serviceName"`
	IsArchived          bool    `json:"isArchived"`
	IsFiltered          bool    `json:"isFiltered"`
	DisplayName         *string `json:"displayName"`
	GroupID             string  `json:"groupId"`
	LastAddressedHandle *string `json:"lastAddressedHandle"`

	// Participants is nil unless participants were requested. A requested
	// but empty set is a non-nil empty slice.
	Participants []Participant `json:"participants"`
	// LastMessage is nil unless requested, or when the conversation has no
	// messages.
	LastMessage *Message `json:"lastMessage"`
}

// Participant is a handle row: an address some messages and chats refer to.
type Participant struct {
	RowID             int64   `json:"originalROWID"`
	Address           string  `json:"address"`
	Country           string  `json:"country"`
	UncanonicalizedID *string `json:"uncanonicalizedId"`
	Service           string  `json:"service"`
}

// Message is a message row with its owning conversation and optionally its
// sender and attachments. All Date fields are Unix milliseconds.
type Message struct {
	RowID            int64        `json:"originalROWID"`
	GUID             string       `json:"guid"`
	Text             *string      `json:"text"`
	Sender           *Participant `json:"handle"`
	SenderRowID      int64        `json:"handleId"`
	Subject          *string      `json:"subject"`
	Error            int64        `json:"error"`
	ConversationGUID string       `json:"chatGuid"`
	Attachments      []Attachment `json:"attachments"`
	Service          *string      `json:"service"`

	ItemType              int64   `json:"itemType"`
	GroupActionType       int64   `json:"groupActionType"`
	OtherHandle           *int64  `json:"otherHandle"`
	GroupTitle            *string `json:"groupTitle"`
	AssociatedMessageGUID *string `json:"associatedMessageGuid"`
	AssociatedMessageType *int64  `json:"associatedMessageType"`
	ExpressiveSendStyleID *string `json:"expressiveSendStyleId"`
	ThreadOriginatorGUID  *string `json:"threadOriginatorGuid"`
	ThreadOriginatorPart  *string `json:"threadOriginatorPart"`
	Country               *string `json:"country"`
	CacheRoomnames        *string `json:"cacheRoomnames"`
	ReplyToGUID           *string `json:"replyToGuid"`
	ShareStatus           int64   `json:"shareStatus"`
	ShareDirection        int64   `json:"shareDirection"`

	IsFromMe            bool `json:"isFromMe"`
	IsDelayed           bool `json:"isDelayed"`
	IsAutoReply         bool `json:"isAutoReply"`
	IsSystemMessage     bool `json:"isSystemMessage"`
	IsServiceMessage    bool `json:"isServiceMessage"`
	IsForward           bool `json:"isForward"`
	IsCorrupt           bool `json:"isCorrupt"`
	IsSpam              bool `json:"isSpam"`
	IsAudioMessage      bool `json:"isAudioMessage"`
	HasDDResults        bool `json:"hasDdResults"`
	WasDeliveredQuietly bool `json:"wasDeliveredQuietly"`
	DidNotifyRecipient  bool `json:"didNotifyRecipient"`

	DateCreated   int64 `json:"dateCreated"`
	DateRead      int64 `json:"dateRead"`
	DateDelivered int64 `json:"dateDelivered"`
	DatePlayed    int64 `json:"datePlayed"`
}

// Attachment is an attachment row. Width and Height are only set when the
// referenced file could be decoded as an image.
type Attachment struct {
	RowID          int64   `json:"originalROWID"`
	GUID           string  `json:"guid"`
	UTI            *string `json:"uti"`
	MIMEType       *string `json:"mimeType"`
	TransferName   string  `json:"transferName"`
	TotalBytes     int64   `json:"totalBytes"`
	TransferState  int64   `json:"transferState"`
	IsOutgoing     bool    `json:"isOutgoing"`
	HideAttachment bool    `json:"hideAttachment"`
	IsSticker      bool    `json:"isSticker"`
	OriginalGUID   string  `json:"originalGuid"`
	HasLivePhoto   bool    `json:"hasLivePhoto"`
	Filename       *string `json:"filename"`
	Width          *int    `json:"width"`
	Height         *int    `json:"height"`
	Metadata       string  `json:"metadata"`
}

// ServiceBreakdown counts conversations per service. Breakdown only carries
// the configured known services (always present, possibly zero); Observed
// carries every service name seen.
type ServiceBreakdown struct {
	Total     int            `json:"total"`
	Breakdown map[string]int `json:"breakdown"`
	Observed  map[string]int `json:"observed"`
}

// EntityKind names a countable table.
type EntityKind string

const (
	KindConversation EntityKind = "conversation"
	KindMessage      EntityKind = "message"
	KindParticipant  EntityKind = "participant"
	KindAttachment   EntityKind = "attachment"
)

var kindTables = map[EntityKind]string{
	KindConversation: "chat",
	KindMessage:      "message",
	KindParticipant:  "handle",
	KindAttachment:   "attachment",
}

// ParseEntityKind accepts the kind names plus the store's own table names.
func ParseEntityKind(s string) (EntityKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "conversation", "conversations", "chat", "chats":
		return KindConversation, nil
	case "message", "messages":
		return KindMessage, nil
	case "participant", "participants", "handle", "handles":
		return KindParticipant, nil
	case "attachment", "attachments":
		return KindAttachment, nil
	}
	return "", fmt.Errorf("unknown entity kind %q", s)
}

// SortOrder orders ranged message listings by creation time.
type SortOrder int

const (
	// SortDescending is newest first. It is the zero value.
	SortDescending SortOrder = iota
	SortAscending
)

// ParseSortOrder maps "ASC"/"DESC" (any case) to a SortOrder. Empty is
// descending.
func ParseSortOrder(s string) (SortOrder, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "DESC":
		return SortDescending, nil
	case "ASC":
		return SortAscending, nil
	}
	return SortDescending, fmt.Errorf("invalid sort order %q", s)
}

func (o SortOrder) String() string {
	if o == SortAscending {
		return "ASC"
	}
	return "DESC"
}

// LastMessageOrder picks which end of a conversation is reported as its
// "last" message.
type LastMessageOrder int

const (
	// LastMessageEarliest reports the oldest message in the conversation.
	// This is what existing clients have always received.
	LastMessageEarliest LastMessageOrder = iota
	// LastMessageLatest reports the newest message.
	LastMessageLatest
)

// ParseLastMessageOrder maps "earliest"/"latest" to a LastMessageOrder.
func ParseLastMessageOrder(s string) (LastMessageOrder, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "earliest":
		return LastMessageEarliest, nil
	case "latest":
		return LastMessageLatest, nil
	}
	return LastMessageEarliest, fmt.Errorf("invalid last message order %q", s)
}

// MessageOptions selects which relations of a message are resolved.
type MessageOptions struct {
	WithSender      bool
	WithAttachments bool
}

// ConversationOptions selects which relations of a conversation are
// resolved. LastMessage applies to the resolved last message.
type ConversationOptions struct {
	WithParticipants bool
	WithLastMessage  bool
	LastMessage      MessageOptions
}

// ConversationQuery pages through conversations. Sort is accepted from
// callers but conversations are always returned in store order.
type ConversationQuery struct {
	ConversationOptions
	Limit  int
	Offset int
	Sort   string
}

// MessageQuery selects a time window of one conversation's messages. After
// and Before are exclusive store-epoch bounds. Before applies only when
// HasBefore is set; a bound of 0 then selects nothing.
type MessageQuery struct {
	MessageOptions
	Offset    int
	Limit     int
	Sort      SortOrder
	After     int64
	Before    int64
	HasBefore bool
}
