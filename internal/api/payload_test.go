package api

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/matheus3301/imsg/internal/chatdb"
	"google.golang.org/grpc/codes"
	grpcstatus "google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

func mustStruct(t *testing.T, m map[string]any) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(m)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestEncodeDecodeKeepsMillis(t *testing.T) {
	text := "hi"
	in := chatdb.Message{RowID: 7, GUID: "g", Text: &text, DateCreated: 1709294400123, Attachments: []chatdb.Attachment{}}

	s, err := Encode(in)
	if err != nil {
		t.Fatalf("Encode error = %v", err)
	}
	var out chatdb.Message
	if err := Decode(s, &out); err != nil {
		t.Fatalf("Decode error = %v", err)
	}
	if out.DateCreated != in.DateCreated || out.RowID != 7 || out.Text == nil || *out.Text != "hi" {
		t.Errorf("round trip = %+v", out)
	}
	if out.Sender != nil {
		t.Errorf("sender = %+v, want nil", out.Sender)
	}
}

func TestEncodeRejectsNonObject(t *testing.T) {
	if _, err := Encode([]int{1}); err == nil {
		t.Error("expected error for non-object payload")
	}
}

func TestRequestInt(t *testing.T) {
	tests := []struct {
		name    string
		fields  map[string]any
		want    int64
		wantErr bool
	}{
		{"absent", map[string]any{}, 1000, false},
		{"null", map[string]any{"limit": nil}, 1000, false},
		{"zero", map[string]any{"limit": 0}, 0, false},
		{"whole", map[string]any{"limit": 25}, 25, false},
		{"negative", map[string]any{"limit": -1}, 0, true},
		{"fraction", map[string]any{"limit": 1.5}, 0, true},
		{"string", map[string]any{"limit": "10"}, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := newRequest(mustStruct(t, tt.fields)).int("limit", 1000)
			if tt.wantErr {
				if grpcstatus.Code(err) != codes.InvalidArgument {
					t.Errorf("code = %v, want InvalidArgument", grpcstatus.Code(err))
				}
				return
			}
			if err != nil {
				t.Fatalf("int error = %v", err)
			}
			if got != tt.want {
				t.Errorf("int = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestRequestFlagAndString(t *testing.T) {
	req := newRequest(mustStruct(t, map[string]any{"with_sender": true, "guid": "x", "bad": 3}))

	if v, err := req.flag("with_sender"); err != nil || !v {
		t.Errorf("flag = %v, %v", v, err)
	}
	if v, err := req.flag("with_attachments"); err != nil || v {
		t.Errorf("absent flag = %v, %v", v, err)
	}
	if _, err := req.flag("guid"); grpcstatus.Code(err) != codes.InvalidArgument {
		t.Errorf("string as flag code = %v", grpcstatus.Code(err))
	}
	if v, err := req.requiredStr("guid"); err != nil || v != "x" {
		t.Errorf("requiredStr = %q, %v", v, err)
	}
	if _, err := req.requiredStr("missing"); grpcstatus.Code(err) != codes.InvalidArgument {
		t.Errorf("missing required code = %v", grpcstatus.Code(err))
	}
	if _, err := req.str("bad"); grpcstatus.Code(err) != codes.InvalidArgument {
		t.Errorf("number as string code = %v", grpcstatus.Code(err))
	}
}

func TestMessageQueryFromRequest(t *testing.T) {
	after := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	q, err := messageQuery(newRequest(mustStruct(t, map[string]any{
		"with_attachments": true,
		"sort":             "asc",
		"after":            after.UnixMilli(),
		"offset":           3,
	})))
	if err != nil {
		t.Fatalf("messageQuery error = %v", err)
	}
	if q.Limit != DefaultLimit || q.Offset != 3 {
		t.Errorf("window = %d/%d, want %d/3", q.Limit, q.Offset, DefaultLimit)
	}
	if q.Sort != chatdb.SortAscending || !q.WithAttachments || q.WithSender {
		t.Errorf("query = %+v", q)
	}
	if q.After != chatdb.StoreEpochFromTime(after) {
		t.Errorf("after = %d, want %d", q.After, chatdb.StoreEpochFromTime(after))
	}
	if q.HasBefore {
		t.Errorf("before = %d, want open", q.Before)
	}

	_, err = messageQuery(newRequest(mustStruct(t, map[string]any{"sort": "sideways"})))
	if grpcstatus.Code(err) != codes.InvalidArgument {
		t.Errorf("bad sort code = %v, want InvalidArgument", grpcstatus.Code(err))
	}
}

func TestMessageQueryBefore(t *testing.T) {
	recent := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name       string
		before     any
		wantBound  bool
		wantBefore int64
	}{
		{"absent", nil, false, 0},
		{"zero is open", 0, false, 0},
		{"recent", recent.UnixMilli(), true, chatdb.StoreEpochFromTime(recent)},
		{"pre-2001 selects nothing", 1000, true, 0},
		{"store epoch selects nothing", chatdb.AppleEpochOffset / int64(time.Millisecond), true, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := map[string]any{}
			if tt.before != nil {
				fields["before"] = tt.before
			}
			q, err := messageQuery(newRequest(mustStruct(t, fields)))
			if err != nil {
				t.Fatalf("messageQuery error = %v", err)
			}
			if q.HasBefore != tt.wantBound || q.Before != tt.wantBefore {
				t.Errorf("before = %d bounded=%v, want %d bounded=%v", q.Before, q.HasBefore, tt.wantBefore, tt.wantBound)
			}
		})
	}
}

func TestToStatus(t *testing.T) {
	orphan := fmt.Errorf("get message: %w", chatdb.ErrOrphanMessage)
	if got := grpcstatus.Code(toStatus(orphan)); got != codes.DataLoss {
		t.Errorf("orphan code = %v, want DataLoss", got)
	}
	decode := &chatdb.DecodeError{Entity: "message", Key: "g", Err: errors.New("guid is NULL")}
	if got := grpcstatus.Code(toStatus(decode)); got != codes.Internal {
		t.Errorf("decode code = %v, want Internal", got)
	}
}

func TestQueryServiceWithoutStore(t *testing.T) {
	svc := NewQueryService("test", nil, nil, nil)
	_, err := svc.GetMessage(t.Context(), mustStruct(t, map[string]any{"guid": "g"}))
	if grpcstatus.Code(err) != codes.Unavailable {
		t.Errorf("code = %v, want Unavailable", grpcstatus.Code(err))
	}

	out, err := svc.GetStatus(t.Context(), nil)
	if err != nil {
		t.Fatalf("GetStatus error = %v", err)
	}
	var st Status
	if err := Decode(out, &st); err != nil {
		t.Fatal(err)
	}
	if st.Session != "test" || st.State != "" {
		t.Errorf("status = %+v", st)
	}
}
