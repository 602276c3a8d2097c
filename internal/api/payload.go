package api

import (
	"encoding/json"
	"fmt"
	"math"

	"google.golang.org/grpc/codes"
	grpcstatus "google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// Encode converts any JSON-marshalable value into a Struct. v must marshal
// to a JSON object.
func Encode(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(data, out); err != nil {
		return nil, fmt.Errorf("payload to struct: %w", err)
	}
	return out, nil
}

// Decode fills v, a pointer, from s by way of JSON.
func Decode(s *structpb.Struct, v any) error {
	data, err := protojson.Marshal(s)
	if err != nil {
		return fmt.Errorf("struct to payload: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}
	return nil
}

func encodeResponse(v any) (*structpb.Struct, error) {
	out, err := Encode(v)
	if err != nil {
		return nil, grpcstatus.Errorf(codes.Internal, "%v", err)
	}
	return out, nil
}

// request reads typed fields from a Struct request. Absent fields take the
// supplied defaults; present fields of the wrong kind are InvalidArgument.
type request struct {
	fields map[string]*structpb.Value
}

func newRequest(in *structpb.Struct) request {
	return request{fields: in.GetFields()}
}

func (r request) value(key string) (*structpb.Value, bool) {
	v, ok := r.fields[key]
	if !ok {
		return nil, false
	}
	if _, isNull := v.GetKind().(*structpb.Value_NullValue); isNull {
		return nil, false
	}
	return v, true
}

func (r request) str(key string) (string, error) {
	v, ok := r.value(key)
	if !ok {
		return "", nil
	}
	s, ok := v.GetKind().(*structpb.Value_StringValue)
	if !ok {
		return "", invalid("%s must be a string", key)
	}
	return s.StringValue, nil
}

func (r request) requiredStr(key string) (string, error) {
	s, err := r.str(key)
	if err != nil {
		return "", err
	}
	if s == "" {
		return "", invalid("%s is required", key)
	}
	return s, nil
}

func (r request) flag(key string) (bool, error) {
	v, ok := r.value(key)
	if !ok {
		return false, nil
	}
	b, ok := v.GetKind().(*structpb.Value_BoolValue)
	if !ok {
		return false, invalid("%s must be a bool", key)
	}
	return b.BoolValue, nil
}

// int reads a non-negative whole number.
func (r request) int(key string, def int64) (int64, error) {
	v, ok := r.value(key)
	if !ok {
		return def, nil
	}
	n, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return 0, invalid("%s must be a number", key)
	}
	f := n.NumberValue
	if f < 0 || f != math.Trunc(f) || f >= math.MaxInt64 {
		return 0, invalid("%s must be a non-negative integer", key)
	}
	return int64(f), nil
}

func invalid(format string, args ...any) error {
	return grpcstatus.Errorf(codes.InvalidArgument, format, args...)
}
