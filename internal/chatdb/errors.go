package chatdb

import (
	"errors"
	"fmt"
)

// ErrOrphanMessage is returned when a message has no owning conversation.
// Every message belongs to exactly one chat, so this indicates a damaged or
// mid-write store rather than a missing row.
var ErrOrphanMessage = errors.New("message has no owning conversation")

// DecodeError reports a row whose required column was NULL or had the wrong
// type.
type DecodeError struct {
	Entity string
	Key    string
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s %s: %v", e.Entity, e.Key, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// IsDecodeError reports whether err wraps a *DecodeError.
func IsDecodeError(err error) bool {
	var de *DecodeError
	return errors.As(err, &de)
}

func orphanError(messageGUID string) error {
	return fmt.Errorf("message %q: %w", messageGUID, ErrOrphanMessage)
}
