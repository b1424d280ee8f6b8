package services

import (
	"errors"
	"fmt"
)

// Error kinds. Handlers map them to HTTP status codes with errors.Is.
var (
	ErrValidation   = errors.New("validation failed")
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrUpstream     = errors.New("upstream failure")
	ErrUnavailable  = errors.New("service unavailable")
)

// Error carries a client-safe message alongside its kind.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Kind }

func validationError(format string, args ...interface{}) error {
	return &Error{Kind: ErrValidation, Message: fmt.Sprintf(format, args...)}
}

func notFound(msg string) error {
	return &Error{Kind: ErrNotFound, Message: msg}
}

func unauthorized(msg string) error {
	return &Error{Kind: ErrUnauthorized, Message: msg}
}

// Client-facing messages shared across services.
const (
	MsgUserNotFound     = "User not found."
	MsgNoteMissing      = "Note not found."
	MsgNoteNotFound     = "Note not found / User is unauthorized."
	MsgNoteNotOwned     = "User is not authorized to delete the file."
	MsgChatNotFound     = "Chat not found"
	MsgNotParticipant   = "Sender is not a participant in this chat."
	MsgUploadsDisabled  = "File uploads are not available."
	MsgGenericFailure   = "Something went wrong."
	MsgNoteDeleted      = "Note deleted successfully."
	MsgUserIDsRequired  = "user1Id and user2Id are required"
	MsgSenderRequired   = "senderId and message are required"
	MsgMoodRequired     = "Mood and moodValue are required."
	MsgAIMessageMissing = "Message is required."
)
