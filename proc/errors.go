package proc

import (
	"errors"
	"fmt"
)

// Kind classifies failures so the router can pick a notice and decide
// whether the ops log needs to hear about it.
type Kind int

const (
	KindUnknown Kind = iota
	KindPreconditionFailed
	KindPermissionDenied
	KindInvalidArgument
	KindNotFound
	KindOutOfRange
	KindAlreadyInState
	KindNothingToSkip
	KindExternalFailure
)

func (k Kind) String() string {
	switch k {
	case KindPreconditionFailed:
		return "precondition_failed"
	case KindPermissionDenied:
		return "permission_denied"
	case KindInvalidArgument:
		return "invalid_argument"
	case KindNotFound:
		return "not_found"
	case KindOutOfRange:
		return "out_of_range"
	case KindAlreadyInState:
		return "already_in_state"
	case KindNothingToSkip:
		return "nothing_to_skip"
	case KindExternalFailure:
		return "external_failure"
	default:
		return "unknown"
	}
}

// Error is a user-facing failure. Msg is safe to show in chat.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches sentinels by kind and message, ignoring the wrapped cause.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Msg == t.Msg
}

func newError(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

var (
	ErrNotInVoice       = newError(KindPreconditionFailed, "You need to be in a voice channel to use this command!")
	ErrWrongVoice       = newError(KindPreconditionFailed, "You need to be in the same voice channel as the bot!")
	ErrPermissionDenied = newError(KindPermissionDenied, "You don't have permission to use this command!")

	ErrInvalidVolume   = newError(KindInvalidArgument, "Volume must be a whole number between 0 and 100!")
	ErrInvalidPosition = newError(KindInvalidArgument, "Please provide a valid track position!")
	ErrInvalidPage     = newError(KindInvalidArgument, "Please provide a valid page number!")
	ErrMissingQuery    = newError(KindInvalidArgument, "Please provide a song name or link!")

	ErrNoSession      = newError(KindNotFound, "No active player found!")
	ErrNothingPlaying = newError(KindNotFound, "Nothing is playing right now!")
	ErrNoResults      = newError(KindNotFound, "No results found!")

	ErrQueueEmpty = newError(KindNotFound, "Queue is empty! Add some tracks with the play command.")

	ErrOutOfRange = newError(KindOutOfRange, "That position is not in the queue!")

	ErrQueueAlreadyEmpty = newError(KindPreconditionFailed, "Queue is already empty!")
	ErrShuffleTooSmall   = newError(KindPreconditionFailed, "Not enough tracks in queue to shuffle!")

	ErrAlreadyPaused  = newError(KindAlreadyInState, "The player is already paused!")
	ErrAlreadyPlaying = newError(KindAlreadyInState, "The player is already playing!")

	ErrNothingToSkip = newError(KindNothingToSkip, "There is nothing to skip!")
)

// InvalidArgument builds an ad-hoc InvalidArgument error with a chat-safe message.
func InvalidArgument(msg string) error {
	return newError(KindInvalidArgument, msg)
}

// External wraps a collaborator failure; op names the operation for the ops log.
func External(op string, err error) error {
	if err == nil {
		return nil
	}
	var pe *Error
	if errors.As(err, &pe) {
		return err
	}
	return &Error{Kind: KindExternalFailure, Msg: "Something went wrong while trying to " + op + ".", Err: err}
}

// KindOf reports the Kind of err, or KindUnknown when it is not a *Error.
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindUnknown
}

// UserMessage returns the chat-safe text for err.
func UserMessage(err error) string {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Msg
	}
	return "An unexpected error occurred."
}
