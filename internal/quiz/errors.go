package quiz

import (
	"errors"
	"fmt"
)

// Kind classifies failures so callers can branch without string matching.
type Kind string

const (
	KindConfig    Kind = "config"
	KindTransport Kind = "transport"
	KindEnvelope  Kind = "envelope"
	KindParse     Kind = "parse"
	KindStructure Kind = "structure"
	KindSession   Kind = "session"
	KindUnknown   Kind = "unknown"
)

var (
	ErrMissingParameter     = errors.New("missing quiz parameter")
	ErrUnsupportedParameter = errors.New("unsupported quiz parameter")

	ErrUnexpectedEnvelope = errors.New("unexpected response structure")

	ErrNotArray             = errors.New("quiz payload is not an array")
	ErrEmptyQuiz            = errors.New("quiz payload is empty")
	ErrNotObject            = errors.New("question is not an object")
	ErrMissingQuestion      = errors.New("question text is missing")
	ErrBadOptions           = errors.New("question must have exactly 4 options")
	ErrMissingCorrectAnswer = errors.New("correct answer is missing")

	ErrNoAnswerSelected = errors.New("no answer selected")
	ErrUnknownOption    = errors.New("unknown option")
	ErrNotAnswerable    = errors.New("no question is awaiting an answer")
)

// Error is the single error type surfaced by the quiz pipeline and session.
type Error struct {
	Kind    Kind
	Message string
	// Status is the upstream HTTP status for transport failures.
	Status int
	// Detail holds diagnostic text, e.g. the span that failed to parse.
	Detail string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Message == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// UserMessage is the text shown to a player for this failure.
func (e *Error) UserMessage() string {
	switch e.Kind {
	case KindTransport, KindEnvelope, KindParse, KindStructure:
		return fmt.Sprintf("Failed to load quiz: %s. This might be due to an invalid prompt or API issues. Please try again.", e.Error())
	case KindConfig:
		if errors.Is(e.Err, ErrUnsupportedParameter) {
			return fmt.Sprintf("Quiz parameters are invalid (%s). Please go back and select your quiz preferences.", e.Message)
		}
		missing := e.Detail
		if missing == "" {
			missing = e.Message
		}
		return fmt.Sprintf("Quiz parameters are missing (%s). Please go back and select your quiz preferences.", missing)
	default:
		return e.Error()
	}
}

// KindOf returns the Kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var qe *Error
	if errors.As(err, &qe) {
		return qe.Kind
	}
	return KindUnknown
}

// AsError returns err as *Error, wrapping foreign errors with KindUnknown.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var qe *Error
	if errors.As(err, &qe) {
		return qe
	}
	return &Error{Kind: KindUnknown, Message: err.Error(), Err: err}
}
