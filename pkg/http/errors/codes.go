package errors

// Error codes for standardized error responses
const (
	// Validation errors
	ErrCodeInvalidRequest   = "invalid_request"
	ErrCodeValidationFailed = "validation_failed"
	ErrCodeMissingField     = "missing_field"

	// Resource errors
	ErrCodeNotFound         = "not_found"
	ErrCodeSessionNotFound  = "session_not_found"
	ErrCodeInvalidSessionID = "invalid_session_id"
	ErrCodeAttemptInFlight  = "attempt_in_flight"
	ErrCodeSessionBusy      = "session_busy"
	ErrCodeSessionClosed    = "session_closed"

	// Session errors
	ErrCodeNoAnswerSelected = "no_answer_selected"
	ErrCodeUnknownOption    = "unknown_option"
	ErrCodeNotAnswerable    = "not_answerable"

	// Quiz generation errors
	ErrCodeGenerationFailed = "generation_failed"

	// WebSocket errors
	ErrCodeInvalidPayload     = "invalid_payload"
	ErrCodeUnknownMessageType = "unknown_message_type"

	// Server errors
	ErrCodeInternalError = "internal_error"
	ErrCodeUpstreamError = "upstream_error"
)
