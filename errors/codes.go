package errors

// ErrorCode identifies an application error class
type ErrorCode int

const (
	ErrorCode_UNSPECIFIED ErrorCode = iota
	ErrorCode_INTERNAL
	ErrorCode_INVALID_ARGUMENT
	ErrorCode_NOT_FOUND
	ErrorCode_ALREADY_EXISTS
	ErrorCode_PERMISSION_DENIED
	ErrorCode_UNAUTHENTICATED
	ErrorCode_FORBIDDEN

	// Authentication
	ErrorCode_AUTH_INVALID_TOKEN
	ErrorCode_AUTH_TOKEN_EXPIRED

	// Huddle management
	ErrorCode_HUDDLE_NOT_FOUND
	ErrorCode_HUDDLE_CLOSED

	// Turn pipeline
	ErrorCode_TURN_CLIP_MISSING
	ErrorCode_TURN_DUPLICATE
	ErrorCode_EXTRACTION_FAILED
	ErrorCode_TRANSCRIPTION_FAILED
	ErrorCode_RESOLUTION_FAILED
	ErrorCode_SUMMARY_IMMUTABLE

	// Integrations
	ErrorCode_INTEGRATION_STORAGE_FAILED
	ErrorCode_INTEGRATION_CACHE_FAILED

	// Database
	ErrorCode_DB_CONNECTION_FAILED
	ErrorCode_DB_TRANSACTION_FAILED

	ErrorCode_INVALID_PAYLOAD
	ErrorCode_HTTP_OK
)

var errorCodeNames = map[ErrorCode]string{
	ErrorCode_UNSPECIFIED:                "UNSPECIFIED",
	ErrorCode_INTERNAL:                   "INTERNAL",
	ErrorCode_INVALID_ARGUMENT:           "INVALID_ARGUMENT",
	ErrorCode_NOT_FOUND:                  "NOT_FOUND",
	ErrorCode_ALREADY_EXISTS:             "ALREADY_EXISTS",
	ErrorCode_PERMISSION_DENIED:          "PERMISSION_DENIED",
	ErrorCode_UNAUTHENTICATED:            "UNAUTHENTICATED",
	ErrorCode_FORBIDDEN:                  "FORBIDDEN",
	ErrorCode_AUTH_INVALID_TOKEN:         "AUTH_INVALID_TOKEN",
	ErrorCode_AUTH_TOKEN_EXPIRED:         "AUTH_TOKEN_EXPIRED",
	ErrorCode_HUDDLE_NOT_FOUND:           "HUDDLE_NOT_FOUND",
	ErrorCode_HUDDLE_CLOSED:              "HUDDLE_CLOSED",
	ErrorCode_TURN_CLIP_MISSING:          "TURN_CLIP_MISSING",
	ErrorCode_TURN_DUPLICATE:             "TURN_DUPLICATE",
	ErrorCode_EXTRACTION_FAILED:          "EXTRACTION_FAILED",
	ErrorCode_TRANSCRIPTION_FAILED:       "TRANSCRIPTION_FAILED",
	ErrorCode_RESOLUTION_FAILED:          "RESOLUTION_FAILED",
	ErrorCode_SUMMARY_IMMUTABLE:          "SUMMARY_IMMUTABLE",
	ErrorCode_INTEGRATION_STORAGE_FAILED: "INTEGRATION_STORAGE_FAILED",
	ErrorCode_INTEGRATION_CACHE_FAILED:   "INTEGRATION_CACHE_FAILED",
	ErrorCode_DB_CONNECTION_FAILED:       "DB_CONNECTION_FAILED",
	ErrorCode_DB_TRANSACTION_FAILED:      "DB_TRANSACTION_FAILED",
	ErrorCode_INVALID_PAYLOAD:            "INVALID_PAYLOAD",
	ErrorCode_HTTP_OK:                    "HTTP_OK",
}

// String returns the symbolic name of the error code
func (c ErrorCode) String() string {
	if name, ok := errorCodeNames[c]; ok {
		return name
	}
	return "UNKNOWN"
}
