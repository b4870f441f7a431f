package audio

// Common error codes
const (
	ErrCodeNotFound    = "FILE_NOT_FOUND"
	ErrCodeUnsupported = "UNSUPPORTED_FORMAT"
	ErrCodeDecoding    = "DECODING_FAILED"
	ErrCodeEmptyAudio  = "EMPTY_AUDIO"
)

// Error represents a load or decode failure for an audio file.
type Error struct {
	Code    string `json:"code"`
	Path    string `json:"path"`
	Message string `json:"message"`
	Cause   error  `json:"-"`
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new audio error
func NewError(code, path, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Path:    path,
		Message: message,
		Cause:   cause,
	}
}
