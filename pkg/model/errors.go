package model

// Error codes for model failures.
const (
	ErrCodeLoad      = "MODEL_LOAD_FAILED"
	ErrCodeInference = "INFERENCE_FAILED"
	ErrCodeShape     = "SHAPE_MISMATCH"
)

// Error represents a model load or inference failure.
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

// NewError creates a new model error
func NewError(code, path, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Path:    path,
		Message: message,
		Cause:   cause,
	}
}
