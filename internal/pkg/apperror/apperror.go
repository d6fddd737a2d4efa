package apperror

// StatusClientClosedRequest is the non-standard status for a caller that went away mid-request.
const StatusClientClosedRequest = 499

// AppError is a custom error type that includes an HTTP status code and an optional internal error code.
type AppError struct {
	Code    int    // HTTP Status Code (e.g., 400, 404)
	Reason  string // Machine-readable reason (e.g., "activity_full"), empty when not needed
	Message string // User-facing error message
	Details any    // Structured detail rendered to the client, if any
	Err     error  // The underlying error, if any (not exposed to user)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches another AppError carrying the same non-empty Reason,
// so copies produced by WithDetails or WithCause still match their sentinel.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok || t.Reason == "" {
		return false
	}
	return t.Reason == e.Reason
}

// WithDetails returns a copy of e carrying the given details.
func (e *AppError) WithDetails(details any) *AppError {
	cp := *e
	cp.Details = details
	return &cp
}

// WithCause returns a copy of e wrapping err.
func (e *AppError) WithCause(err error) *AppError {
	cp := *e
	cp.Err = err
	return &cp
}

// NewWithReason creates a new AppError with a status code, a machine-readable reason and message.
func NewWithReason(code int, reason, message string) *AppError {
	return &AppError{
		Code:    code,
		Reason:  reason,
		Message: message,
	}
}
