package apperror

// Kind is a stable machine-readable error category. Callers branch on Kind,
// never on message text.
type Kind string

const (
	KindValidation       Kind = "validation"
	KindNotFound         Kind = "not_found"
	KindIllegalState     Kind = "illegal_state"
	KindConflict         Kind = "conflict"
	KindStoreUnavailable Kind = "store_unavailable"
	KindInternal         Kind = "internal"
)

// AppError is a custom error type that includes an HTTP status code, an error
// kind for programmatic handling, and an optional underlying error.
type AppError struct {
	Status  int    // HTTP status code (e.g., 400, 404)
	Kind    Kind   // Machine-readable category
	Message string // User-facing error message
	Field   string // Offending field for validation errors, empty otherwise
	Err     error  // The underlying error, if any (not exposed to user)
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError with a status code, kind and message.
func New(status int, kind Kind, message string) *AppError {
	return &AppError{
		Status:  status,
		Kind:    kind,
		Message: message,
	}
}

// Validation creates a field-level validation error.
func Validation(field, message string) *AppError {
	return &AppError{
		Status:  400,
		Kind:    KindValidation,
		Message: message,
		Field:   field,
	}
}

// Wrap creates a new AppError wrapping an existing error.
func Wrap(err error, status int, kind Kind, message string) *AppError {
	return &AppError{
		Status:  status,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}
