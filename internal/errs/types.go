package errs

type ErrorMessage struct {
	Message string
}

func (e *ErrorMessage) Error() string { return e.Message }

type NotFoundError struct {
	ErrorMessage
}

type AlreadyExistsError struct {
	ErrorMessage
}

type ValidationError struct {
	ErrorMessage
}

// DatabaseError wraps a storage failure with the operation that caused it.
type DatabaseError struct {
	ErrorMessage
	Operation string
	Err       error
}

func (e *DatabaseError) Unwrap() error { return e.Err }

// ExternalServiceError is a failure talking to a platform dependency
// (Secret Manager, Firestore auth, ...).
type ExternalServiceError struct {
	ErrorMessage
	Service   string
	Transient bool
	Err       error
}

func (e *ExternalServiceError) Unwrap() error { return e.Err }

type FetchErrorKind string

const (
	// FetchTransport covers network failures, timeouts, non-2xx statuses and unparseable bodies.
	FetchTransport FetchErrorKind = "transport"
	// FetchProvider is a well-formed response carrying a provider error marker.
	FetchProvider FetchErrorKind = "provider"
)

// FetchError is the single failure surfaced by a data fetch. Message is safe
// to show to the user.
type FetchError struct {
	ErrorMessage
	Kind FetchErrorKind
	URL  string
	Err  error
}

func (e *FetchError) Unwrap() error { return e.Err }

func NewNotFoundError(message string) *NotFoundError {
	return &NotFoundError{
		ErrorMessage: ErrorMessage{Message: message},
	}
}

func NewAlreadyExistsError(message string) *AlreadyExistsError {
	return &AlreadyExistsError{
		ErrorMessage: ErrorMessage{Message: message},
	}
}

func NewValidationError(message string) *ValidationError {
	return &ValidationError{
		ErrorMessage: ErrorMessage{Message: message},
	}
}

func NewDatabaseError(operation, message string, err error) *DatabaseError {
	return &DatabaseError{
		ErrorMessage: ErrorMessage{Message: message},
		Operation:    operation,
		Err:          err,
	}
}

func NewExternalServiceError(service, message string, transient bool, err error) *ExternalServiceError {
	return &ExternalServiceError{
		ErrorMessage: ErrorMessage{Message: message},
		Service:      service,
		Transient:    transient,
		Err:          err,
	}
}

func NewProviderError(message string) *FetchError {
	return &FetchError{
		ErrorMessage: ErrorMessage{Message: message},
		Kind:         FetchProvider,
	}
}

func NewTransportError(url string, err error) *FetchError {
	msg := "request failed"
	if err != nil {
		msg = err.Error()
	}
	return &FetchError{
		ErrorMessage: ErrorMessage{Message: msg},
		Kind:         FetchTransport,
		URL:          url,
		Err:          err,
	}
}
