package utils

import "fmt"

// Kind buckets an error by its handling policy: collection, validation, and
// external-service errors degrade a single investigation; configuration errors
// are fatal and only legal at startup.
type Kind string

const (
	KindCollection    Kind = "collection"
	KindValidation    Kind = "validation"
	KindExternal      Kind = "external_service"
	KindConfiguration Kind = "configuration"
)

// AppError wraps an operation, handling kind, human-facing message, and
// underlying error.
type AppError struct {
	Op   string
	Kind Kind
	Msg  string
	Err  error
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Msg)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Msg, e.Err)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// CollectionError marks a single collaborator failure; non-fatal.
func CollectionError(op, msg string, err error) error {
	return &AppError{Op: op, Kind: KindCollection, Msg: msg, Err: err}
}

// ValidationError marks a module that cannot proceed without required fields;
// it aborts only that module.
func ValidationError(op, msg string, err error) error {
	return &AppError{Op: op, Kind: KindValidation, Msg: msg, Err: err}
}

// ExternalError marks an auth or network failure from a collaborator.
func ExternalError(op, msg string, err error) error {
	return &AppError{Op: op, Kind: KindExternal, Msg: msg, Err: err}
}

// ConfigurationError marks a fatal startup misconfiguration.
func ConfigurationError(op, msg string, err error) error {
	return &AppError{Op: op, Kind: KindConfiguration, Msg: msg, Err: err}
}

// KindOf extracts the handling kind from an error chain, defaulting to
// KindExternal for unclassified errors crossing a collaborator boundary.
func KindOf(err error) Kind {
	var app *AppError
	for err != nil {
		if e, ok := err.(*AppError); ok {
			app = e
			break
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	if app == nil {
		return KindExternal
	}
	return app.Kind
}
