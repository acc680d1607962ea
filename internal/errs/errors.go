package errs

import "errors"

// Common sentinel errors for cross-layer signaling.
var (
	ErrNotFound     = errors.New("not_found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalid      = errors.New("invalid")
	// ErrDuplicateName means the owner already has an active record with that name.
	ErrDuplicateName = errors.New("duplicate_name")
	// ErrInvalidConfiguration covers a missing, deleted or foreign account type or currency.
	ErrInvalidConfiguration = errors.New("invalid_configuration")
	// ErrInvalidCategory covers a missing, deleted or foreign category.
	ErrInvalidCategory = errors.New("invalid_category")
	// ErrCannotEditInitialTransaction is returned when an initial-balance transaction
	// is edited through the ordinary transaction path.
	ErrCannotEditInitialTransaction = errors.New("cannot_edit_initial_transaction")
	// ErrSystemCategory indicates the built-in category cannot be modified or deleted
	ErrSystemCategory = errors.New("system_category")
)

var known = []error{
	ErrNotFound, ErrUnauthorized, ErrInvalid, ErrDuplicateName, ErrInvalidConfiguration,
	ErrInvalidCategory, ErrCannotEditInitialTransaction, ErrSystemCategory,
}

// Code returns the short code of the sentinel wrapped by err: "ok" for nil and
// "error" for anything unrecognised.
func Code(err error) string {
	if err == nil { return "ok" }
	for _, k := range known {
		if errors.Is(err, k) { return k.Error() }
	}
	return "error"
}
