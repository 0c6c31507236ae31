/*
Package errors provides semantic error types for the modelstore library.

The package defines the fault classes of the query and persistence layers with specific types
that can be checked using the standard errors.Is() function or the provided helper functions.

Common Errors:

	var (
	    ErrConfiguration         = errors.New("invalid model configuration")
	    ErrMissingPrimaryKey     = errors.New("no primary key specified")
	    ErrTooManyShadowKeys     = errors.New("maximum number of shadow key sets exceeded")
	    ErrConflictingShadowKeys = errors.New("conflicting shadow key configuration")
	    ErrCannotConvert         = errors.New("cannot convert value to key")
	    ErrInvalidInput          = errors.New("invalid input")
	)

Usage:

	err := store.Save(ctx, user)
	if errors.IsConfiguration(err) {
	    // The model declares its keys incorrectly; retrying will not help.
	}

	// Create typed errors
	err := errors.NewMissingPrimaryKeyError("User")
	err := errors.NewShadowLimitError("Order", 6, 5)
	err := errors.NewValidationError("label", "unknown label \"label9\"")

Errors returned by a storage engine are never wrapped by the query or model layers, so callers
can match engine-specific errors directly.
*/
package errors
