/*
Package errors provides semantic error types for kvobject.

The package defines common error scenarios with specific types that can be
checked using the standard errors.Is() function or the provided helper functions.

Common Errors:

	var (
	    ErrNotFound      = errors.New("entity not found")
	    ErrAlreadyExists = errors.New("already exists")
	    ErrInvalidInput  = errors.New("invalid input")
	    ErrFormat        = errors.New("format coercion failed")
	    ErrConnection    = errors.New("store connection failed")
	    ErrUnknownClass  = errors.New("unknown class")
	)

Lookups in the mapping layer report a missing entity as a nil result rather than
an error; ErrNotFound exists for callers that want to turn absence into an error.
Connection and format failures are never recovered by the mapping layer and always
reach the caller:

	v, err := order.Get(ctx, "created_at")
	if errors.IsFormatError(err) {
	    // the stored value is not a date
	}

The error types implement the error interface and support wrapping,
making them compatible with Go's standard error handling patterns.
*/
package errors
