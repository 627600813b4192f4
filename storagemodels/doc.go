/*
Package storagemodels defines the query and streaming types shared by kvobject
classes.

RangeQuery:
Selects entries of one sort index, optionally scoped to a parent:

	q := storagemodels.RangeQuery{
	    Index:      "created_at",
	    ParentKey:  customer.HashKey(),
	    Count:      10,
	    Descending: true,
	}

StreamResult:
Results from streaming enumeration with metadata:

	type StreamResult[T any] struct {
	    Item  T          // The resolved entity
	    Key   string     // Membership key it was resolved from
	    Error error      // Item-specific error, if any
	    Meta  StreamMeta // Metadata about this item
	}

StreamOptions:
Configuration for streaming behavior:

	opts := []StreamOption{
	    WithBufferSize(100),
	    WithPageSize(25),
	    WithMaxRetries(3),
	    WithProgressHandler(progressFunc),
	}
*/
package storagemodels
