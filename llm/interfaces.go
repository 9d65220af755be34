package llm

import (
	"context"
)

// Backend is the single operation every provider adapter implements.
// Implementations map the neutral Request/Response onto their provider's
// wire shape and must not retry or cache; that is layered above.
type Backend interface {
	// Generate sends a request to the backend and returns a complete
	// response. Errors are propagated unchanged to the caller.
	Generate(ctx context.Context, req *Request) (*Response, error)
}

// Completer is the call shape shared by the caching Client and the
// ResilientClient, so resilience policies compose around caching without
// either layer knowing about the other.
type Completer interface {
	Complete(ctx context.Context, req *Request) (*Response, error)
}
