package oracle

import "context"

// Provider defines the interface for generation oracles. The engine treats
// the oracle as a black box: a prompt goes in, unstructured text comes out,
// and any call may fail.
type Provider interface {
	// Complete sends a completion request and returns the response.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
	// Name returns the name of this provider.
	Name() string
}
