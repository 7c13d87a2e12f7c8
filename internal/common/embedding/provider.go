// internal/common/embedding/provider.go
package embedding

import "context"

// Provider is the external embed(text) -> vector capability. Implementations
// must be deterministic for identical input so embeddings are cacheable and
// scoring stays reproducible.
type Provider interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}
