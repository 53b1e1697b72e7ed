package embedding

import "context"

// Provider converts free text into numeric vectors, one per input string.
// All vectors from one provider instance share the same dimension.
type Provider interface {
	Name() string
	Dimension() int
	Encode(ctx context.Context, texts []string, normalize bool) ([][]float32, error)
}

// Preparer is implemented by providers that need a pass over the corpus
// before they can encode (e.g. TF-IDF vocabulary building).
type Preparer interface {
	Prepare(corpus []string) error
}
