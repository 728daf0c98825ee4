package translator

import "context"

// Capability is the external translation model: system instructions plus
// user content in, generated text or a categorized failure out.
type Capability interface {
	Complete(ctx context.Context, systemPrompt, userContent string) (string, error)
}

// CapabilityFunc adapts a function to the Capability interface.
type CapabilityFunc func(ctx context.Context, systemPrompt, userContent string) (string, error)

func (f CapabilityFunc) Complete(ctx context.Context, systemPrompt, userContent string) (string, error) {
	return f(ctx, systemPrompt, userContent)
}

// Config holds the batching and alignment tuning knobs. The fallback
// thresholds are empirical values carried over from field use, exposed as
// configuration rather than hard invariants.
type Config struct {
	// BatchSize bounds the number of lines per translation call.
	BatchSize int
	// MinIndexCoverage is the fraction of expected lines that must be
	// filled by index matching before the positional fallback kicks in.
	MinIndexCoverage float64
	// MinResponseRatio is the minimum ratio of raw response lines to
	// expected lines for the positional fallback to be trusted.
	MinResponseRatio float64
}

// DefaultConfig returns the tuning used in production.
func DefaultConfig() Config {
	return Config{
		BatchSize:        200,
		MinIndexCoverage: 0.5,
		MinResponseRatio: 0.5,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.BatchSize <= 0 {
		c.BatchSize = d.BatchSize
	}
	if c.MinIndexCoverage <= 0 {
		c.MinIndexCoverage = d.MinIndexCoverage
	}
	if c.MinResponseRatio <= 0 {
		c.MinResponseRatio = d.MinResponseRatio
	}
	return c
}
