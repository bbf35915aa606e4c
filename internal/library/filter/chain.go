package filter

import (
	"github.com/osa030/melodeck/internal/domain/track"
)

// Chain executes filters in sequence.
type Chain struct {
	filters []Filter
}

// NewChain creates an empty filter chain. An empty chain accepts
// everything.
func NewChain() *Chain {
	return &Chain{
		filters: make([]Filter, 0),
	}
}

// Add adds a filter to the chain.
func (c *Chain) Add(f Filter) {
	c.filters = append(c.filters, f)
}

// Check runs all filters in sequence and returns the first rejection.
func (c *Chain) Check(t track.Track) Result {
	for _, f := range c.filters {
		if result := f.Check(t); !result.Accepted {
			return result
		}
	}
	return Accept()
}

// Filters returns all filters in the chain.
func (c *Chain) Filters() []Filter {
	return c.filters
}

// FilterConfig describes one configured filter.
type FilterConfig struct {
	Type     string
	Settings map[string]any
}

// NewChainFromConfig builds a chain from configuration entries.
func NewChainFromConfig(configs []FilterConfig) (*Chain, error) {
	chain := NewChain()
	for _, cfg := range configs {
		f, err := New(cfg.Type, cfg.Settings)
		if err != nil {
			return nil, err
		}
		chain.Add(f)
	}
	return chain, nil
}
