package builder

import (
	"github.com/vk/launchgrid/internal/config"
	"github.com/vk/launchgrid/internal/registry"
)

// DefaultBuilder builds loaders backed by the runners of a registry.
type DefaultBuilder struct {
	converter config.Converter
	registry  *registry.Registry
}

// New creates a builder that binds arguments with converter and looks up
// runners in r.
func New(converter config.Converter, r *registry.Registry) Builder {
	return &DefaultBuilder{converter: converter, registry: r}
}
