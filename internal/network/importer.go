package network

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// Importer copies the network from a source feed into a repository.
type Importer struct {
	from   Source
	to     Repository
	logger zerolog.Logger
}

// NewImporter creates an importer from one source into a repository.
func NewImporter(from Source, to Repository, logger zerolog.Logger) *Importer {
	return &Importer{from: from, to: to, logger: logger}
}

// Refresh reads every route from the source, validates it and replaces the
// repository contents. It returns the number of routes imported.
func (i *Importer) Refresh(ctx context.Context) (int, error) {
	routes, err := i.from.ListRoutes(ctx)
	if err != nil {
		return 0, fmt.Errorf("read source network: %w", err)
	}

	var stops int
	for idx := range routes {
		if err := routes[idx].Validate(); err != nil {
			return 0, err
		}
		stops += len(routes[idx].Stops)
	}

	if err := i.to.ReplaceNetwork(ctx, routes); err != nil {
		return 0, fmt.Errorf("store network: %w", err)
	}

	i.logger.Info().
		Int("routes", len(routes)).
		Int("stops", stops).
		Msg("transit network imported")

	return len(routes), nil
}
