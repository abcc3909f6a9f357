package sources

import (
	"context"

	"github.com/sightcast-hq/sightcast-coordinator/internal/domain"
)

// Processor is the engine surface every discovery channel pushes into.
type Processor interface {
	ProcessContent(ctx context.Context, id, source string, payload domain.SightingPayload) (*domain.Outcome, error)
}

// Watcher is a polling discovery channel. Each Poll returns the sightings
// observed since the implementation's own cursor; the runner feeds them to the
// processor one by one.
type Watcher interface {
	ID() string
	Source() string
	Poll(ctx context.Context) ([]domain.Sighting, error)
}
