// Package ports defines interfaces (contracts) between layers.
// Implementations live in adapters/.
package ports

import (
	"context"

	"github.com/artpar/resttree/domain/publication"
)

// PublicationStore persists publications.
type PublicationStore interface {
	// List returns the publications passing the filter, by ascending id.
	List(ctx context.Context, filter publication.Filter) ([]publication.Publication, error)

	// Get returns one publication. Missing ids wrap schema.ErrNotFound.
	Get(ctx context.Context, id int64) (publication.Publication, error)

	// Create stores p under a new id and returns it.
	Create(ctx context.Context, p publication.Publication) (int64, error)

	// Update replaces the publication with p's id. It reports false when
	// there is none.
	Update(ctx context.Context, p publication.Publication) (bool, error)

	// Delete removes a publication. It reports false when there is none.
	Delete(ctx context.Context, id int64) (bool, error)
}
