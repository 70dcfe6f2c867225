// Package app contains the services exposed through the resource tree.
package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/artpar/resttree/core/resource"
	"github.com/artpar/resttree/core/schema"
	"github.com/artpar/resttree/domain/publication"
	"github.com/artpar/resttree/ports"
)

// PublicationsServiceName is the service name the calls register under.
const PublicationsServiceName = "Publications"

// PublicationService manages publications. Its methods are bound to the
// calls declared by Declare; their shapes place them on the tree:
//
//	All(name, language)   GET    /Publication
//	ByID(id)              GET    /Publication/{id}
//	Insert(p)             INSERT /Publication
//	Update(p)             UPDATE /Publication/{id}
//	Delete(id)            DELETE /Publication/{id}
type PublicationService struct {
	store  ports.PublicationStore
	logger zerolog.Logger
}

// NewPublicationService creates a new publication service.
func NewPublicationService(store ports.PublicationStore, logger zerolog.Logger) *PublicationService {
	return &PublicationService{store: store, logger: logger}
}

// PublicationModel describes publication.Publication to the resource tree.
func PublicationModel() (*schema.Model, error) {
	return schema.NewStructModel("Publication", (*publication.Publication)(nil))
}

// Declare returns the call declarations of the service for model.
func (s *PublicationService) Declare(model *schema.Model) (*schema.Service, error) {
	id, ok := model.IDProperty()
	if !ok {
		return nil, fmt.Errorf("model %s has no id property", model.Name())
	}
	idIn := schema.Input{Name: "id", Type: id}
	pubIn := schema.Input{Name: "publication", Type: model}

	return schema.NewService(PublicationsServiceName,
		schema.Call{
			Name:   "All",
			Output: schema.ListOf(model),
			Inputs: []schema.Input{
				{Name: "name", Type: schema.String},
				{Name: "language", Type: schema.String},
			},
		},
		schema.Mandatory("ByID", model, idIn),
		schema.Mandatory("Insert", id, pubIn),
		schema.Mandatory("Update", schema.Bool, pubIn),
		schema.Mandatory("Delete", schema.Bool, idIn),
	)
}

// All lists publications, optionally filtered by name and language.
func (s *PublicationService) All(ctx context.Context, name, language string) ([]*publication.Publication, error) {
	items, err := s.store.List(ctx, publication.Filter{Name: name, Language: language})
	if err != nil {
		return nil, fmt.Errorf("list publications: %w", err)
	}
	out := make([]*publication.Publication, len(items))
	for i := range items {
		out[i] = &items[i]
	}
	return out, nil
}

// ByID returns one publication.
func (s *PublicationService) ByID(ctx context.Context, id int64) (*publication.Publication, error) {
	p, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Insert validates and stores a new publication, returning its id.
func (s *PublicationService) Insert(ctx context.Context, p *publication.Publication) (int64, error) {
	if err := validate("Insert", p); err != nil {
		return 0, err
	}
	id, err := s.store.Create(ctx, *p)
	if err != nil {
		return 0, fmt.Errorf("create publication: %w", err)
	}
	s.logger.Info().Int64("id", id).Str("name", p.Name).Msg("publication created")
	return id, nil
}

// Update replaces the publication with p's id.
func (s *PublicationService) Update(ctx context.Context, p *publication.Publication) (bool, error) {
	if err := validate("Update", p); err != nil {
		return false, err
	}
	ok, err := s.store.Update(ctx, *p)
	if err != nil {
		return false, fmt.Errorf("update publication %d: %w", p.ID, err)
	}
	if ok {
		s.logger.Info().Int64("id", p.ID).Msg("publication updated")
	}
	return ok, nil
}

// Delete removes a publication.
func (s *PublicationService) Delete(ctx context.Context, id int64) (bool, error) {
	ok, err := s.store.Delete(ctx, id)
	if err != nil {
		return false, fmt.Errorf("delete publication %d: %w", id, err)
	}
	if ok {
		s.logger.Info().Int64("id", id).Msg("publication deleted")
	}
	return ok, nil
}

// validate reports domain violations as input errors so they surface as
// bad requests.
func validate(call string, p *publication.Publication) error {
	if p == nil {
		return &resource.InputError{Invoker: call, Input: "publication", Reason: "missing"}
	}
	if err := publication.Validate(*p); err != nil {
		return &resource.InputError{Invoker: call, Input: "publication", Reason: err.Error()}
	}
	return nil
}
