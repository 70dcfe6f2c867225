package http

import (
	"github.com/rs/zerolog"

	"github.com/artpar/resttree/core/processor"
	"github.com/artpar/resttree/core/resource"
	"github.com/artpar/resttree/core/schema"
	"github.com/artpar/resttree/pkg/jsonapi"
)

// Render turns the invocation result into a JSON:API document on the
// response Body. Models become resources with a self link when the model
// has a get-by-id resource, lists of ids become identifiers and paths become
// links.
type Render struct {
	Converter resource.Converter
	Locator   processor.ModelLocator
	BasePath  string
	Logger    zerolog.Logger

	// Hints adds the accepted query parameters of the target to every
	// rendered link.
	Hints bool
}

func (s Render) Process(req *processor.Request, rsp *processor.Response, chain *processor.Chain) {
	if req.ValueType == nil {
		chain.Process(req, rsp)
		return
	}

	data, meta, err := s.render(req.Path, req.ValueType, req.Value)
	if err != nil {
		rsp.SetCode(processor.InternalError, "Cannot render result")
		rsp.Err = err
		s.Logger.Error().Err(err).Str("type", req.ValueType.String()).Msg("render failed")
		return
	}

	self, _ := s.href(req.Path)
	doc := jsonapi.NewDocument().JSONAPI().Self(self)
	if meta != nil {
		for k, v := range meta {
			doc.Meta(k, v)
		}
	} else {
		doc.Data(data)
	}
	rsp.Body = doc.Build()
	chain.Process(req, rsp)
}

func (s Render) render(at resource.Path, t schema.Type, value any) (any, jsonapi.Meta, error) {
	switch typ := t.(type) {
	case *schema.Model:
		if value == nil {
			return nil, nil, nil
		}
		r, err := s.resource(at, typ, value)
		return r, nil, err

	case *schema.Property:
		if !typ.IsID() {
			return value, nil, nil
		}
		ri, err := s.identifier(at, typ, value)
		return ri, nil, err

	case schema.List:
		items, err := listItems(value)
		if err != nil {
			return nil, nil, err
		}
		if typ.Item.Equal(resource.PathType) {
			hrefs := make([]string, 0, len(items))
			for _, it := range items {
				href, err := s.href(it.(resource.Path))
				if err != nil {
					return nil, nil, err
				}
				hrefs = append(hrefs, href)
			}
			return nil, jsonapi.Meta{"resources": hrefs}, nil
		}

		out := make([]any, 0, len(items))
		for _, it := range items {
			d, _, err := s.render(at, typ.Item, it)
			if err != nil {
				return nil, nil, err
			}
			out = append(out, d)
		}
		return out, nil, nil

	default:
		if t.Equal(resource.PathType) {
			href, err := s.href(value.(resource.Path))
			if err != nil {
				return nil, nil, err
			}
			return nil, jsonapi.Meta{"href": href}, nil
		}
		return value, nil, nil
	}
}

func (s Render) resource(at resource.Path, model *schema.Model, obj any) (jsonapi.Resource, error) {
	id := ""
	if prop, ok := model.IDProperty(); ok {
		v, err := prop.Get(obj)
		if err != nil {
			return jsonapi.Resource{}, err
		}
		if id, err = s.Converter.Render(v); err != nil {
			return jsonapi.Resource{}, err
		}
	}

	b := jsonapi.NewResource(model.Name(), id)
	for _, prop := range model.Properties() {
		if prop.IsID() {
			continue
		}
		v, err := prop.Get(obj)
		if err != nil {
			return jsonapi.Resource{}, err
		}
		b.Attr(prop.Name(), v)
	}

	if s.Locator != nil {
		if loc, ok := s.Locator.FindGetModel(at, model); ok {
			if filled, ok := loc.Update(obj); ok {
				href, _ := s.href(filled)
				b.Self(href)
			}
		}
	}
	return b.Build(), nil
}

func (s Render) identifier(at resource.Path, prop *schema.Property, value any) (jsonapi.ResourceIdentifier, error) {
	id, err := s.Converter.Render(value)
	if err != nil {
		return jsonapi.ResourceIdentifier{}, err
	}

	self := ""
	if s.Locator != nil {
		if loc, ok := s.Locator.FindGetModel(at, prop.Model()); ok {
			if filled, ok := loc.UpdateValue(prop, value); ok {
				self, _ = s.href(filled)
			}
		}
	}
	return jsonapi.Identifier(prop.Model().Name(), id, self), nil
}

// href renders a path below the base path, with query hints when enabled.
func (s Render) href(p resource.Path) (string, error) {
	if s.Hints {
		return processor.HintedHref(s.BasePath, s.Converter, p)
	}
	return processor.Href(s.BasePath, s.Converter, p)
}
