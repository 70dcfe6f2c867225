package processor

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"github.com/artpar/resttree/core/resource"
	"github.com/artpar/resttree/core/schema"
	"github.com/artpar/resttree/pkg/jsonapi"
)

// ParameterDecoding turns request parameters into arguments. Parameters are
// only accepted on GET and only for the optional primitive inputs of the GET
// invoker; anything else ends the request with UnknownParams. When a
// parameter repeats, the last value wins.
type ParameterDecoding struct {
	Converter resource.Converter
	Logger    zerolog.Logger
}

func (s ParameterDecoding) Process(req *Request, rsp *Response, chain *Chain) {
	if len(req.Params) == 0 {
		chain.Process(req, rsp)
		return
	}
	if req.Verb != resource.VerbGet {
		rsp.SetCode(UnknownParams, fmt.Sprintf("Parameters are not accepted for %s", req.Verb))
		return
	}

	inv := req.Path.Node().Invoker(resource.VerbGet)
	optional := inv.Inputs()[inv.MandatoryCount():]

	if req.Arguments == nil {
		req.Arguments = make(map[string]any)
	}
	for _, p := range req.Params {
		in, ok := s.lookup(optional, p.Name)
		if !ok {
			rsp.SetCode(UnknownParams, fmt.Sprintf("Unknown parameter %q", p.Name))
			s.Logger.Debug().Str("param", p.Name).Str("invoker", inv.String()).Msg("unknown parameter")
			return
		}
		v, err := resource.ParseValue(s.Converter, in.Type, p.Value)
		if err != nil {
			rsp.SetCode(BadRequest, fmt.Sprintf("Invalid value for parameter %q", p.Name))
			rsp.Err = err
			return
		}
		req.Arguments[in.Name] = v
	}

	chain.Process(req, rsp)
}

func (s ParameterDecoding) lookup(inputs []schema.Input, name string) (schema.Input, bool) {
	want := s.Converter.Normalize(name)
	for _, in := range inputs {
		if in.Type == nil || !in.Type.IsPrimitive() {
			continue
		}
		if s.Converter.Normalize(in.Name) == want {
			return in, true
		}
	}
	return schema.Input{}, false
}

// ContentDecoding decodes a JSON body into a new instance of the model the
// INSERT or UPDATE invoker takes. Both a plain object of properties and a
// JSON:API document with data.attributes are accepted; a JSON:API data.id
// is a string and is parsed with Converter. A request without a body is
// passed on untouched.
type ContentDecoding struct {
	Converter resource.Converter
	Logger    zerolog.Logger
}

func (s ContentDecoding) Process(req *Request, rsp *Response, chain *Chain) {
	if req.Content == nil || (req.Verb != resource.VerbInsert && req.Verb != resource.VerbUpdate) {
		chain.Process(req, rsp)
		return
	}

	inv := req.Path.Node().Invoker(req.Verb)
	in, model, ok := modelInput(inv)
	if !ok {
		chain.Process(req, rsp)
		return
	}

	if !acceptsJSON(req.ContentType) {
		rsp.SetCode(UnknownFormat, fmt.Sprintf("Unsupported content type %q", req.ContentType))
		return
	}

	obj, err := s.decodeModel(req.Content, model)
	if errors.Is(err, io.EOF) {
		chain.Process(req, rsp)
		return
	}
	if err != nil {
		rsp.SetCode(BadRequest, err.Error())
		rsp.Err = err
		s.Logger.Debug().Err(err).Str("model", model.Name()).Msg("content rejected")
		return
	}

	if req.Arguments == nil {
		req.Arguments = make(map[string]any)
	}
	req.Arguments[in.Name] = obj
	chain.Process(req, rsp)
}

func modelInput(inv *resource.Invoker) (schema.Input, *schema.Model, bool) {
	for _, in := range inv.Inputs() {
		if m, ok := in.Type.(*schema.Model); ok {
			return in, m, true
		}
	}
	return schema.Input{}, nil, false
}

func acceptsJSON(contentType string) bool {
	if contentType == "" {
		return true
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mt == "application/json" || mt == jsonapi.ContentType
}

func (s ContentDecoding) decodeModel(r io.Reader, model *schema.Model) (any, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var body map[string]any
	if err := dec.Decode(&body); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, err
		}
		return nil, fmt.Errorf("malformed content: %w", err)
	}

	fields := body
	if data, ok := body["data"].(map[string]any); ok {
		fields, _ = data["attributes"].(map[string]any)
		if id, ok := data["id"]; ok && id != "" && id != nil {
			if prop, ok := model.IDProperty(); ok {
				if fields == nil {
					fields = make(map[string]any)
				}
				fields[prop.Name()] = id
				if str, ok := id.(string); ok && s.Converter != nil {
					v, err := resource.ParseValue(s.Converter, prop, str)
					if err != nil {
						return nil, fmt.Errorf("property %q: invalid id %q", prop.Name(), str)
					}
					fields[prop.Name()] = v
				}
			}
		}
	}

	obj := model.New()
	for name, raw := range fields {
		prop, ok := model.Property(name)
		if !ok {
			return nil, fmt.Errorf("unknown property %q for %s", name, model.Name())
		}
		if raw == nil {
			continue
		}
		v, err := jsonValue(prop, raw)
		if err != nil {
			return nil, err
		}
		if err := prop.Set(obj, v); err != nil {
			return nil, fmt.Errorf("property %q: %w", name, err)
		}
	}
	return obj, nil
}

func jsonValue(prop *schema.Property, raw any) (any, error) {
	if n, ok := raw.(json.Number); ok {
		switch prop.Kind() {
		case schema.KindInt:
			i, err := n.Int64()
			if err != nil {
				return nil, fmt.Errorf("property %q: %s is not an integer", prop.Name(), n)
			}
			return i, nil
		case schema.KindString:
			return n.String(), nil
		default:
			f, err := n.Float64()
			if err != nil {
				return nil, fmt.Errorf("property %q: %w", prop.Name(), err)
			}
			raw = f
		}
	}

	v, err := schema.Coerce(prop.Primitive(), raw)
	if err != nil {
		return nil, fmt.Errorf("property %q: %w", prop.Name(), err)
	}
	return v, nil
}

// Href renders p as an absolute URL path below base.
func Href(base string, conv resource.Converter, p resource.Path) (string, error) {
	rendered, err := p.Render(conv)
	if err != nil {
		return "", err
	}
	base = strings.TrimSuffix(base, "/")
	if rendered == "" {
		return base + "/", nil
	}
	return base + "/" + rendered, nil
}

// QueryHints lists the parameters a GET on p accepts: the optional
// primitive inputs of the node's GET invoker, in input order.
func QueryHints(conv resource.Converter, p resource.Path) []string {
	node := p.Node()
	if node == nil {
		return nil
	}
	inv := node.Invoker(resource.VerbGet)
	if inv == nil {
		return nil
	}

	var names []string
	for _, in := range inv.Inputs()[inv.MandatoryCount():] {
		if in.Type == nil || !in.Type.IsPrimitive() {
			continue
		}
		names = append(names, conv.Normalize(in.Name))
	}
	return names
}

// HintedHref is Href with the QueryHints of p appended as empty query
// parameters, e.g. /Publication?language=&name=.
func HintedHref(base string, conv resource.Converter, p resource.Path) (string, error) {
	href, err := Href(base, conv, p)
	if err != nil {
		return "", err
	}
	hints := QueryHints(conv, p)
	if len(hints) == 0 {
		return href, nil
	}
	parts := make([]string, len(hints))
	for i, name := range hints {
		parts[i] = url.QueryEscape(name) + "="
	}
	return href + "?" + strings.Join(parts, "&"), nil
}
