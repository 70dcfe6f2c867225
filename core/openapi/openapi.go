// Package openapi generates an OpenAPI 3.0 description of an assembled
// resource tree. Every verb slot becomes one operation; models referenced
// by invokers become component schemas.
package openapi

import (
	"regexp"
	"sort"
	"strings"

	"github.com/artpar/resttree/core/registry"
	"github.com/artpar/resttree/core/resource"
	"github.com/artpar/resttree/core/schema"
	"github.com/artpar/resttree/pkg/jsonapi"
)

// Spec represents an OpenAPI 3.0 specification.
type Spec struct {
	OpenAPI    string              `json:"openapi" yaml:"openapi"`
	Info       Info                `json:"info" yaml:"info"`
	Servers    []Server            `json:"servers,omitempty" yaml:"servers,omitempty"`
	Paths      map[string]PathItem `json:"paths" yaml:"paths"`
	Components Components          `json:"components" yaml:"components"`
	Tags       []Tag               `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// Info provides API metadata.
type Info struct {
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Version     string `json:"version" yaml:"version"`
}

// Server represents a server URL.
type Server struct {
	URL         string `json:"url" yaml:"url"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// PathItem contains operations for a path.
type PathItem struct {
	Get    *Operation `json:"get,omitempty" yaml:"get,omitempty"`
	Post   *Operation `json:"post,omitempty" yaml:"post,omitempty"`
	Put    *Operation `json:"put,omitempty" yaml:"put,omitempty"`
	Delete *Operation `json:"delete,omitempty" yaml:"delete,omitempty"`
}

// Operation represents an API operation.
type Operation struct {
	Tags        []string            `json:"tags,omitempty" yaml:"tags,omitempty"`
	Summary     string              `json:"summary,omitempty" yaml:"summary,omitempty"`
	OperationID string              `json:"operationId,omitempty" yaml:"operationId,omitempty"`
	Parameters  []Parameter         `json:"parameters,omitempty" yaml:"parameters,omitempty"`
	RequestBody *RequestBody        `json:"requestBody,omitempty" yaml:"requestBody,omitempty"`
	Responses   map[string]Response `json:"responses" yaml:"responses"`
}

// Parameter represents an API parameter.
type Parameter struct {
	Name     string  `json:"name" yaml:"name"`
	In       string  `json:"in" yaml:"in"` // path, query
	Required bool    `json:"required,omitempty" yaml:"required,omitempty"`
	Schema   *Schema `json:"schema,omitempty" yaml:"schema,omitempty"`
}

// RequestBody represents a request body.
type RequestBody struct {
	Required bool                 `json:"required,omitempty" yaml:"required,omitempty"`
	Content  map[string]MediaType `json:"content" yaml:"content"`
}

// Response represents an API response.
type Response struct {
	Description string               `json:"description" yaml:"description"`
	Content     map[string]MediaType `json:"content,omitempty" yaml:"content,omitempty"`
}

// MediaType represents a media type.
type MediaType struct {
	Schema *Schema `json:"schema,omitempty" yaml:"schema,omitempty"`
}

// Schema represents a JSON Schema.
type Schema struct {
	Type       string             `json:"type,omitempty" yaml:"type,omitempty"`
	Format     string             `json:"format,omitempty" yaml:"format,omitempty"`
	Properties map[string]*Schema `json:"properties,omitempty" yaml:"properties,omitempty"`
	Required   []string           `json:"required,omitempty" yaml:"required,omitempty"`
	Items      *Schema            `json:"items,omitempty" yaml:"items,omitempty"`
	Ref        string             `json:"$ref,omitempty" yaml:"$ref,omitempty"`
}

// Components contains reusable schemas.
type Components struct {
	Schemas map[string]*Schema `json:"schemas,omitempty" yaml:"schemas,omitempty"`
}

// Tag groups the operations of one service.
type Tag struct {
	Name string `json:"name" yaml:"name"`
}

// Generator generates a spec from the routes of a registry.
type Generator struct {
	routes  []registry.Route
	info    Info
	servers []Server
}

// NewGenerator creates a generator over routes.
func NewGenerator(routes []registry.Route) *Generator {
	return &Generator{
		routes: routes,
		info: Info{
			Title:       "resttree",
			Version:     "1.0.0",
			Description: "Resources assembled from service signatures",
		},
	}
}

// SetInfo sets the API info.
func (g *Generator) SetInfo(info Info) {
	g.info = info
}

// AddServer adds a server URL.
func (g *Generator) AddServer(url, description string) {
	g.servers = append(g.servers, Server{URL: url, Description: description})
}

// Generate creates the OpenAPI specification.
func (g *Generator) Generate() *Spec {
	spec := &Spec{
		OpenAPI:    "3.0.3",
		Info:       g.info,
		Servers:    g.servers,
		Paths:      make(map[string]PathItem),
		Components: Components{Schemas: make(map[string]*Schema)},
	}

	tags := make(map[string]bool)
	for _, rt := range g.routes {
		item := spec.Paths[rt.Path]
		op := g.operation(spec, rt)

		switch rt.Verb {
		case resource.VerbGet:
			item.Get = op
		case resource.VerbInsert:
			item.Post = op
		case resource.VerbUpdate:
			item.Put = op
		case resource.VerbDelete:
			item.Delete = op
		}
		spec.Paths[rt.Path] = item

		for _, tag := range op.Tags {
			tags[tag] = true
		}
	}

	for name := range tags {
		spec.Tags = append(spec.Tags, Tag{Name: name})
	}
	sort.Slice(spec.Tags, func(i, j int) bool { return spec.Tags[i].Name < spec.Tags[j].Name })
	return spec
}

func (g *Generator) operation(spec *Spec, rt registry.Route) *Operation {
	inv := rt.Invoker
	op := &Operation{
		Summary:     inv.String(),
		OperationID: operationID(rt),
		Responses:   make(map[string]Response),
	}
	if svc := inv.Service(); svc != "" {
		op.Tags = []string{svc}
	}

	inputs := inv.Inputs()
	pathParams := extractBraceParams(rt.Path)
	for _, name := range pathParams {
		op.Parameters = append(op.Parameters, Parameter{
			Name:     name,
			In:       "path",
			Required: true,
			Schema:   pathParamSchema(inputs, name),
		})
	}

	switch rt.Verb {
	case resource.VerbGet:
		for _, in := range inputs[inv.MandatoryCount():] {
			if !in.Type.IsPrimitive() {
				continue
			}
			op.Parameters = append(op.Parameters, Parameter{Name: in.Name, In: "query", Schema: primitiveSchema(in.Type.Kind())})
		}
		op.Responses["200"] = Response{Description: "Resource found", Content: document(g.dataSchema(spec, inv.Output()))}
		op.Responses["400"] = Response{Description: "Invalid or unknown parameter"}

	case resource.VerbInsert:
		op.RequestBody = g.requestBody(spec, inputs)
		op.Responses["201"] = Response{Description: "Successfully created", Content: document(g.dataSchema(spec, inv.Output()))}
		op.Responses["400"] = Response{Description: "Invalid content"}

	case resource.VerbUpdate:
		op.RequestBody = g.requestBody(spec, inputs)
		op.Responses["200"] = Response{Description: "Successfully updated"}
		op.Responses["400"] = Response{Description: "Cannot update"}

	case resource.VerbDelete:
		op.Responses["204"] = Response{Description: "Successfully deleted"}
		op.Responses["400"] = Response{Description: "Cannot delete"}
	}

	if len(pathParams) > 0 {
		op.Responses["404"] = Response{Description: "Resource not found"}
	}
	return op
}

func (g *Generator) requestBody(spec *Spec, inputs []schema.Input) *RequestBody {
	for _, in := range inputs {
		if m, ok := in.Type.(*schema.Model); ok {
			ref := g.modelRef(spec, m)
			return &RequestBody{
				Required: true,
				Content: map[string]MediaType{
					"application/json":  {Schema: ref},
					jsonapi.ContentType: {Schema: ref},
				},
			}
		}
	}
	return nil
}

// dataSchema describes the rendered value of an invoker output.
func (g *Generator) dataSchema(spec *Spec, t schema.Type) *Schema {
	switch typ := t.(type) {
	case *schema.Model:
		return g.modelRef(spec, typ)
	case *schema.Property:
		if typ.IsID() {
			return &Schema{Type: "object", Properties: map[string]*Schema{
				"type": {Type: "string"},
				"id":   {Type: "string"},
			}}
		}
		return primitiveSchema(typ.Kind())
	case schema.List:
		return &Schema{Type: "array", Items: g.dataSchema(spec, typ.Item)}
	}
	if t.Equal(resource.PathType) {
		return &Schema{Type: "string", Format: "uri-reference"}
	}
	return primitiveSchema(t.Kind())
}

// modelRef registers the component schema of m and returns a reference to it.
func (g *Generator) modelRef(spec *Spec, m *schema.Model) *Schema {
	if _, ok := spec.Components.Schemas[m.Name()]; !ok {
		s := &Schema{Type: "object", Properties: make(map[string]*Schema)}
		for _, p := range m.Properties() {
			s.Properties[p.Name()] = primitiveSchema(p.Kind())
			if p.IsID() {
				s.Required = append(s.Required, p.Name())
			}
		}
		spec.Components.Schemas[m.Name()] = s
	}
	return &Schema{Ref: "#/components/schemas/" + m.Name()}
}

// document wraps a rendered value in a JSON:API document. Resource path
// listings render into meta.resources instead of data.
func document(data *Schema) map[string]MediaType {
	body := &Schema{Type: "object", Properties: map[string]*Schema{"data": data}}
	if data.Type == "array" && data.Items != nil && data.Items.Format == "uri-reference" {
		body = &Schema{Type: "object", Properties: map[string]*Schema{
			"meta": {Type: "object", Properties: map[string]*Schema{"resources": data}},
		}}
	}
	return map[string]MediaType{jsonapi.ContentType: {Schema: body}}
}

func primitiveSchema(k schema.Kind) *Schema {
	switch k {
	case schema.KindBool:
		return &Schema{Type: "boolean"}
	case schema.KindInt:
		return &Schema{Type: "integer", Format: "int64"}
	case schema.KindDecimal:
		return &Schema{Type: "number", Format: "double"}
	default:
		return &Schema{Type: "string"}
	}
}

// pathParamSchema types a path parameter by the input it fills, falling
// back to string.
func pathParamSchema(inputs []schema.Input, name string) *Schema {
	for _, in := range inputs {
		if in.Type.String() == name || in.Name == name {
			return primitiveSchema(in.Type.Kind())
		}
	}
	return &Schema{Type: "string"}
}

var braceParam = regexp.MustCompile(`\{([^}]+)\}`)

// extractBraceParams extracts parameter names from {param} syntax.
func extractBraceParams(path string) []string {
	var params []string
	for _, match := range braceParam.FindAllStringSubmatch(path, -1) {
		params = append(params, match[1])
	}
	return params
}

var nonWord = regexp.MustCompile(`[^a-zA-Z0-9]+`)

// operationID joins the verb and the invoker name, e.g. "get_ByID".
func operationID(rt registry.Route) string {
	name := strings.Trim(nonWord.ReplaceAllString(rt.Invoker.Name(), "_"), "_")
	if name == "" {
		name = "route"
	}
	if svc := rt.Invoker.Service(); svc != "" {
		name = svc + "_" + name
	}
	return strings.ToLower(rt.Verb.String()) + "_" + name
}
