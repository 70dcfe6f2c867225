package jsonapi

// ResourceBuilder provides a fluent API for building Resource objects.
type ResourceBuilder struct {
	resource Resource
}

// NewResource creates a new ResourceBuilder with the given type and ID.
func NewResource(resourceType, id string) *ResourceBuilder {
	return &ResourceBuilder{
		resource: Resource{
			Type:       resourceType,
			ID:         id,
			Attributes: make(map[string]any),
		},
	}
}

// Attr adds an attribute.
func (b *ResourceBuilder) Attr(key string, value any) *ResourceBuilder {
	b.resource.Attributes[key] = value
	return b
}

// Self sets the resource self link. An empty href is ignored.
func (b *ResourceBuilder) Self(href string) *ResourceBuilder {
	if href != "" {
		b.resource.Links = &Links{Self: href}
	}
	return b
}

// Build returns the constructed Resource.
func (b *ResourceBuilder) Build() Resource {
	return b.resource
}

// Identifier returns a resource linkage with an optional self link.
func Identifier(resourceType, id, self string) ResourceIdentifier {
	ri := ResourceIdentifier{Type: resourceType, ID: id}
	if self != "" {
		ri.Links = &Links{Self: self}
	}
	return ri
}
