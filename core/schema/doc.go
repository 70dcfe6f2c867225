/*
Package schema is the declaration layer consumed by the resource tree.

It describes what a service looks like without saying how it is reached:
models and their properties, the types of values that flow in and out of
service calls, and the calls themselves.

# Types

Every value crossing a call boundary is described by a Type. A Type can tell
whether a Go value is valid for it, whether it is primitive and, for
primitives, which scalar Kind backs it:

  - Bool, Int, Decimal, String: the primitive types
  - List{Item}: a collection whose elements are all valid for Item
  - *Model: a whole model instance
  - *Property: a single model property; the id property of a model is the
    type used for path identifiers

Types are created once at startup and shared. Two types are interchangeable
only when Equal reports true; a model id property is deliberately not equal to
the plain Int type it is stored as.

# Models

Models are built from Go structs (NewStructModel) or declared in YAML and
backed by Record values (Parse, ParseFile, ParseDir):

	model: Publication
	properties:
	  - { name: Id,   type: int, id: true }
	  - { name: Name, type: string }

Properties expose explicit Get and Set accessors keyed by the declared name.

# Services

A Service groups Calls. Each Call names the implementation method it binds to
and declares its output type and ordered inputs; the leading MandatoryCount
inputs are required and the rest may be omitted by callers.
*/
package schema
