package configschema

import (
	"fmt"
	"reflect"

	"github.com/invopop/jsonschema"
)

func newReflector() *jsonschema.Reflector {
	return &jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		DoNotReference:             true,
	}
}

// BuildInitialConfigSchema reflects InitialConfig into a JSON Schema
// document, exactly the reflect-a-Go-struct approach the teacher's
// catalog schema generator uses.
func BuildInitialConfigSchema() (*jsonschema.Schema, error) {
	schema := newReflector().ReflectFromType(reflect.TypeOf(InitialConfig{}))
	if schema == nil {
		return nil, fmt.Errorf("configschema: failed to reflect InitialConfig")
	}
	schema.Title = "Initial Configuration"
	schema.Description = "Determinism-affecting configuration loaded once at simulation startup."
	return schema, nil
}

// BuildRuntimeConfigSchema reflects RuntimeConfig into a JSON Schema
// document.
func BuildRuntimeConfigSchema() (*jsonschema.Schema, error) {
	schema := newReflector().ReflectFromType(reflect.TypeOf(RuntimeConfig{}))
	if schema == nil {
		return nil, fmt.Errorf("configschema: failed to reflect RuntimeConfig")
	}
	schema.Title = "Runtime Configuration"
	schema.Description = "Hot-reloadable, non-determinism-affecting configuration."
	return schema, nil
}
