package configschema

import "testing"

func TestBuildInitialConfigSchema(t *testing.T) {
	schema, err := BuildInitialConfigSchema()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if schema.Title == "" {
		t.Fatal("expected a title on the generated schema")
	}
	if len(schema.Required) == 0 {
		t.Fatal("expected at least one required field reflected from jsonschema tags")
	}
}

func TestBuildRuntimeConfigSchema(t *testing.T) {
	schema, err := BuildRuntimeConfigSchema()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if schema.Title == "" {
		t.Fatal("expected a title on the generated schema")
	}
}
