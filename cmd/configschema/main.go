// Command configschema writes JSON Schema documents for the two
// simulation configuration files, mirroring the teacher's
// effects/catalog/cmd/schema tool (reflect a Go struct, marshal indented,
// write via a temp-file-then-rename swap).
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"strategycore/server/internal/configschema"

	"github.com/invopop/jsonschema"
)

func main() {
	var initialOut, runtimeOut string
	flag.StringVar(&initialOut, "initial-out", "", "path to write the initial-config JSON schema")
	flag.StringVar(&runtimeOut, "runtime-out", "", "path to write the runtime-config JSON schema")
	flag.Parse()

	if initialOut == "" && runtimeOut == "" {
		fmt.Fprintln(os.Stderr, "at least one of --initial-out or --runtime-out is required")
		os.Exit(1)
	}

	if initialOut != "" {
		schema, err := configschema.BuildInitialConfigSchema()
		if err != nil {
			fail("build initial config schema", err)
		}
		if err := writeSchema(initialOut, schema); err != nil {
			fail("write initial config schema", err)
		}
	}

	if runtimeOut != "" {
		schema, err := configschema.BuildRuntimeConfigSchema()
		if err != nil {
			fail("build runtime config schema", err)
		}
		if err := writeSchema(runtimeOut, schema); err != nil {
			fail("write runtime config schema", err)
		}
	}
}

func fail(step string, err error) {
	fmt.Fprintf(os.Stderr, "configschema: %s: %v\n", step, err)
	os.Exit(1)
}

func writeSchema(outPath string, schema *jsonschema.Schema) error {
	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("create schema directory: %w", err)
	}

	tmpPath := outPath + ".tmp"
	if err := os.WriteFile(tmpPath, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write temp schema: %w", err)
	}
	return os.Rename(tmpPath, outPath)
}
