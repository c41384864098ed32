package schema

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/zeusync/asteroidworker/internal/core/models"
)

//go:embed schemas/*.json
var builtin embed.FS

var builtinFiles = map[models.CommandID]string{
	models.CommandGenerateResource: "schemas/generate_resource.json",
	models.CommandExtractResource:  "schemas/extract_resource.json",
}

// Registry holds one compiled JSON schema per command. It satisfies protocol.Validator.
type Registry struct {
	mu      sync.RWMutex
	schemas map[models.CommandID]*jsonschema.Schema
}

func New() *Registry {
	return &Registry{schemas: make(map[models.CommandID]*jsonschema.Schema)}
}

// Default returns a registry preloaded with the schemas of every known command.
func Default() (*Registry, error) {
	r := New()
	for command, file := range builtinFiles {
		source, err := builtin.ReadFile(file)
		if err != nil {
			return nil, err
		}
		if err = r.Register(command, source); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register compiles source and binds it to command, replacing any previous schema.
func (r *Registry) Register(command models.CommandID, source []byte) error {
	url := fmt.Sprintf("mem://commands/%s.json", command)

	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource(url, bytes.NewReader(source)); err != nil {
		return fmt.Errorf("schema %s: %w", command, err)
	}
	compiled, err := compiler.Compile(url)
	if err != nil {
		return fmt.Errorf("schema %s: %w", command, err)
	}

	r.mu.Lock()
	r.schemas[command] = compiled
	r.mu.Unlock()
	return nil
}

// Validate checks a raw payload. Commands without a registered schema pass.
func (r *Registry) Validate(command models.CommandID, payload []byte) error {
	r.mu.RLock()
	compiled, ok := r.schemas[command]
	r.mu.RUnlock()
	if !ok {
		return nil
	}

	var doc any
	if len(payload) == 0 {
		payload = []byte("null")
	}
	if err := json.Unmarshal(payload, &doc); err != nil {
		return err
	}
	return compiled.Validate(doc)
}
