package ingest

import (
	"embed"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/scott-cmd11/ai-canada-pulse/internal/model"
)

//go:embed config/sources.yaml
var sourcesYAML embed.FS

// registryFile mirrors config/sources.yaml.
type registryFile struct {
	Sources []model.SourceDefinition `yaml:"sources"`
}

// Registry is the in-process catalog of configured sources, keyed for
// O(1) lookup by the scheduler and runner.
type Registry struct {
	byKey map[string]model.SourceDefinition
	order []string
}

// LoadRegistry reads the embedded source catalog. path is consulted only
// if the embedded copy cannot be read, which in practice never happens,
// so a file at path does not override the embedded catalog.
func LoadRegistry(path string) (*Registry, error) {
	data, err := sourcesYAML.ReadFile("config/sources.yaml")
	if err != nil {
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading source registry: %w", err)
		}
	}

	var raw registryFile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing source registry: %w", err)
	}

	reg := &Registry{byKey: make(map[string]model.SourceDefinition, len(raw.Sources))}
	for _, s := range raw.Sources {
		if s.Key == "" {
			return nil, fmt.Errorf("source registry: entry with empty key")
		}
		if _, dup := reg.byKey[s.Key]; dup {
			return nil, fmt.Errorf("source registry: duplicate key %q", s.Key)
		}
		if s.CadenceMinutes <= 0 {
			return nil, fmt.Errorf("source registry: %q has non-positive cadence", s.Key)
		}
		reg.byKey[s.Key] = s
		reg.order = append(reg.order, s.Key)
	}
	return reg, nil
}

// Get returns the definition for key, or false if it is not registered.
func (r *Registry) Get(key string) (model.SourceDefinition, bool) {
	d, ok := r.byKey[key]
	return d, ok
}

// All returns every registered source, in the order declared in the catalog.
func (r *Registry) All() []model.SourceDefinition {
	out := make([]model.SourceDefinition, 0, len(r.order))
	for _, k := range r.order {
		out = append(out, r.byKey[k])
	}
	return out
}

// Enabled returns every source with Enabled == true, in catalog order.
func (r *Registry) Enabled() []model.SourceDefinition {
	var out []model.SourceDefinition
	for _, k := range r.order {
		if d := r.byKey[k]; d.Enabled {
			out = append(out, d)
		}
	}
	return out
}

// Cadence returns the configured poll interval for key.
func (r *Registry) Cadence(key string) time.Duration {
	d, ok := r.byKey[key]
	if !ok {
		return 0
	}
	return time.Duration(d.CadenceMinutes) * time.Minute
}
