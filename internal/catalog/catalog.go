// Package catalog loads the declarative scenario catalog and validates
// scenario parameters against it.
package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pesio-ai/be-mes-scenarios/internal/platform/errors"
	"github.com/pesio-ai/be-mes-scenarios/internal/repository"
)

//go:embed scenarios.yaml
var defaultCatalog []byte

// categoryPrefixes maps each category to the id prefix its scenarios use.
var categoryPrefixes = map[string]string{
	"quality":    "QS",
	"equipment":  "EQ",
	"production": "PR",
	"material":   "MT",
	"business":   "BS",
	"hr":         "HR",
}

var idPattern = regexp.MustCompile(`^([A-Z]{2})(\d{3})$`)

// ParamType is the declared type of a scenario parameter.
type ParamType string

const (
	TypeCode     ParamType = "code"
	TypePercent  ParamType = "percent"
	TypeInteger  ParamType = "integer"
	TypeEnum     ParamType = "enum"
	TypeDate     ParamType = "date"
	TypeBoolean  ParamType = "boolean"
	TypeDuration ParamType = "duration"
	TypeText     ParamType = "text"
)

var knownTypes = map[ParamType]bool{
	TypeCode: true, TypePercent: true, TypeInteger: true, TypeEnum: true,
	TypeDate: true, TypeBoolean: true, TypeDuration: true, TypeText: true,
}

// Option is one allowed value of an enumeration parameter.
type Option struct {
	Value string `yaml:"value" json:"value"`
	Label string `yaml:"label" json:"label"`
}

// Parameter describes one scenario input.
type Parameter struct {
	Key          string    `yaml:"key" json:"key"`
	Label        string    `yaml:"label" json:"label"`
	Type         ParamType `yaml:"type" json:"type"`
	Source       string    `yaml:"source,omitempty" json:"source,omitempty"`
	Filter       string    `yaml:"filter,omitempty" json:"-"`
	Default      any       `yaml:"default,omitempty" json:"default,omitempty"`
	Required     bool      `yaml:"required" json:"required"`
	Options      []Option  `yaml:"options,omitempty" json:"options,omitempty"`
	Multiple     bool      `yaml:"multiple,omitempty" json:"multiple,omitempty"`
	Min          *float64  `yaml:"min,omitempty" json:"min,omitempty"`
	Max          *float64  `yaml:"max,omitempty" json:"max,omitempty"`
	ExclusiveMin bool      `yaml:"exclusive_min,omitempty" json:"exclusive_min,omitempty"`
}

// Scenario is a catalog entry. Category and Key are filled from the map keys
// the entry was found under.
type Scenario struct {
	ID          string      `yaml:"id"`
	Name        string      `yaml:"name"`
	Description string      `yaml:"description"`
	Icon        string      `yaml:"icon"`
	Color       string      `yaml:"color"`
	Parameters  []Parameter `yaml:"parameters"`

	Category string `yaml:"-"`
	Key      string `yaml:"-"`
}

// Descriptor is the public view of a scenario.
type Descriptor struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Icon        string      `json:"icon,omitempty"`
	Color       string      `json:"color,omitempty"`
	Parameters  []Parameter `json:"parameters"`
}

// Descriptor returns the public view of s.
func (s *Scenario) Descriptor() Descriptor {
	params := make([]Parameter, len(s.Parameters))
	copy(params, s.Parameters)
	return Descriptor{
		ID:          s.ID,
		Name:        s.Name,
		Description: s.Description,
		Icon:        s.Icon,
		Color:       s.Color,
		Parameters:  params,
	}
}

// Parameter returns the parameter with the given key.
func (s *Scenario) Parameter(key string) (Parameter, bool) {
	for _, p := range s.Parameters {
		if p.Key == key {
			return p, true
		}
	}
	return Parameter{}, false
}

type document struct {
	RealtimeScenarios map[string]map[string]*Scenario `yaml:"realtime_scenarios"`
}

// Registry is the immutable, loaded catalog.
type Registry struct {
	categories map[string]map[string]*Scenario
	ordered    []*Scenario
}

// Default loads the catalog embedded in the binary.
func Default() (*Registry, error) {
	return Load(defaultCatalog)
}

// LoadFile loads a catalog from disk.
func LoadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario catalog: %w", err)
	}
	return Load(data)
}

// Load parses and validates a catalog document.
func Load(data []byte) (*Registry, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse scenario catalog: %w", err)
	}
	if len(doc.RealtimeScenarios) == 0 {
		return nil, fmt.Errorf("scenario catalog has no realtime_scenarios")
	}

	r := &Registry{categories: doc.RealtimeScenarios}
	seen := make(map[string]string)

	for _, category := range sortedKeys(doc.RealtimeScenarios) {
		scenarios := doc.RealtimeScenarios[category]
		prefix, ok := categoryPrefixes[category]
		if !ok {
			return nil, fmt.Errorf("unknown scenario category %q", category)
		}

		for _, key := range sortedKeys(scenarios) {
			s := scenarios[key]
			if s == nil {
				return nil, fmt.Errorf("scenario %s.%s is empty", category, key)
			}
			s.Category = category
			s.Key = key

			if err := validateScenario(s, prefix); err != nil {
				return nil, fmt.Errorf("scenario %s.%s: %w", category, key, err)
			}
			if other, dup := seen[s.ID]; dup {
				return nil, fmt.Errorf("scenario id %s used by both %s and %s.%s", s.ID, other, category, key)
			}
			seen[s.ID] = category + "." + key
			r.ordered = append(r.ordered, s)
		}
	}

	return r, nil
}

func validateScenario(s *Scenario, prefix string) error {
	m := idPattern.FindStringSubmatch(s.ID)
	if m == nil || m[1] != prefix {
		return fmt.Errorf("id %q must match %s<3 digits>", s.ID, prefix)
	}
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("name is required")
	}

	keys := make(map[string]bool)
	for _, p := range s.Parameters {
		if p.Key == "" {
			return fmt.Errorf("parameter without key")
		}
		if keys[p.Key] {
			return fmt.Errorf("duplicate parameter %q", p.Key)
		}
		keys[p.Key] = true

		if !knownTypes[p.Type] {
			return fmt.Errorf("parameter %q has unknown type %q", p.Key, p.Type)
		}
		if p.Type == TypeCode && !repository.IsOptionSource(p.Source) {
			return fmt.Errorf("parameter %q has unknown source %q", p.Key, p.Source)
		}
		if p.Type == TypeEnum && len(p.Options) == 0 {
			return fmt.Errorf("parameter %q needs options", p.Key)
		}
		if p.Default != nil {
			// A fixed reference time keeps "today" defaults checkable at load.
			if _, err := p.coerce(p.Default, time.Unix(0, 0).UTC()); err != nil {
				return fmt.Errorf("parameter %q default: %w", p.Key, err)
			}
		}
	}
	return nil
}

// List returns category -> scenario key -> public descriptor.
func (r *Registry) List() map[string]map[string]Descriptor {
	out := make(map[string]map[string]Descriptor, len(r.categories))
	for category, scenarios := range r.categories {
		inner := make(map[string]Descriptor, len(scenarios))
		for key, s := range scenarios {
			inner[key] = s.Descriptor()
		}
		out[category] = inner
	}
	return out
}

// Find returns the scenario with the given id.
func (r *Registry) Find(id string) (*Scenario, error) {
	for _, s := range r.ordered {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, errors.New(errors.ErrCodeUnknownScenario, fmt.Sprintf("시나리오를 찾을 수 없습니다: %s", id))
}

// IDs returns every scenario id in catalog order.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.ordered))
	for _, s := range r.ordered {
		ids = append(ids, s.ID)
	}
	return ids
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
