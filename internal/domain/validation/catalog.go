package validation

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

// Kind selects the rule set applied to a field.
type Kind string

const (
	KindName     Kind = "name"
	KindEmail    Kind = "email"
	KindPhone    Kind = "phone"
	KindZip      Kind = "zip"
	KindDate     Kind = "date"
	KindCheckbox Kind = "checkbox"
	KindChoice   Kind = "choice"
	KindText     Kind = "text"
)

// Section is the wizard step a field belongs to.
type Section string

const (
	SectionPatient   Section = "patient"
	SectionPhysician Section = "physician"
	SectionContact   Section = "contact"
)

// Groups inside the physician section.
const (
	GroupAccessCode      = "access_code"
	GroupSearch          = "search"
	GroupNewPractitioner = "new_practitioner"
)

// RequiredRule decides when an empty value is an error.
type RequiredRule string

const (
	RequiredAlways            RequiredRule = ""
	RequiredContactByPhone    RequiredRule = "contact_by_phone"
	RequiredUnlessCounterpart RequiredRule = "unless_counterpart"
)

// Spec is the metadata for one field.
type Spec struct {
	Key         Key          `yaml:"key"`
	Kind        Kind         `yaml:"kind"`
	Section     Section      `yaml:"section"`
	Group       string       `yaml:"group"`
	Required    RequiredRule `yaml:"required"`
	Counterpart Key          `yaml:"counterpart"`
}

//go:embed catalog.yaml
var catalogYAML []byte

type catalog struct {
	Fields []Spec `yaml:"fields"`
	byKey  map[Key]Spec
}

var (
	catalogOnce sync.Once
	loaded      *catalog
)

func fieldCatalog() *catalog {
	catalogOnce.Do(func() {
		c, err := parseCatalog(catalogYAML)
		if err != nil {
			panic(fmt.Sprintf("validation: embedded catalog: %v", err))
		}
		loaded = c
	})
	return loaded
}

func parseCatalog(data []byte) (*catalog, error) {
	c := &catalog{}
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	c.byKey = make(map[Key]Spec, len(c.Fields))
	for _, f := range c.Fields {
		if f.Key == "" {
			return nil, fmt.Errorf("field without key")
		}
		if _, dup := c.byKey[f.Key]; dup {
			return nil, fmt.Errorf("duplicate field %q", f.Key)
		}
		switch f.Kind {
		case KindName, KindEmail, KindPhone, KindZip, KindDate, KindCheckbox, KindChoice, KindText:
		default:
			return nil, fmt.Errorf("field %q: unknown kind %q", f.Key, f.Kind)
		}
		if f.Required == RequiredUnlessCounterpart && f.Counterpart == "" {
			return nil, fmt.Errorf("field %q: counterpart required", f.Key)
		}
		c.byKey[f.Key] = f
	}
	return c, nil
}

// Lookup returns the metadata for key.
func Lookup(key Key) (Spec, bool) {
	s, ok := fieldCatalog().byKey[key]
	return s, ok
}

// Fields returns the fields of a section in catalog order. An empty group
// matches every group of the section.
func Fields(section Section, group string) []Spec {
	var out []Spec
	for _, f := range fieldCatalog().Fields {
		if f.Section != section {
			continue
		}
		if group != "" && f.Group != group {
			continue
		}
		out = append(out, f)
	}
	return out
}

// Keys returns every known field key in catalog order.
func Keys() []Key {
	fields := fieldCatalog().Fields
	keys := make([]Key, 0, len(fields))
	for _, f := range fields {
		keys = append(keys, f.Key)
	}
	return keys
}
