package config

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// Vocabulary declares the attribute, property and relation names a world
// is expected to use.
type Vocabulary struct {
	Version    int        `yaml:"version"`
	Attributes []string   `yaml:"attributes"`
	Properties []Property `yaml:"properties"`
	Relations  []string   `yaml:"relations"`

	attrIndex map[string]struct{}
	propIndex map[string]*Property
	relIndex  map[string]struct{}
}

type Property struct {
	Name        string   `yaml:"name"`
	Type        string   `yaml:"type"`
	Values      []string `yaml:"values"`
	Description string   `yaml:"description"`
}

// IsEnum reports whether the property restricts its values.
func (p *Property) IsEnum() bool {
	return strings.EqualFold(p.Type, "enum")
}

// Allows reports whether v is an acceptable value.
func (p *Property) Allows(v string) bool {
	return !p.IsEnum() || slices.Contains(p.Values, v)
}

func LoadVocabulary(path string) (*Vocabulary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading vocabulary: %w", err)
	}

	if err := validateDocument(vocabularySchema, data); err != nil {
		return nil, fmt.Errorf("loading vocabulary: %w", err)
	}

	var vocab Vocabulary
	if err := yaml.Unmarshal(data, &vocab); err != nil {
		return nil, fmt.Errorf("loading vocabulary: %w", err)
	}

	if err := validateVocabulary(&vocab); err != nil {
		return nil, fmt.Errorf("loading vocabulary: %w", err)
	}

	vocab.index()
	return &vocab, nil
}

func (v *Vocabulary) index() {
	v.attrIndex = make(map[string]struct{})
	for _, a := range v.Attributes {
		v.attrIndex[a] = struct{}{}
	}
	v.propIndex = make(map[string]*Property)
	for i := range v.Properties {
		p := &v.Properties[i]
		v.propIndex[p.Name] = p
	}
	v.relIndex = make(map[string]struct{})
	for _, r := range v.Relations {
		v.relIndex[r] = struct{}{}
	}
}

func validateVocabulary(v *Vocabulary) error {
	if v.Version != 1 {
		return fmt.Errorf("unsupported version: %d", v.Version)
	}

	if dup, ok := duplicate(v.Attributes); ok {
		return fmt.Errorf("duplicate attribute: %s", dup)
	}
	if dup, ok := duplicate(v.Relations); ok {
		return fmt.Errorf("duplicate relation: %s", dup)
	}

	names := make([]string, 0, len(v.Properties))
	for i, prop := range v.Properties {
		if strings.TrimSpace(prop.Name) == "" {
			return fmt.Errorf("property %d name is required", i)
		}
		if prop.IsEnum() && len(prop.Values) == 0 {
			return fmt.Errorf("property %s enum has no values", prop.Name)
		}
		names = append(names, prop.Name)
	}
	if dup, ok := duplicate(names); ok {
		return fmt.Errorf("duplicate property: %s", dup)
	}
	return nil
}

func duplicate(names []string) (string, bool) {
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		if _, ok := seen[n]; ok {
			return n, true
		}
		seen[n] = struct{}{}
	}
	return "", false
}

func (v *Vocabulary) HasAttribute(name string) bool {
	if v == nil {
		return true
	}
	_, ok := v.attrIndex[name]
	return ok
}

func (v *Vocabulary) PropertyByName(name string) (*Property, bool) {
	if v == nil {
		return nil, false
	}
	p, ok := v.propIndex[name]
	return p, ok
}

func (v *Vocabulary) HasRelation(name string) bool {
	if v == nil {
		return true
	}
	_, ok := v.relIndex[name]
	return ok
}
