// Package topics holds the glossary of terms foldlens can explain and builds
// the prompts sent for them.
package topics

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/sahilm/fuzzy"
	"gopkg.in/yaml.v3"
)

//go:embed topics.yaml
var builtinYAML []byte

// ErrUnknownTopic is returned by Catalog.Resolve when nothing matches
var ErrUnknownTopic = errors.New("unknown topic")

// Topic is one explainable term
type Topic struct {
	Name    string   `yaml:"name"`
	Analogy string   `yaml:"analogy"`
	Tags    []string `yaml:"tags"`
}

// Catalog is an ordered list of topics
type Catalog struct {
	topics []Topic
}

type catalogFile struct {
	Topics []Topic `yaml:"topics"`
}

// Builtin returns the embedded glossary
func Builtin() *Catalog {
	c, err := Parse(builtinYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded topics.yaml is invalid: %v", err))
	}
	return c
}

// Load returns the catalog at path, or the built-in one when path is empty
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Builtin(), nil
	}
	return LoadFile(path)
}

// LoadFile reads a user catalog that replaces the built-in one
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read topics file: %w", err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Parse decodes a catalog document. Entries without a name are rejected.
func Parse(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse topics: %w", err)
	}
	seen := make(map[string]bool, len(f.Topics))
	for i, t := range f.Topics {
		name := strings.TrimSpace(t.Name)
		if name == "" {
			return nil, fmt.Errorf("topic %d has no name", i+1)
		}
		key := strings.ToLower(name)
		if seen[key] {
			return nil, fmt.Errorf("duplicate topic %q", name)
		}
		seen[key] = true
		f.Topics[i].Name = name
	}
	return &Catalog{topics: f.Topics}, nil
}

// All returns every topic in catalog order
func (c *Catalog) All() []Topic {
	out := make([]Topic, len(c.topics))
	copy(out, c.topics)
	return out
}

// Len returns the number of topics
func (c *Catalog) Len() int {
	return len(c.topics)
}

// Lookup finds a topic by case-insensitive name
func (c *Catalog) Lookup(name string) (Topic, bool) {
	name = strings.TrimSpace(name)
	for _, t := range c.topics {
		if strings.EqualFold(t.Name, name) {
			return t, true
		}
	}
	return Topic{}, false
}

// searchSource lets fuzzy match on name plus tags while reporting the topic index
type searchSource []Topic

func (s searchSource) String(i int) string {
	return s[i].Name + " " + strings.Join(s[i].Tags, " ")
}

func (s searchSource) Len() int { return len(s) }

// Search ranks topics against query. An empty query returns all topics in
// catalog order.
func (c *Catalog) Search(query string) []Topic {
	query = strings.TrimSpace(query)
	if query == "" {
		return c.All()
	}
	matches := fuzzy.FindFrom(query, searchSource(c.topics))
	out := make([]Topic, 0, len(matches))
	for _, m := range matches {
		out = append(out, c.topics[m.Index])
	}
	return out
}

// Resolve returns the exact match for name, or the best fuzzy match
func (c *Catalog) Resolve(name string) (Topic, error) {
	if t, ok := c.Lookup(name); ok {
		return t, nil
	}
	if found := c.Search(name); len(found) > 0 {
		return found[0], nil
	}
	return Topic{}, fmt.Errorf("%w: %q", ErrUnknownTopic, name)
}
