package topics

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Topic is one named practice domain with a fixed ordered question
// list.
type Topic struct {
	ID        string   `yaml:"id" json:"id"`
	Name      string   `yaml:"name" json:"name"`
	Questions []string `yaml:"questions" json:"questions"`
}

// Catalog holds every topic available for practice.
type Catalog struct {
	Topics []Topic `yaml:"topics" json:"topics"`
}

// Load reads and parses the topics YAML file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read topics file: %w", err)
	}

	var catalog Catalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("failed to unmarshal topics YAML: %w", err)
	}
	if len(catalog.Topics) == 0 {
		return nil, fmt.Errorf("topics file %s contains no topics", path)
	}
	for _, t := range catalog.Topics {
		if len(t.Questions) == 0 {
			return nil, fmt.Errorf("topic %q has no questions", t.ID)
		}
	}
	return &catalog, nil
}

// Get returns the topic with the given id. An unknown id falls back to
// the first topic in the catalog.
func (c *Catalog) Get(id string) Topic {
	for _, t := range c.Topics {
		if t.ID == id {
			return t
		}
	}
	return c.Topics[0]
}
