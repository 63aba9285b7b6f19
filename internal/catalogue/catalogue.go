package catalogue

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/akolanti/SecoursTech/internal/domain/commonModels"
	"gopkg.in/yaml.v3"
)

//go:embed gdoList.yaml
var embedded []byte

// Catalogue is the read-only list of procedure documents. It is built once
// and shared by value semantics: callers only get copies.
type Catalogue struct {
	docs       []commonModels.Document
	byFilename map[string]int
	byId       map[string]int
}

type file struct {
	Documents []commonModels.Document `yaml:"documents"`
}

// Default returns the catalogue compiled into the binary.
func Default() (*Catalogue, error) {
	return Parse(embedded)
}

// Load reads an external catalogue file, or the embedded one when path is empty.
func Load(path string) (*Catalogue, error) {
	if path == "" {
		return Default()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalogue %s: %w", path, err)
	}
	return Parse(raw)
}

func Parse(raw []byte) (*Catalogue, error) {
	var f file
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse catalogue: %w", err)
	}
	return New(f.Documents)
}

func New(docs []commonModels.Document) (*Catalogue, error) {
	c := &Catalogue{
		docs:       make([]commonModels.Document, 0, len(docs)),
		byFilename: make(map[string]int, len(docs)),
		byId:       make(map[string]int, len(docs)),
	}
	var errs []error
	for _, d := range docs {
		if err := validate(d); err != nil {
			errs = append(errs, err)
			continue
		}
		if _, dup := c.byId[d.Id]; dup {
			errs = append(errs, fmt.Errorf("duplicate id %q", d.Id))
			continue
		}
		if _, dup := c.byFilename[d.Filename]; dup {
			errs = append(errs, fmt.Errorf("duplicate filename %q", d.Filename))
			continue
		}
		c.byId[d.Id] = len(c.docs)
		c.byFilename[d.Filename] = len(c.docs)
		c.docs = append(c.docs, d)
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid catalogue: %w", errors.Join(errs...))
	}
	return c, nil
}

func validate(d commonModels.Document) error {
	switch {
	case d.Id == "":
		return fmt.Errorf("document %q: empty id", d.Name)
	case d.Filename == "":
		return fmt.Errorf("document %q: empty filename", d.Id)
	case d.Path == "":
		return fmt.Errorf("document %q: empty path", d.Id)
	case !d.Category.Valid():
		return fmt.Errorf("document %q: unknown category %q", d.Id, d.Category)
	}
	return nil
}

// All returns the documents in catalogue order.
func (c *Catalogue) All() []commonModels.Document {
	out := make([]commonModels.Document, len(c.docs))
	copy(out, c.docs)
	return out
}

func (c *Catalogue) Len() int {
	return len(c.docs)
}

// ByFilename is an exact match, no case folding.
func (c *Catalogue) ByFilename(filename string) (commonModels.Document, bool) {
	i, ok := c.byFilename[filename]
	if !ok {
		return commonModels.Document{}, false
	}
	return c.docs[i], true
}

func (c *Catalogue) ById(id string) (commonModels.Document, bool) {
	i, ok := c.byId[id]
	if !ok {
		return commonModels.Document{}, false
	}
	return c.docs[i], true
}

// PromptList renders the catalogue as the plain-text list the router reads.
func (c *Catalogue) PromptList() string {
	lines := make([]string, 0, len(c.docs))
	for _, d := range c.docs {
		lines = append(lines, fmt.Sprintf("ID: %q - Content: %s", d.Filename, d.Name))
	}
	return strings.Join(lines, "\n")
}
