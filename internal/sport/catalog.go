package sport

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"sort"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sports.toml
var builtinTable []byte

type table struct {
	Sports []Definition `toml:"sport"`
}

// Catalog is the set of known sport definitions keyed by id.
type Catalog struct {
	defs map[string]Definition
}

// Builtin returns the definitions shipped with the binary.
func Builtin() (*Catalog, error) {
	c := &Catalog{defs: make(map[string]Definition)}
	if err := c.merge(builtinTable, "built-in sports"); err != nil {
		return nil, err
	}
	return c, nil
}

// Load returns the built-in catalog extended by the TOML file at path.
// Definitions in the file replace built-ins with the same id. An empty
// path yields the built-ins.
func Load(path string) (*Catalog, error) {
	c, err := Builtin()
	if err != nil {
		return nil, err
	}
	if path == "" {
		return c, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sports file: %w", err)
	}
	if err := c.merge(data, path); err != nil {
		return nil, err
	}
	return c, nil
}

// Parse decodes a sports table without merging it into a catalog.
func Parse(data []byte) ([]Definition, error) {
	var t table
	decoder := toml.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&t); err != nil {
		return nil, err
	}
	for i := range t.Sports {
		t.Sports[i].normalize()
		if err := t.Sports[i].Validate(); err != nil {
			return nil, err
		}
	}
	return t.Sports, nil
}

func (c *Catalog) merge(data []byte, source string) error {
	defs, err := Parse(data)
	if err != nil {
		return fmt.Errorf("parse %s: %w", source, err)
	}
	for _, d := range defs {
		c.defs[d.ID] = d
	}
	return nil
}

// Lookup returns the definition for id (case and separators ignored).
func (c *Catalog) Lookup(id string) (Definition, error) {
	d, ok := c.defs[NormalizeID(id)]
	if !ok {
		return Definition{}, fmt.Errorf("%w %q (known: %v)", ErrUnknownSport, id, c.IDs())
	}
	return d, nil
}

// IDs returns the known sport ids in sorted order.
func (c *Catalog) IDs() []string {
	ids := make([]string, 0, len(c.defs))
	for id := range c.defs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// All returns every definition sorted by id.
func (c *Catalog) All() []Definition {
	out := make([]Definition, 0, len(c.defs))
	for _, id := range c.IDs() {
		out = append(out, c.defs[id])
	}
	return out
}
