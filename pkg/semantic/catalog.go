package semantic

import (
	_ "embed"
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

//go:embed catalogs/default.yaml
var defaultCatalog []byte

// DataTypeAny matches every data type
const DataTypeAny = "any"

// Function describes a callable rule function
type Function struct {
	MinArgs int    `yaml:"minArgs"`
	MaxArgs int    `yaml:"maxArgs"` // -1 means unbounded
	Returns string `yaml:"returns"`
}

// AcceptsArgs reports whether n arguments are within the function's arity
func (f Function) AcceptsArgs(n int) bool {
	if n < f.MinArgs {
		return false
	}
	return f.MaxArgs < 0 || n <= f.MaxArgs
}

// Catalog holds the business vocabulary the semantic validator checks rules against
type Catalog struct {
	Operators map[string][]string `yaml:"operators"`
	Functions map[string]Function `yaml:"functions"`
	Fields    map[string]string   `yaml:"fields"`
}

// DefaultCatalog returns the embedded catalog
func DefaultCatalog() (*Catalog, error) {
	return ParseCatalog(defaultCatalog)
}

// LoadCatalog reads a catalog from a YAML file
func LoadCatalog(path string) (*Catalog, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %s: %w", path, err)
	}
	catalog, err := ParseCatalog(content)
	if err != nil {
		return nil, fmt.Errorf("invalid catalog %s: %w", path, err)
	}
	return catalog, nil
}

// ParseCatalog decodes a YAML catalog and checks it for consistency
func ParseCatalog(content []byte) (*Catalog, error) {
	var catalog Catalog
	if err := yaml.Unmarshal(content, &catalog); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	for name, fn := range catalog.Functions {
		if fn.MinArgs < 0 {
			return nil, fmt.Errorf("function %s: minArgs must not be negative", name)
		}
		if fn.MaxArgs >= 0 && fn.MaxArgs < fn.MinArgs {
			return nil, fmt.Errorf("function %s: maxArgs %d is lower than minArgs %d", name, fn.MaxArgs, fn.MinArgs)
		}
	}
	for op, types := range catalog.Operators {
		if len(types) == 0 {
			return nil, fmt.Errorf("operator %s: at least one data type is required", op)
		}
	}

	return &catalog, nil
}

// operatorAccepts reports whether op can compare against dataType. Unknown
// operators and unknown data types are accepted; the schema reports those.
func (c *Catalog) operatorAccepts(op, dataType string) bool {
	types, ok := c.Operators[op]
	if !ok || dataType == "" || dataType == DataTypeAny {
		return true
	}
	return slices.Contains(types, DataTypeAny) || slices.Contains(types, dataType)
}

// fieldType returns the declared type of a field, or "" when fields are not
// catalogued or the field is unknown
func (c *Catalog) fieldType(field string) string {
	return c.Fields[field]
}

// knowsField reports whether field is acceptable. An empty field catalog accepts all fields.
func (c *Catalog) knowsField(field string) bool {
	if len(c.Fields) == 0 {
		return true
	}
	_, ok := c.Fields[field]
	return ok
}
