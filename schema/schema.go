// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package schema

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Field types understood by drivers. An empty type means "any".
const (
	TypeAny      = ""
	TypeString   = "string"
	TypeInt      = "int"
	TypeLong     = "long"
	TypeDouble   = "double"
	TypeBool     = "bool"
	TypeDate     = "date"
	TypeObjectID = "objectId"
	TypeObject   = "object"
	TypeArray    = "array"
)

var knownTypes = map[string]bool{
	TypeAny:      true,
	TypeString:   true,
	TypeInt:      true,
	TypeLong:     true,
	TypeDouble:   true,
	TypeBool:     true,
	TypeDate:     true,
	TypeObjectID: true,
	TypeObject:   true,
	TypeArray:    true,
}

// Schema describes the shape of documents stored under a model
type Schema struct {
	Collection string  `yaml:"collection,omitempty" json:"collection,omitempty"` // Explicit collection name (optional)
	Fields     []Field `yaml:"fields" json:"fields"`
	Indexes    []Index `yaml:"indexes,omitempty" json:"indexes,omitempty"`
	Strict     bool    `yaml:"strict,omitempty" json:"strict,omitempty"` // Reject fields not declared here
}

// Field is a single named field of a Schema
type Field struct {
	Name     string `yaml:"name" json:"name"`
	Type     string `yaml:"type,omitempty" json:"type,omitempty"`
	Required bool   `yaml:"required,omitempty" json:"required,omitempty"`
	Unique   bool   `yaml:"unique,omitempty" json:"unique,omitempty"`
}

// Index is a secondary index over one or more fields
type Index struct {
	Name   string   `yaml:"name,omitempty" json:"name,omitempty"`
	Keys   []string `yaml:"keys" json:"keys"` // "-field" means descending
	Unique bool     `yaml:"unique,omitempty" json:"unique,omitempty"`
}

// New builds a schema of untyped fields
func New(fields ...string) *Schema {
	s := &Schema{Fields: make([]Field, 0, len(fields))}
	for _, name := range fields {
		s.Fields = append(s.Fields, Field{Name: name})
	}
	return s
}

// UnmarshalYAML accepts both the full field form and a bare list of names:
//
//	fields: [name, email]
func (f *Field) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		f.Name = node.Value
		return nil
	}
	type plain Field
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*f = Field(p)
	return nil
}

// Parse decodes a YAML (or JSON) schema document
func Parse(data []byte) (*Schema, error) {
	var s Schema
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse schema: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// LoadFile reads and parses a schema file
func LoadFile(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file %s: %w", path, err)
	}
	return Parse(data)
}

// Validate checks the definition is well formed: field names present and
// unique, types known, and index keys referring to declared fields.
func (s *Schema) Validate() error {
	if s == nil {
		return fmt.Errorf("schema is nil")
	}

	seen := make(map[string]bool, len(s.Fields))
	for i, f := range s.Fields {
		if strings.TrimSpace(f.Name) == "" {
			return fmt.Errorf("field %d: name is required", i)
		}
		if seen[f.Name] {
			return fmt.Errorf("field %q declared more than once", f.Name)
		}
		if !knownTypes[f.Type] {
			return fmt.Errorf("field %q: unknown type %q", f.Name, f.Type)
		}
		seen[f.Name] = true
	}

	for i, idx := range s.Indexes {
		if len(idx.Keys) == 0 {
			return fmt.Errorf("index %d: at least one key is required", i)
		}
		for _, key := range idx.Keys {
			if !seen[strings.TrimPrefix(key, "-")] {
				return fmt.Errorf("index %d: key %q is not a declared field", i, key)
			}
		}
	}

	return nil
}

// FieldNames returns the declared field names in order
func (s *Schema) FieldNames() []string {
	names := make([]string, 0, len(s.Fields))
	for _, f := range s.Fields {
		names = append(names, f.Name)
	}
	return names
}

// CollectionName returns the collection a model named modelName uses.
// An explicit Collection wins, otherwise the lowercased plural of the model name.
func (s *Schema) CollectionName(modelName string) string {
	if s != nil && s.Collection != "" {
		return s.Collection
	}
	return Pluralize(modelName)
}

// pluralRule rewrites the suffix matched by pattern
type pluralRule struct {
	pattern     *regexp.Regexp
	replacement string
}

// pluralRules are tried in order; the first matching rule wins.
var pluralRules = []pluralRule{
	{regexp.MustCompile(`(m)an$`), "${1}en"},
	{regexp.MustCompile(`(pe)rson$`), "${1}ople"},
	{regexp.MustCompile(`(child)$`), "${1}ren"},
	{regexp.MustCompile(`^(ox)$`), "${1}en"},
	{regexp.MustCompile(`(ax|test)is$`), "${1}es"},
	{regexp.MustCompile(`(octop|vir)us$`), "${1}i"},
	{regexp.MustCompile(`(alias|status)$`), "${1}es"},
	{regexp.MustCompile(`(bu)s$`), "${1}ses"},
	{regexp.MustCompile(`(buffal|tomat|potat)o$`), "${1}oes"},
	{regexp.MustCompile(`([ti])um$`), "${1}a"},
	{regexp.MustCompile(`sis$`), "ses"},
	{regexp.MustCompile(`(?:([^f])fe|([lr])f)$`), "${1}${2}ves"},
	{regexp.MustCompile(`(hive)$`), "${1}s"},
	{regexp.MustCompile(`([^aeiouy]|qu)y$`), "${1}ies"},
	{regexp.MustCompile(`(x|ch|ss|sh)$`), "${1}es"},
	{regexp.MustCompile(`(matr|vert|ind)ix|ex$`), "${1}ices"},
	{regexp.MustCompile(`([m|l])ouse$`), "${1}ice"},
	{regexp.MustCompile(`^(quiz)$`), "${1}zes"},
	{regexp.MustCompile(`s$`), "s"},
	{regexp.MustCompile(`([^a-z])$`), "${1}"},
	{regexp.MustCompile(`$`), "s"},
}

// uncountables keep their singular form
var uncountables = map[string]bool{
	"advice": true, "energy": true, "excretion": true, "digestion": true,
	"cooperation": true, "health": true, "justice": true, "labour": true,
	"machinery": true, "equipment": true, "information": true, "pollution": true,
	"sewage": true, "paper": true, "money": true, "species": true,
	"series": true, "rain": true, "rice": true, "fish": true,
	"sheep": true, "moose": true, "deer": true, "news": true,
	"expertise": true, "status": true, "media": true,
}

// Pluralize lowercases name and applies the first matching English plural
// rule. Uncountable nouns and names already ending in "s" are left as is.
func Pluralize(name string) string {
	lower := strings.ToLower(name)
	if lower == "" || uncountables[lower] {
		return lower
	}

	for _, rule := range pluralRules {
		if rule.pattern.MatchString(lower) {
			return rule.pattern.ReplaceAllString(lower, rule.replacement)
		}
	}
	return lower
}
