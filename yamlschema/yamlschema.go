// Package yamlschema loads a record model definition from YAML:
//
//	discriminator_field: kind
//	attrs_field: attrs
//	type_key: _type
//	fields:
//	  title: {type: string, max_length: 64}
//	shapes:
//	  book:
//	    - {name: isbn, type: string, max_length: 13}
//	    - {name: price, type: decimal, max_digits: 10, decimal_places: 2}
//
// Field lists may be written either as a sequence of definitions with a
// name key or as a mapping from name to definition; both keep their
// written order.
package yamlschema

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/reoring/babik"
	"github.com/reoring/babik/field"
)

// Document is the YAML form of babik.Options.
type Document struct {
	DiscriminatorField string               `yaml:"discriminator_field"`
	AttrsField         string               `yaml:"attrs_field"`
	TypeKey            string               `yaml:"type_key"`
	Fields             FieldList            `yaml:"fields"`
	Shapes             map[string]FieldList `yaml:"shapes"`
}

// FieldDef declares one field spec.
type FieldDef struct {
	Name          string   `yaml:"name"`
	Type          string   `yaml:"type"`
	StoredAs      string   `yaml:"stored_as"`
	Blank         bool     `yaml:"blank"`
	Null          bool     `yaml:"null"`
	Default       any      `yaml:"default"`
	Choices       []any    `yaml:"choices"`
	MaxLength     int      `yaml:"max_length"`
	Min           *float64 `yaml:"min"`
	Max           *float64 `yaml:"max"`
	MaxDigits     *int     `yaml:"max_digits"`
	DecimalPlaces *int     `yaml:"decimal_places"`
	Help          string   `yaml:"help"`
}

// FieldList is an ordered list of definitions.
type FieldList []FieldDef

// UnmarshalYAML accepts a sequence or an ordered mapping of definitions.
func (l *FieldList) UnmarshalYAML(n *yaml.Node) error {
	switch n.Kind {
	case yaml.SequenceNode:
		var defs []FieldDef
		if err := n.Decode(&defs); err != nil {
			return err
		}
		*l = defs
		return nil
	case yaml.MappingNode:
		out := make(FieldList, 0, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			var def FieldDef
			if err := n.Content[i+1].Decode(&def); err != nil {
				return err
			}
			name := n.Content[i].Value
			if def.Name != "" && def.Name != name {
				return fmt.Errorf("line %d: field %q declares name %q", n.Content[i].Line, name, def.Name)
			}
			def.Name = name
			out = append(out, def)
		}
		*l = out
		return nil
	}
	return fmt.Errorf("line %d: field list must be a sequence or a mapping", n.Line)
}

// ParseFile parses a model definition from a YAML file.
func ParseFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file %s: %w", path, err)
	}
	return Parse(data)
}

// Parse parses a model definition from YAML bytes.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	if err := doc.validate(); err != nil {
		return nil, fmt.Errorf("validate schema: %w", err)
	}
	return &doc, nil
}

func (d *Document) validate() error {
	var errs []error
	check := func(where string, defs FieldList) {
		for i, f := range defs {
			if strings.TrimSpace(f.Name) == "" {
				errs = append(errs, fmt.Errorf("%s[%d]: name is required", where, i))
			}
			if f.Type == "" {
				errs = append(errs, fmt.Errorf("%s.%s: type is required", where, f.Name))
			}
		}
	}
	check("fields", d.Fields)
	for name, defs := range d.Shapes {
		if name == "" {
			errs = append(errs, errors.New("shapes: empty discriminator value"))
		}
		check("shapes."+name, defs)
	}
	return errors.Join(errs...)
}

// Spec builds the field spec described by def.
func (def FieldDef) Spec() (babik.FieldSpec, error) {
	var opts []field.Option
	if def.Blank {
		opts = append(opts, field.Blank())
	}
	if def.Null {
		opts = append(opts, field.Null())
	}
	if def.Default != nil {
		opts = append(opts, field.Default(def.Default))
	}
	if def.StoredAs != "" {
		opts = append(opts, field.StoredAs(def.StoredAs))
	}
	if len(def.Choices) > 0 {
		opts = append(opts, field.Choices(def.Choices...))
	}
	if def.MaxLength > 0 {
		opts = append(opts, field.MaxLength(def.MaxLength))
	}
	if def.Min != nil {
		opts = append(opts, field.Min(*def.Min))
	}
	if def.Max != nil {
		opts = append(opts, field.Max(*def.Max))
	}
	if def.MaxDigits != nil {
		opts = append(opts, field.MaxDigits(*def.MaxDigits))
	}
	if def.DecimalPlaces != nil {
		opts = append(opts, field.DecimalPlaces(*def.DecimalPlaces))
	}
	if def.Help != "" {
		opts = append(opts, field.Help(def.Help))
	}
	return field.New(babik.Kind(strings.ToLower(def.Type)), def.Name, opts...)
}

func (l FieldList) specs() ([]babik.FieldSpec, error) {
	out := make([]babik.FieldSpec, 0, len(l))
	for _, def := range l {
		s, err := def.Spec()
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// Options converts the document into babik.Options. The caller supplies
// the codec, logger and observer through base; the document supplies
// names, ordinary fields and the shape registry.
func (d *Document) Options(base babik.Options) (babik.Options, error) {
	opts := base
	opts.DiscriminatorField = d.DiscriminatorField
	opts.AttrsField = d.AttrsField
	opts.TypeKey = d.TypeKey
	fields, err := d.Fields.specs()
	if err != nil {
		return babik.Options{}, fmt.Errorf("fields: %w", err)
	}
	opts.Fields = fields

	b := babik.NewRegistry()
	for name, defs := range d.Shapes {
		specs, err := defs.specs()
		if err != nil {
			return babik.Options{}, fmt.Errorf("shape %q: %w", name, err)
		}
		b.Define(name, specs...)
	}
	reg, err := b.Build()
	if err != nil {
		return babik.Options{}, err
	}
	opts.Registry = reg
	return opts, nil
}

// Model builds a babik.Model from the document.
func (d *Document) Model(base babik.Options) (*babik.Model, error) {
	opts, err := d.Options(base)
	if err != nil {
		return nil, err
	}
	return babik.NewModel(opts)
}

// Load parses the file at path and builds its model.
func Load(path string, base babik.Options) (*babik.Model, error) {
	doc, err := ParseFile(path)
	if err != nil {
		return nil, err
	}
	return doc.Model(base)
}
