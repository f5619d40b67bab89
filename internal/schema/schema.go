package schema

import (
	"fmt"
	"slices"
	"strings"
)

// FieldType is the storage type of a scalar field.
type FieldType string

const (
	TypeInteger  FieldType = "integer"
	TypeReal     FieldType = "real"
	TypeText     FieldType = "text"
	TypeBoolean  FieldType = "boolean"
	TypeDate     FieldType = "date"
	TypeDateTime FieldType = "datetime"
)

// ValidFieldTypes lists the accepted field types in declaration order.
var ValidFieldTypes = []FieldType{TypeInteger, TypeReal, TypeText, TypeBoolean, TypeDate, TypeDateTime}

// IsTemporal reports whether values of this type carry a calendar date.
func (t FieldType) IsTemporal() bool {
	return t == TypeDate || t == TypeDateTime
}

// SQLType returns the column type used in SQLite DDL. DATE and DATETIME are
// kept as declared types so the driver scans them back as time.Time.
func (t FieldType) SQLType() string {
	switch t {
	case TypeInteger:
		return "INTEGER"
	case TypeReal:
		return "REAL"
	case TypeBoolean:
		return "BOOLEAN"
	case TypeDate:
		return "DATE"
	case TypeDateTime:
		return "DATETIME"
	default:
		return "TEXT"
	}
}

// Descriptor is the resolved meaning of an attribute name on an entity.
//
// This is a sealed interface - only *Field and *Relationship implement it.
// Callers switch on the concrete type:
//
//	switch d := desc.(type) {
//	case *schema.Field:
//	    // terminal scalar
//	case *schema.Relationship:
//	    // join and continue on d.Target
//	}
type Descriptor interface {
	descriptor() // Marker method - seals interface to this package
	AttrName() string
}

// Field is a scalar, comparable attribute stored in a column.
type Field struct {
	Entity   *Entity
	Name     string
	Column   string
	Type     FieldType
	Nullable bool
}

func (*Field) descriptor() {}

// AttrName returns the attribute name used in lookup paths.
func (f *Field) AttrName() string { return f.Name }

func (f *Field) String() string { return f.Entity.Name + "." + f.Name }

// Relationship is a named association from Entity to Target.
//
// Rows join on Entity.LocalColumn = Target.RemoteColumn. Many is true when
// one source row can match several target rows (one-to-many).
type Relationship struct {
	Entity       *Entity
	Name         string
	Target       *Entity
	LocalColumn  string
	RemoteColumn string
	Many         bool
}

func (*Relationship) descriptor() {}

// AttrName returns the attribute name used in lookup paths.
func (r *Relationship) AttrName() string { return r.Name }

func (r *Relationship) String() string { return r.Entity.Name + "." + r.Name }

// Entity is a mapped table with its scalar fields and relationships.
type Entity struct {
	Name       string
	Table      string
	PrimaryKey string

	fields        []*Field
	relationships []*Relationship
	attrs         map[string]Descriptor
}

// Attribute resolves a name to a field or relationship of this entity.
func (e *Entity) Attribute(name string) (Descriptor, bool) {
	d, ok := e.attrs[name]
	return d, ok
}

// Field returns the scalar field with the given attribute name.
func (e *Entity) Field(name string) (*Field, bool) {
	f, ok := e.attrs[name].(*Field)
	return f, ok
}

// Fields returns the scalar fields in declaration order.
func (e *Entity) Fields() []*Field {
	return slices.Clone(e.fields)
}

// Relationships returns the relationships in declaration order, backrefs last.
func (e *Entity) Relationships() []*Relationship {
	return slices.Clone(e.relationships)
}

// PrimaryField returns the primary key field.
func (e *Entity) PrimaryField() *Field {
	f, _ := e.Field(e.PrimaryKey)
	return f
}

// fieldByColumn finds a scalar field stored in the given column.
func (e *Entity) fieldByColumn(column string) (*Field, bool) {
	for _, f := range e.fields {
		if f.Column == column {
			return f, true
		}
	}
	return nil, false
}

func (e *Entity) addAttribute(d Descriptor) error {
	if _, exists := e.attrs[d.AttrName()]; exists {
		return fmt.Errorf("entity %s: duplicate attribute %q", e.Name, d.AttrName())
	}
	e.attrs[d.AttrName()] = d
	return nil
}

// Schema is an immutable set of entities. Build it with Build, LoadCUE or
// CompileCUE; nothing changes it afterwards, so it is safe to share.
type Schema struct {
	entities map[string]*Entity
	order    []*Entity
}

// Entity looks up an entity by name.
func (s *Schema) Entity(name string) (*Entity, bool) {
	e, ok := s.entities[name]
	return e, ok
}

// Entities returns every entity in declaration order.
func (s *Schema) Entities() []*Entity {
	return slices.Clone(s.order)
}

// Definition is the declarative form of a schema, as read from YAML.
type Definition struct {
	Entities []EntityDef `yaml:"entities"`
}

// EntityDef declares one entity.
type EntityDef struct {
	Name          string            `yaml:"name"`
	Table         string            `yaml:"table,omitempty"`       // defaults to lowercase Name
	PrimaryKey    string            `yaml:"primary_key,omitempty"` // defaults to "id"
	Fields        []FieldDef        `yaml:"fields"`
	Relationships []RelationshipDef `yaml:"relationships,omitempty"`
}

// FieldDef declares one scalar field.
type FieldDef struct {
	Name     string `yaml:"name"`
	Column   string `yaml:"column,omitempty"` // defaults to Name
	Type     string `yaml:"type"`
	Nullable bool   `yaml:"nullable,omitempty"`
}

// RelationshipDef declares one relationship and, optionally, its inverse.
//
// Column defaults: a many relationship joins the source primary key to
// "<source table>_id" on the target; a single relationship joins
// "<name>_id" on the source to the target primary key.
type RelationshipDef struct {
	Name    string `yaml:"name"`
	Target  string `yaml:"target"`
	Local   string `yaml:"local,omitempty"`
	Remote  string `yaml:"remote,omitempty"`
	Many    bool   `yaml:"many,omitempty"`
	Backref string `yaml:"backref,omitempty"`
}

// Build validates a definition and links its entities.
func Build(def Definition) (*Schema, error) {
	s := &Schema{entities: make(map[string]*Entity, len(def.Entities))}

	// First pass: entities and scalar fields
	for _, ed := range def.Entities {
		e, err := buildEntity(ed)
		if err != nil {
			return nil, err
		}
		if _, exists := s.entities[e.Name]; exists {
			return nil, fmt.Errorf("duplicate entity %q", e.Name)
		}
		s.entities[e.Name] = e
		s.order = append(s.order, e)
	}

	// Second pass: relationships, which may point forward
	var backrefs []*Relationship
	for _, ed := range def.Entities {
		source := s.entities[ed.Name]
		for _, rd := range ed.Relationships {
			rel, err := s.buildRelationship(source, rd)
			if err != nil {
				return nil, err
			}
			if err := source.addAttribute(rel); err != nil {
				return nil, err
			}
			source.relationships = append(source.relationships, rel)

			if rd.Backref != "" {
				backrefs = append(backrefs, &Relationship{
					Entity:       rel.Target,
					Name:         rd.Backref,
					Target:       source,
					LocalColumn:  rel.RemoteColumn,
					RemoteColumn: rel.LocalColumn,
					Many:         !rel.Many,
				})
			}
		}
	}

	for _, rel := range backrefs {
		if err := rel.Entity.addAttribute(rel); err != nil {
			return nil, fmt.Errorf("backref: %w", err)
		}
		rel.Entity.relationships = append(rel.Entity.relationships, rel)
	}

	return s, nil
}

func buildEntity(ed EntityDef) (*Entity, error) {
	if ed.Name == "" {
		return nil, fmt.Errorf("entity name is required")
	}
	e := &Entity{
		Name:       ed.Name,
		Table:      ed.Table,
		PrimaryKey: ed.PrimaryKey,
		attrs:      make(map[string]Descriptor),
	}
	if e.Table == "" {
		e.Table = strings.ToLower(ed.Name)
	}
	if e.PrimaryKey == "" {
		e.PrimaryKey = "id"
	}

	for _, fd := range ed.Fields {
		if fd.Name == "" {
			return nil, fmt.Errorf("entity %s: field name is required", e.Name)
		}
		if strings.Contains(fd.Name, "__") {
			return nil, fmt.Errorf("entity %s: field %q must not contain \"__\"", e.Name, fd.Name)
		}
		ft := FieldType(fd.Type)
		if !slices.Contains(ValidFieldTypes, ft) {
			return nil, fmt.Errorf("entity %s: field %s: invalid type %q (must be one of %v)",
				e.Name, fd.Name, fd.Type, ValidFieldTypes)
		}
		f := &Field{
			Entity:   e,
			Name:     fd.Name,
			Column:   fd.Column,
			Type:     ft,
			Nullable: fd.Nullable,
		}
		if f.Column == "" {
			f.Column = fd.Name
		}
		if err := e.addAttribute(f); err != nil {
			return nil, err
		}
		e.fields = append(e.fields, f)
	}

	if _, ok := e.Field(e.PrimaryKey); !ok {
		return nil, fmt.Errorf("entity %s: primary key %q is not a declared field", e.Name, e.PrimaryKey)
	}
	return e, nil
}

func (s *Schema) buildRelationship(source *Entity, rd RelationshipDef) (*Relationship, error) {
	if rd.Name == "" {
		return nil, fmt.Errorf("entity %s: relationship name is required", source.Name)
	}
	if strings.Contains(rd.Name, "__") || strings.Contains(rd.Backref, "__") {
		return nil, fmt.Errorf("entity %s: relationship %q must not contain \"__\"", source.Name, rd.Name)
	}
	target, ok := s.entities[rd.Target]
	if !ok {
		return nil, fmt.Errorf("entity %s: relationship %s: unknown target %q", source.Name, rd.Name, rd.Target)
	}

	rel := &Relationship{
		Entity:       source,
		Name:         rd.Name,
		Target:       target,
		LocalColumn:  rd.Local,
		RemoteColumn: rd.Remote,
		Many:         rd.Many,
	}
	if rel.LocalColumn == "" {
		if rel.Many {
			rel.LocalColumn = source.PrimaryField().Column
		} else {
			rel.LocalColumn = rd.Name + "_id"
		}
	}
	if rel.RemoteColumn == "" {
		if rel.Many {
			rel.RemoteColumn = source.Table + "_id"
		} else {
			rel.RemoteColumn = target.PrimaryField().Column
		}
	}

	if _, ok := source.fieldByColumn(rel.LocalColumn); !ok {
		return nil, fmt.Errorf("entity %s: relationship %s: no column %q on %s",
			source.Name, rd.Name, rel.LocalColumn, source.Name)
	}
	if _, ok := target.fieldByColumn(rel.RemoteColumn); !ok {
		return nil, fmt.Errorf("entity %s: relationship %s: no column %q on %s",
			source.Name, rd.Name, rel.RemoteColumn, target.Name)
	}
	return rel, nil
}
