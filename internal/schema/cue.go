package schema

import (
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"
)

// CompileError reports an invalid schema declaration with its CUE position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// LoadCUE loads every CUE file of the package in dir and compiles the
// top-level "entity" struct into a Schema.
//
//	entity: Blog: {
//		fields: {
//			id:   "integer"
//			name: {type: "text", nullable: true}
//		}
//		relationships: entries: {target: "Entry", many: true, backref: "blog"}
//	}
func LoadCUE(dir string) (*Schema, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("schema directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("schema path is not a directory: %s", dir)
	}

	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, fmt.Errorf("no CUE instances loaded from %s", dir)
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, fmt.Errorf("loading CUE files: %w", inst.Err)
	}

	value := cuecontext.New().BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	return Compile(value)
}

// CompileCUE compiles schema source text. Mostly useful in tests.
func CompileCUE(src string) (*Schema, error) {
	value := cuecontext.New().CompileString(src)
	if err := value.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	return Compile(value)
}

// Compile turns a built CUE value into a Schema.
func Compile(v cue.Value) (*Schema, error) {
	def, err := parseDefinition(v)
	if err != nil {
		return nil, err
	}
	s, err := Build(*def)
	if err != nil {
		return nil, &CompileError{Field: "entity", Message: err.Error(), Pos: v.Pos()}
	}
	return s, nil
}

func parseDefinition(v cue.Value) (*Definition, error) {
	entitiesVal := v.LookupPath(cue.ParsePath("entity"))
	if !entitiesVal.Exists() {
		return nil, &CompileError{Field: "entity", Message: "no entities declared", Pos: v.Pos()}
	}

	iter, err := entitiesVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	def := &Definition{}
	for iter.Next() {
		ed, err := parseEntity(iter.Label(), iter.Value())
		if err != nil {
			return nil, err
		}
		def.Entities = append(def.Entities, ed)
	}
	return def, nil
}

func parseEntity(name string, v cue.Value) (EntityDef, error) {
	ed := EntityDef{Name: name}

	var err error
	if ed.Table, err = optionalString(v, "table"); err != nil {
		return ed, err
	}
	if ed.PrimaryKey, err = optionalString(v, "primary_key"); err != nil {
		return ed, err
	}

	fieldsVal := v.LookupPath(cue.ParsePath("fields"))
	if !fieldsVal.Exists() {
		return ed, &CompileError{
			Field:   fmt.Sprintf("entity.%s.fields", name),
			Message: "fields are required",
			Pos:     v.Pos(),
		}
	}
	iter, err := fieldsVal.Fields()
	if err != nil {
		return ed, formatCUEError(err)
	}
	for iter.Next() {
		fd, err := parseField(name, iter.Label(), iter.Value())
		if err != nil {
			return ed, err
		}
		ed.Fields = append(ed.Fields, fd)
	}

	relsVal := v.LookupPath(cue.ParsePath("relationships"))
	if relsVal.Exists() {
		iter, err := relsVal.Fields()
		if err != nil {
			return ed, formatCUEError(err)
		}
		for iter.Next() {
			rd, err := parseRelationship(name, iter.Label(), iter.Value())
			if err != nil {
				return ed, err
			}
			ed.Relationships = append(ed.Relationships, rd)
		}
	}

	return ed, nil
}

// parseField accepts either a bare type string or a struct with type,
// column and nullable.
func parseField(entity, name string, v cue.Value) (FieldDef, error) {
	fd := FieldDef{Name: name}

	if typ, err := v.String(); err == nil {
		fd.Type = typ
		return fd, nil
	}

	typ, err := optionalString(v, "type")
	if err != nil {
		return fd, err
	}
	if typ == "" {
		return fd, &CompileError{
			Field:   fmt.Sprintf("entity.%s.fields.%s", entity, name),
			Message: "must be a type string or a struct with a type field",
			Pos:     v.Pos(),
		}
	}
	fd.Type = typ

	if fd.Column, err = optionalString(v, "column"); err != nil {
		return fd, err
	}
	if fd.Nullable, err = optionalBool(v, "nullable"); err != nil {
		return fd, err
	}
	return fd, nil
}

func parseRelationship(entity, name string, v cue.Value) (RelationshipDef, error) {
	rd := RelationshipDef{Name: name}

	var err error
	if rd.Target, err = optionalString(v, "target"); err != nil {
		return rd, err
	}
	if rd.Target == "" {
		return rd, &CompileError{
			Field:   fmt.Sprintf("entity.%s.relationships.%s.target", entity, name),
			Message: "target is required",
			Pos:     v.Pos(),
		}
	}
	if rd.Local, err = optionalString(v, "local"); err != nil {
		return rd, err
	}
	if rd.Remote, err = optionalString(v, "remote"); err != nil {
		return rd, err
	}
	if rd.Many, err = optionalBool(v, "many"); err != nil {
		return rd, err
	}
	if rd.Backref, err = optionalString(v, "backref"); err != nil {
		return rd, err
	}
	return rd, nil
}

func optionalString(v cue.Value, path string) (string, error) {
	val := v.LookupPath(cue.ParsePath(path))
	if !val.Exists() {
		return "", nil
	}
	s, err := val.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

func optionalBool(v cue.Value, path string) (bool, error) {
	val := v.LookupPath(cue.ParsePath(path))
	if !val.Exists() {
		return false, nil
	}
	b, err := val.Bool()
	if err != nil {
		return false, formatCUEError(err)
	}
	return b, nil
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
