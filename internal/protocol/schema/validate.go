package schema

import (
	"errors"
	"fmt"
	"sort"

	"github.com/danmuck/sbewire/internal/protocol/sbe"
	"github.com/rs/zerolog/log"
)

var ErrInvalidTable = errors.New("schema: invalid table")

// ValidationError names the structure and field a table check failed on.
type ValidationError struct {
	Scope  string
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("schema: %s: %s", e.Scope, e.Reason)
	}
	return fmt.Sprintf("schema: %s field=%s: %s", e.Scope, e.Field, e.Reason)
}

func (e ValidationError) Is(target error) bool {
	return target == ErrInvalidTable
}

// Validate checks every layout in t and returns the first problem found, in
// declaration order.
func Validate(t *Table) error {
	log.Debug().Msgf("schema.Validate name=%s messages=%d", t.Name, len(t.Messages))
	if err := validateTable(t); err != nil {
		log.Error().Msgf("schema.Validate name=%s %v", t.Name, err)
		return err
	}
	log.Info().Msgf("schema.Validate ok name=%s schema_id=%d version=%d", t.Name, t.SchemaID, t.Version)
	return nil
}

func validateTable(t *Table) error {
	enums := map[string]bool{}
	for i := range t.Enums {
		if err := validateEnum(&t.Enums[i], enums); err != nil {
			return err
		}
	}

	composites := map[string]bool{}
	for i := range t.Composites {
		c := &t.Composites[i]
		scope := "composite " + c.Name
		if c.Name == "" || composites[c.Name] {
			return ValidationError{Scope: scope, Reason: "missing or duplicate name"}
		}
		composites[c.Name] = true
		if c.Length <= 0 {
			return ValidationError{Scope: scope, Reason: "zero block length"}
		}
		if err := validateLayout(t, scope, c.Fields, c.Length); err != nil {
			return err
		}
	}
	if err := CheckStructure(t); err != nil {
		return err
	}

	names := map[string]bool{}
	templates := map[uint16]string{}
	for i := range t.Messages {
		m := &t.Messages[i]
		scope := "message " + m.Name
		if m.Name == "" || names[m.Name] {
			return ValidationError{Scope: scope, Reason: "missing or duplicate name"}
		}
		names[m.Name] = true
		if other, dup := templates[m.TemplateID]; dup {
			return ValidationError{Scope: scope, Reason: fmt.Sprintf("duplicate template id %d (also %s)", m.TemplateID, other)}
		}
		templates[m.TemplateID] = m.Name
		if m.BlockLength <= 0 {
			return ValidationError{Scope: scope, Reason: "zero block length"}
		}
		if m.BlockLength > 0xFFFF {
			return ValidationError{Scope: scope, Reason: "block length exceeds 65535"}
		}
		if m.SinceVersion > t.Version {
			return ValidationError{Scope: scope, Reason: "since_version beyond schema version"}
		}
		if err := validateLayout(t, scope, m.Fields, m.BlockLength); err != nil {
			return err
		}
		if err := validateGroups(t, m.Name, m.Groups); err != nil {
			return err
		}
	}
	return nil
}

func validateEnum(e *EnumSpec, seen map[string]bool) error {
	scope := "enum " + e.Name
	if e.Name == "" || seen[e.Name] {
		return ValidationError{Scope: scope, Reason: "missing or duplicate name"}
	}
	seen[e.Name] = true
	switch e.Encoding {
	case "", "char", "uint8":
	default:
		return ValidationError{Scope: scope, Reason: fmt.Sprintf("unsupported encoding %q", e.Encoding)}
	}
	values := map[uint8]string{}
	variants := map[string]bool{}
	for _, v := range e.Values {
		if v.Name == "" || v.Name == NullVariant || variants[v.Name] {
			return ValidationError{Scope: scope, Field: v.Name, Reason: "missing, reserved or duplicate variant name"}
		}
		variants[v.Name] = true
		if v.Value == 0 {
			return ValidationError{Scope: scope, Field: v.Name, Reason: "value 0 is reserved for null"}
		}
		if other, dup := values[v.Value]; dup {
			return ValidationError{Scope: scope, Field: v.Name, Reason: "duplicate value shared with " + other}
		}
		values[v.Value] = v.Name
	}
	return nil
}

func validateGroups(t *Table, path string, groups []GroupSpec) error {
	seen := map[string]bool{}
	for i := range groups {
		g := &groups[i]
		scope := "group " + path + "." + g.Name
		if g.Name == "" || seen[g.Name] {
			return ValidationError{Scope: scope, Reason: "missing or duplicate name"}
		}
		seen[g.Name] = true
		if g.BlockLength <= 0 {
			return ValidationError{Scope: scope, Reason: "zero block length"}
		}
		if g.BlockLength > sbe.MaxGroupBlockLength {
			return ValidationError{Scope: scope, Reason: fmt.Sprintf("block length %d exceeds %d", g.BlockLength, sbe.MaxGroupBlockLength)}
		}
		if err := validateLayout(t, scope, g.Fields, g.BlockLength); err != nil {
			return err
		}
		if err := validateGroups(t, path+"."+g.Name, g.Groups); err != nil {
			return err
		}
	}
	return nil
}

type span struct {
	name       string
	start, end int
}

func validateLayout(t *Table, scope string, fields []FieldSpec, blockLength int) error {
	names := map[string]bool{}
	spans := make([]span, 0, len(fields))
	for i := range fields {
		f := &fields[i]
		if f.Name == "" || names[f.Name] {
			return ValidationError{Scope: scope, Field: f.Name, Reason: "missing or duplicate name"}
		}
		names[f.Name] = true
		if err := validateFieldType(t, scope, f); err != nil {
			return err
		}
		width, err := f.Width(t)
		if err != nil {
			return ValidationError{Scope: scope, Field: f.Name, Reason: err.Error()}
		}
		if f.Offset < 0 || f.Offset+width > blockLength {
			return ValidationError{
				Scope:  scope,
				Field:  f.Name,
				Reason: fmt.Sprintf("field outside block: offset=%d width=%d block=%d", f.Offset, width, blockLength),
			}
		}
		if f.SinceVersion > t.Version {
			return ValidationError{Scope: scope, Field: f.Name, Reason: "since_version beyond schema version"}
		}
		spans = append(spans, span{name: f.Name, start: f.Offset, end: f.Offset + width})
	}
	sort.SliceStable(spans, func(i, j int) bool { return spans[i].start < spans[j].start })
	for i := 1; i < len(spans); i++ {
		if spans[i].start < spans[i-1].end {
			return ValidationError{Scope: scope, Field: spans[i].name, Reason: "overlapping fields with " + spans[i-1].name}
		}
	}
	return nil
}

func validateFieldType(t *Table, scope string, f *FieldSpec) error {
	set := 0
	for _, s := range []string{f.Type, f.Enum, f.Composite} {
		if s != "" {
			set++
		}
	}
	if set != 1 {
		return ValidationError{Scope: scope, Field: f.Name, Reason: "exactly one of type, enum, composite must be set"}
	}
	switch f.Kind() {
	case KindEnum:
		if _, ok := t.Enum(f.Enum); !ok {
			return ValidationError{Scope: scope, Field: f.Name, Reason: "unknown enum " + f.Enum}
		}
		if f.Null != NullNone {
			return ValidationError{Scope: scope, Field: f.Name, Reason: "enum fields use NULL_VAL, not a null sentinel"}
		}
	case KindComposite:
		if _, ok := t.Composite(f.Composite); !ok {
			return ValidationError{Scope: scope, Field: f.Name, Reason: "unknown composite " + f.Composite}
		}
		if f.Null != NullNone {
			return ValidationError{Scope: scope, Field: f.Name, Reason: "composite fields cannot carry a null sentinel"}
		}
	default:
		p, err := sbe.ParsePrimitive(f.Type)
		if err != nil {
			return ValidationError{Scope: scope, Field: f.Name, Reason: "unknown primitive " + f.Type}
		}
		if f.Kind() == KindBytes && p != sbe.Char && p != sbe.Uint8 {
			return ValidationError{Scope: scope, Field: f.Name, Reason: "arrays must be char or uint8"}
		}
		if err := validateNull(p, f.Null); err != nil {
			return ValidationError{Scope: scope, Field: f.Name, Reason: err.Error()}
		}
	}
	return nil
}

func validateNull(p sbe.Primitive, null string) error {
	switch null {
	case NullNone:
		return nil
	case NullAllOnes:
		if p.IsFloat() {
			return errors.New("all-ones null on a float, use nan")
		}
	case NullNaN:
		if !p.IsFloat() {
			return errors.New("nan null on a non-float")
		}
	case NullMin:
		if !p.IsSigned() {
			return errors.New("min null on an unsigned type")
		}
	default:
		return fmt.Errorf("unknown null sentinel %q", null)
	}
	return nil
}

// CheckStructure rejects tables a codec cannot walk at all: composites that
// contain themselves. Codecs run it even when full validation is off.
func CheckStructure(t *Table) error {
	for i := range t.Composites {
		if err := checkCompositeCycle(t, t.Composites[i].Name, map[string]bool{}); err != nil {
			return err
		}
	}
	return nil
}

func checkCompositeCycle(t *Table, name string, visiting map[string]bool) error {
	if visiting[name] {
		return ValidationError{Scope: "composite " + name, Reason: "recursive composite"}
	}
	c, ok := t.Composite(name)
	if !ok {
		return nil
	}
	visiting[name] = true
	defer delete(visiting, name)
	for _, f := range c.Fields {
		if f.Composite == "" {
			continue
		}
		if err := checkCompositeCycle(t, f.Composite, visiting); err != nil {
			return err
		}
	}
	return nil
}
