// Package layout describes the out-of-band agreement a fixed-capacity buffer
// depends on: which field lives at which offset, how wide it is and how it is
// encoded. Layouts are usually kept in YAML next to the code that uses them:
//
//	name: greeting
//	capacity: 66
//	fields:
//	  - {name: sender, offset: 0, width: 3, kind: text}
//	  - {name: flags, offset: 3, kind: uint16}
//	  - {name: codes, offset: 7, kind: int32, width: 8, count: 6}
//
// Width defaults to the natural size of the kind. For sequences (count > 0)
// width is the per-element stride.
package layout

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/rawbytedev/bytepacker/internal/common"
)

// Field kinds that are copied verbatim rather than converted to network order.
const (
	KindText  = "text"
	KindBytes = "bytes"
)

var ErrInvalidLayout = errors.New("invalid layout")

// Field is one named slot of a layout.
type Field struct {
	Name   string `yaml:"name"`
	Offset int    `yaml:"offset"`
	Width  int    `yaml:"width,omitempty"`
	Kind   string `yaml:"kind"`
	Count  int    `yaml:"count,omitempty"`
}

// Layout is a named, fixed-capacity arrangement of fields.
type Layout struct {
	Name     string  `yaml:"name"`
	Capacity int     `yaml:"capacity"`
	Fields   []Field `yaml:"fields"`

	types map[string]reflect.Type
}

var kindTypes = map[reflect.Kind]reflect.Type{
	reflect.Bool:    reflect.TypeFor[bool](),
	reflect.Int8:    reflect.TypeFor[int8](),
	reflect.Uint8:   reflect.TypeFor[uint8](),
	reflect.Int16:   reflect.TypeFor[int16](),
	reflect.Uint16:  reflect.TypeFor[uint16](),
	reflect.Int32:   reflect.TypeFor[int32](),
	reflect.Uint32:  reflect.TypeFor[uint32](),
	reflect.Int64:   reflect.TypeFor[int64](),
	reflect.Uint64:  reflect.TypeFor[uint64](),
	reflect.Float32: reflect.TypeFor[float32](),
	reflect.Float64: reflect.TypeFor[float64](),
}

// Parse decodes a YAML layout and validates it.
func Parse(data []byte) (*Layout, error) {
	l := &Layout{}
	if err := yaml.Unmarshal(data, l); err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}
	if err := l.Validate(); err != nil {
		return nil, err
	}
	return l, nil
}

// Load reads and parses the layout file at path.
func Load(path string) (*Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load layout: %w", err)
	}
	l, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return l, nil
}

// Validate fills in default widths and checks that every field has a known
// kind, a unique name and lies entirely inside the capacity.
func (l *Layout) Validate() error {
	if l.Capacity <= 0 {
		return fmt.Errorf("%w: capacity %d", ErrInvalidLayout, l.Capacity)
	}
	l.types = make(map[string]reflect.Type, len(l.Fields))
	seen := make(map[string]bool, len(l.Fields))
	for i := range l.Fields {
		f := &l.Fields[i]
		if f.Name == "" {
			return fmt.Errorf("%w: field %d has no name", ErrInvalidLayout, i)
		}
		if seen[f.Name] {
			return fmt.Errorf("%w: duplicate field %q", ErrInvalidLayout, f.Name)
		}
		seen[f.Name] = true
		switch f.Kind {
		case KindText, KindBytes:
			if f.Count > 0 {
				return fmt.Errorf("%w: field %q: %s fields cannot repeat", ErrInvalidLayout, f.Name, f.Kind)
			}
		default:
			k, ok := common.KindOf(f.Kind)
			if !ok {
				return fmt.Errorf("%w: field %q: unknown kind %q", ErrInvalidLayout, f.Name, f.Kind)
			}
			if f.Width == 0 {
				f.Width = common.FixedSize(k)
			}
			l.types[f.Name] = kindTypes[k]
		}
		if f.Width <= 0 || f.Count < 0 || f.Offset < 0 {
			return fmt.Errorf("%w: field %q: offset %d width %d count %d",
				ErrInvalidLayout, f.Name, f.Offset, f.Width, f.Count)
		}
		if end := f.End(); end > l.Capacity {
			return fmt.Errorf("%w: field %q ends at %d past capacity %d",
				ErrInvalidLayout, f.Name, end, l.Capacity)
		}
	}
	return nil
}

// Size is the number of bytes the field occupies.
func (f Field) Size() int {
	if f.Count > 0 {
		return f.Width * f.Count
	}
	return f.Width
}

// End is the offset one past the last byte of the field.
func (f Field) End() int {
	return f.Offset + f.Size()
}

// Field returns the field with the given name.
func (l *Layout) Field(name string) (Field, bool) {
	for _, f := range l.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Overlaps lists pairs of fields sharing at least one byte, ordered by offset.
// Overlap is legal (a field may be a view over others) but usually a mistake.
func (l *Layout) Overlaps() [][2]string {
	fields := make([]Field, len(l.Fields))
	copy(fields, l.Fields)
	sort.SliceStable(fields, func(i, j int) bool { return fields[i].Offset < fields[j].Offset })
	var out [][2]string
	for i := range fields {
		for j := i + 1; j < len(fields) && fields[j].Offset < fields[i].End(); j++ {
			out = append(out, [2]string{fields[i].Name, fields[j].Name})
		}
	}
	return out
}
