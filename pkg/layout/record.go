package layout

import (
	"fmt"
	"math"
	"reflect"

	"github.com/rawbytedev/bytepacker"
)

// Record maps field names to values. Scalars decode to the Go type of their
// kind, sequences to a slice of it, text to string and bytes to []byte.
type Record map[string]any

func (l *Layout) ready() error {
	if l.types != nil {
		return nil
	}
	return l.Validate()
}

// Encode packs rec into a new buffer of the layout's capacity. Fields missing
// from rec stay zero; names the layout does not know are rejected.
func (l *Layout) Encode(rec Record, opts bytepacker.Options) ([]byte, error) {
	if err := l.ready(); err != nil {
		return nil, err
	}
	for name := range rec {
		if _, ok := l.Field(name); !ok {
			return nil, fmt.Errorf("encode %s: unknown field %q", l.Name, name)
		}
	}
	buf := make([]byte, l.Capacity)
	p := bytepacker.NewPacker(buf, opts)
	for _, f := range l.Fields {
		v, ok := rec[f.Name]
		if !ok {
			continue
		}
		if err := l.encodeField(p, f, v); err != nil {
			return nil, fmt.Errorf("encode %s: field %q: %w", l.Name, f.Name, err)
		}
		if err := p.Err(); err != nil {
			return nil, fmt.Errorf("encode %s: field %q: %w", l.Name, f.Name, err)
		}
	}
	return buf, nil
}

func (l *Layout) encodeField(p *bytepacker.Packer, f Field, v any) error {
	switch f.Kind {
	case KindText:
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("want string, got %T", v)
		}
		if len(s) > f.Width {
			return fmt.Errorf("text of %d bytes exceeds width %d", len(s), f.Width)
		}
		p.Pack(f.Offset, s)
		return nil
	case KindBytes:
		var b []byte
		switch t := v.(type) {
		case []byte:
			b = t
		case string:
			b = []byte(t)
		default:
			return fmt.Errorf("want bytes, got %T", v)
		}
		if len(b) > f.Width {
			return fmt.Errorf("%d bytes exceed width %d", len(b), f.Width)
		}
		// Opaque bytes keep their order on the wire.
		p.Pack(f.Offset, string(b))
		return nil
	}

	t := l.types[f.Name]
	if f.Count == 0 {
		cv, err := convert(v, t)
		if err != nil {
			return err
		}
		p.PackN(f.Offset, f.Width, cv.Interface())
		return nil
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return fmt.Errorf("want a sequence, got %T", v)
	}
	if rv.Len() > f.Count {
		return fmt.Errorf("%d elements exceed count %d", rv.Len(), f.Count)
	}
	seq := reflect.MakeSlice(reflect.SliceOf(t), rv.Len(), rv.Len())
	for i := 0; i < rv.Len(); i++ {
		cv, err := convert(rv.Index(i).Interface(), t)
		if err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
		seq.Index(i).Set(cv)
	}
	p.PackEach(f.Offset, seq.Interface(), f.Width)
	return nil
}

// convert turns a loosely typed value, as produced by a YAML decoder, into
// the Go type of a field kind. Values the kind cannot hold exactly are
// rejected rather than narrowed.
func convert(v any, t reflect.Type) (reflect.Value, error) {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return reflect.Value{}, fmt.Errorf("want %s, got nil", t)
	}
	if t.Kind() == reflect.Bool {
		if rv.Kind() != reflect.Bool {
			return reflect.Value{}, fmt.Errorf("want %s, got %T", t, v)
		}
		return rv.Convert(t), nil
	}
	if !isNumeric(t.Kind()) || !isNumeric(rv.Kind()) {
		return reflect.Value{}, fmt.Errorf("want %s, got %T", t, v)
	}
	if !fits(rv, t) {
		return reflect.Value{}, fmt.Errorf("%v does not fit %s", v, t)
	}
	return rv.Convert(t), nil
}

func isNumeric(k reflect.Kind) bool {
	return isInt(k) || isUint(k) || k == reflect.Float32 || k == reflect.Float64
}

func isInt(k reflect.Kind) bool {
	return k >= reflect.Int && k <= reflect.Int64
}

func isUint(k reflect.Kind) bool {
	return k >= reflect.Uint && k <= reflect.Uintptr
}

// fits reports whether the numeric value rv converts to t without loss of
// its integer part, sign or range.
func fits(rv reflect.Value, t reflect.Type) bool {
	dst := reflect.New(t).Elem()
	to := t.Kind()
	switch from := rv.Kind(); {
	case isInt(from):
		x := rv.Int()
		switch {
		case isInt(to):
			return !dst.OverflowInt(x)
		case isUint(to):
			return x >= 0 && !dst.OverflowUint(uint64(x))
		}
		return true
	case isUint(from):
		x := rv.Uint()
		switch {
		case isInt(to):
			return x <= math.MaxInt64 && !dst.OverflowInt(int64(x))
		case isUint(to):
			return !dst.OverflowUint(x)
		}
		return true
	default:
		f := rv.Float()
		switch {
		case isInt(to):
			return f == math.Trunc(f) && f >= math.MinInt64 && f < math.MaxInt64 &&
				!dst.OverflowInt(int64(f))
		case isUint(to):
			return f == math.Trunc(f) && f >= 0 && f < math.MaxUint64 &&
				!dst.OverflowUint(uint64(f))
		}
		return math.IsNaN(f) || !dst.OverflowFloat(f)
	}
}

// Decode unpacks every field of the layout from buf. With opts.Strict a buf
// shorter than the capacity is an error; otherwise missing bytes read as zero.
func (l *Layout) Decode(buf []byte, opts bytepacker.Options) (Record, error) {
	if err := l.ready(); err != nil {
		return nil, err
	}
	p := bytepacker.NewPacker(buf, opts)
	rec := make(Record, len(l.Fields))
	for _, f := range l.Fields {
		switch {
		case f.Kind == KindText:
			rec[f.Name] = p.UnpackText(f.Offset, f.Width)
		case f.Kind == KindBytes:
			rec[f.Name] = p.Unpack(f.Offset, f.Width).Wire()
		case f.Count == 0:
			out := reflect.New(l.types[f.Name])
			p.UnpackInto(f.Offset, f.Width, out.Interface())
			rec[f.Name] = out.Elem().Interface()
		default:
			out := reflect.New(reflect.SliceOf(l.types[f.Name]))
			out.Elem().Set(reflect.MakeSlice(out.Elem().Type(), 0, f.Count))
			p.UnpackEach(f.Offset, f.Count, f.Width, out.Interface())
			rec[f.Name] = out.Elem().Interface()
		}
		if err := p.Err(); err != nil {
			return nil, fmt.Errorf("decode %s: field %q: %w", l.Name, f.Name, err)
		}
	}
	return rec, nil
}
