package layout

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/rawbytedev/bytepacker"
)

const greetingLayout = `
name: greeting
capacity: 66
fields:
  - {name: sender, offset: 0, width: 3, kind: text}
  - {name: greeting, offset: 3, width: 5, kind: text}
  - {name: flags, offset: 8, kind: uint16}
  - {name: ratio, offset: 10, kind: float64}
  - {name: ok, offset: 18, kind: bool}
  - {name: tag, offset: 19, width: 4, kind: bytes}
  - {name: codes, offset: 23, kind: int32, width: 8, count: 4}
  - {name: small, offset: 55, kind: int64, width: 2}
`

func mustParse(t *testing.T, src string) *Layout {
	t.Helper()
	l, err := Parse([]byte(src))
	require.NoError(t, err)
	return l
}

func TestParseDefaults(t *testing.T) {
	l := mustParse(t, greetingLayout)
	assert.Equal(t, "greeting", l.Name)
	assert.Equal(t, 66, l.Capacity)
	require.Len(t, l.Fields, 8)

	flags, ok := l.Field("flags")
	require.True(t, ok)
	assert.Equal(t, 2, flags.Width)
	assert.Equal(t, 10, flags.End())

	codes, ok := l.Field("codes")
	require.True(t, ok)
	assert.Equal(t, 32, codes.Size())
	assert.Equal(t, 55, codes.End())

	_, ok = l.Field("missing")
	assert.False(t, ok)
	assert.Empty(t, l.Overlaps())
}

func TestValidateErrors(t *testing.T) {
	testCases := []struct {
		name string
		src  string
	}{
		{"zero capacity", "name: x\ncapacity: 0\n"},
		{"unnamed field", "capacity: 8\nfields: [{offset: 0, kind: uint8}]\n"},
		{"duplicate", "capacity: 8\nfields: [{name: a, offset: 0, kind: uint8}, {name: a, offset: 1, kind: uint8}]\n"},
		{"unknown kind", "capacity: 8\nfields: [{name: a, offset: 0, kind: complex64}]\n"},
		{"past capacity", "capacity: 8\nfields: [{name: a, offset: 4, kind: uint64}]\n"},
		{"sequence past capacity", "capacity: 8\nfields: [{name: a, offset: 0, kind: uint16, count: 5}]\n"},
		{"text without width", "capacity: 8\nfields: [{name: a, offset: 0, kind: text}]\n"},
		{"repeated text", "capacity: 8\nfields: [{name: a, offset: 0, width: 2, kind: text, count: 2}]\n"},
		{"negative offset", "capacity: 8\nfields: [{name: a, offset: -1, kind: uint8}]\n"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.src))
			require.ErrorIs(t, err, ErrInvalidLayout)
		})
	}

	_, err := Parse([]byte("capacity: [nope"))
	require.Error(t, err)
}

func TestOverlaps(t *testing.T) {
	l := mustParse(t, `
capacity: 16
fields:
  - {name: whole, offset: 0, kind: uint64}
  - {name: high, offset: 0, kind: uint32}
  - {name: low, offset: 4, kind: uint32}
  - {name: after, offset: 8, kind: uint32}
`)
	assert.Equal(t, [][2]string{{"whole", "high"}, {"whole", "low"}}, l.Overlaps())
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	l := mustParse(t, greetingLayout)

	var rec Record
	require.NoError(t, yaml.Unmarshal([]byte(`
sender: BOB
greeting: hello
flags: 513
ratio: 0.5
ok: true
tag: ab
codes: [10, 20, 30, -1]
small: 300
`), &rec))

	buf, err := l.Encode(rec, bytepacker.Options{Strict: true})
	require.NoError(t, err)
	require.Len(t, buf, 66)
	assert.Equal(t, "BOBhello", string(buf[:8]))
	assert.Equal(t, []byte{2, 1}, buf[8:10])
	assert.Equal(t, []byte{0, 0, 0, 0, 0, 0, 0, 10}, buf[23:31])
	assert.Equal(t, []byte{1, 0x2C}, buf[55:57])

	got, err := l.Decode(buf, bytepacker.Options{Strict: true})
	require.NoError(t, err)
	assert.Equal(t, "BOB", got["sender"])
	assert.Equal(t, "hello", got["greeting"])
	assert.Equal(t, uint16(513), got["flags"])
	assert.Equal(t, 0.5, got["ratio"])
	assert.Equal(t, true, got["ok"])
	assert.Equal(t, []byte{'a', 'b', 0, 0}, got["tag"])
	assert.Equal(t, []int32{10, 20, 30, -1}, got["codes"])
	assert.Equal(t, int64(300), got["small"])
}

func TestEncodeMissingFieldsStayZero(t *testing.T) {
	l := mustParse(t, greetingLayout)
	buf, err := l.Encode(Record{"flags": 7}, bytepacker.Options{})
	require.NoError(t, err)

	got, err := l.Decode(buf, bytepacker.Options{})
	require.NoError(t, err)
	assert.Equal(t, "", got["sender"])
	assert.Equal(t, uint16(7), got["flags"])
	assert.Equal(t, []int32{0, 0, 0, 0}, got["codes"])
}

func TestEncodeErrors(t *testing.T) {
	l := mustParse(t, greetingLayout)
	testCases := []struct {
		name string
		rec  Record
	}{
		{"unknown field", Record{"nope": 1}},
		{"text too long", Record{"sender": "ALICE"}},
		{"text wrong type", Record{"sender": 5}},
		{"bytes too long", Record{"tag": []byte("abcdef")}},
		{"bytes wrong type", Record{"tag": 5}},
		{"scalar wrong type", Record{"flags": "high"}},
		{"scalar nil", Record{"flags": nil}},
		{"not a sequence", Record{"codes": 5}},
		{"too many elements", Record{"codes": []int{1, 2, 3, 4, 5}}},
		{"bad element", Record{"codes": []any{1, "two"}}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := l.Encode(tc.rec, bytepacker.Options{})
			require.Error(t, err)
		})
	}
}

func TestEncodeRejectsNarrowing(t *testing.T) {
	l := mustParse(t, `
name: narrow
capacity: 32
fields:
  - {name: a, offset: 0, kind: int8}
  - {name: b, offset: 1, kind: uint16}
  - {name: c, offset: 3, kind: int32}
  - {name: d, offset: 7, kind: float32}
  - {name: e, offset: 11, kind: uint8, count: 3}
  - {name: f, offset: 14, kind: int64}
`)
	testCases := []struct {
		name string
		rec  Record
	}{
		{"int above int8", Record{"a": 300}},
		{"int below int8", Record{"a": -129}},
		{"negative to unsigned", Record{"b": -1}},
		{"int above uint16", Record{"b": 70000}},
		{"fraction to int", Record{"c": 2.9}},
		{"float above int32", Record{"c": 3e9}},
		{"negative float to unsigned", Record{"b": -1.0}},
		{"NaN to int", Record{"c": math.NaN()}},
		{"float64 above float32", Record{"d": 1e300}},
		{"uint64 above int64", Record{"f": uint64(math.MaxUint64)}},
		{"sequence element above uint8", Record{"e": []any{1, 256}}},
		{"negative sequence element", Record{"e": []int{-1}}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := l.Encode(tc.rec, bytepacker.Options{Strict: true})
			require.Error(t, err)
			_, err = l.Encode(tc.rec, bytepacker.Options{})
			require.Error(t, err)
		})
	}

	buf, err := l.Encode(Record{"a": -128, "b": 65535, "c": 2.0, "d": 0.5, "e": []any{0, 255}, "f": uint64(7)}, bytepacker.Options{Strict: true})
	require.NoError(t, err)
	got, err := l.Decode(buf, bytepacker.Options{Strict: true})
	require.NoError(t, err)
	assert.Equal(t, int8(-128), got["a"])
	assert.Equal(t, uint16(65535), got["b"])
	assert.Equal(t, int32(2), got["c"])
	assert.Equal(t, float32(0.5), got["d"])
	assert.Equal(t, []uint8{0, 255, 0}, got["e"])
	assert.Equal(t, int64(7), got["f"])
}

func TestDecodeShortBuffer(t *testing.T) {
	l := mustParse(t, greetingLayout)
	buf, err := l.Encode(Record{"sender": "BOB", "flags": 1}, bytepacker.Options{})
	require.NoError(t, err)

	short := buf[:20]
	got, err := l.Decode(short, bytepacker.Options{})
	require.NoError(t, err)
	assert.Equal(t, "BOB", got["sender"])
	assert.Equal(t, []int32{}, got["codes"])

	_, err = l.Decode(short, bytepacker.Options{Strict: true})
	require.ErrorIs(t, err, bytepacker.ErrTruncated)
}

func TestLayoutBuiltInCode(t *testing.T) {
	l := &Layout{
		Name:     "point",
		Capacity: 8,
		Fields: []Field{
			{Name: "x", Offset: 0, Kind: "int32"},
			{Name: "y", Offset: 4, Kind: "int32"},
		},
	}
	buf, err := l.Encode(Record{"x": -1, "y": 2}, bytepacker.Options{})
	require.NoError(t, err)
	got, err := l.Decode(buf, bytepacker.Options{})
	require.NoError(t, err)
	assert.Equal(t, Record{"x": int32(-1), "y": int32(2)}, got)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "greeting.yaml")
	require.NoError(t, os.WriteFile(path, []byte(greetingLayout), 0o644))

	l, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "greeting", l.Name)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
}
