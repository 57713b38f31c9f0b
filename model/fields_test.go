package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFieldsTlvRoundtrip(t *testing.T) {
	fields := Fields{
		"name":  "eros",
		"count": int64(42),
		"ratio": 0.5,
		"live":  true,
		"gone":  nil,
		"meta":  Fields{"depth": int64(2)},
	}

	back, err := FieldsFromTlv(fields.Tlv())
	assert.NoError(t, err)
	assert.True(t, fields.Equal(back))
}

func TestFieldsCanonicalEncoding(t *testing.T) {
	// int widths normalize, key order does not matter
	a := Fields{"x": 1, "y": "z"}
	b := Fields{"y": "z", "x": int64(1)}
	assert.True(t, a.Equal(b))
	assert.Equal(t, a.Tlv(), b.Tlv())
	assert.Equal(t, a.Hash(), b.Hash())

	assert.False(t, a.Equal(Fields{"x": int64(2), "y": "z"}))
	assert.False(t, a.Equal(Fields{"x": int64(1)}))
}

func TestFieldsFromTlvRejectsGarbage(t *testing.T) {
	_, err := FieldsFromTlv([]byte("garbage"))
	assert.Error(t, err)
}

func TestFieldsClone(t *testing.T) {
	src := Fields{"a": int64(1), "sub": Fields{"b": "c"}}
	clone := src.Clone()
	clone["a"] = int64(2)
	clone["sub"].(Fields)["b"] = "d"

	assert.Equal(t, int64(1), src["a"])
	assert.Equal(t, "c", src["sub"].(Fields)["b"])
}

func TestFieldsApplyPatch(t *testing.T) {
	doc := Fields{"keep": "old", "drop": "old", "edit": "old"}
	doc.ApplyPatch(Fields{"edit": "new", "add": int64(7)}, []string{"add", "drop", "edit"})

	assert.True(t, doc.Equal(Fields{"keep": "old", "edit": "new", "add": int64(7)}))
}

func TestFieldsString(t *testing.T) {
	fields := Fields{"b": int64(2), "a": "x", "n": nil}
	assert.Equal(t, `{a:"x", b:2, n:null}`, fields.String())
}

func TestZipIntRoundtrip(t *testing.T) {
	for _, v := range []int64{0, -1, 1, 123, -123, 1 << 40, -(1 << 40)} {
		assert.Equal(t, v, UnzipInt64(ZipInt64(v)), "%d", v)
	}
	for _, f := range []float64{0, 0.5, -1.25, 3.14159} {
		assert.Equal(t, f, UnzipFloat64(ZipFloat64(f)))
	}
}
