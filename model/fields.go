package model

import (
	"bytes"
	"fmt"
	"slices"
	"strconv"

	"github.com/cespare/xxhash"
	"github.com/drpcorg/docstore/store_errors"
	"github.com/learn-decentralized-systems/toytlv"
)

/*
	Fields is the contents of a document: named values of the
	supported scalar types (string, int64, float64, bool, nil)
	or a nested Fields map.

	Equality and hashing go through the canonical TLV form
	(field names in byte order), so two Fields with the same
	contents always encode, compare and hash the same.

	K name, then one value record:
		S string | I int | F float | L logical | N null | M map
*/
type Fields map[string]any

func (f Fields) Names() []string {
	names := make([]string, 0, len(f))
	for name := range f {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func valueTlv(v any) []byte {
	switch val := v.(type) {
	case nil:
		return toytlv.Record('N')
	case string:
		return toytlv.Record('S', []byte(val))
	case int:
		return toytlv.Record('I', ZipInt64(int64(val)))
	case int32:
		return toytlv.Record('I', ZipInt64(int64(val)))
	case int64:
		return toytlv.Record('I', ZipInt64(val))
	case float32:
		return toytlv.Record('F', ZipFloat64(float64(val)))
	case float64:
		return toytlv.Record('F', ZipFloat64(val))
	case bool:
		b := byte(0)
		if val {
			b = 1
		}
		return toytlv.Record('L', []byte{b})
	case Fields:
		return toytlv.Record('M', val.Tlv())
	default:
		panic(store_errors.ErrBadFieldValue)
	}
}

func (f Fields) Tlv() (tlv []byte) {
	for _, name := range f.Names() {
		tlv = append(tlv, toytlv.Record('K', []byte(name))...)
		tlv = append(tlv, valueTlv(f[name])...)
	}
	return
}

func FieldsFromTlv(tlv []byte) (Fields, error) {
	f := make(Fields)
	rest := tlv
	for len(rest) > 0 {
		name, r := toytlv.Take('K', rest)
		if name == nil {
			return nil, store_errors.ErrBadFieldsRecord
		}
		lit, body, r := toytlv.TakeAny(r)
		switch lit {
		case 'N':
			f[string(name)] = nil
		case 'S':
			f[string(name)] = string(body)
		case 'I':
			f[string(name)] = UnzipInt64(body)
		case 'F':
			f[string(name)] = UnzipFloat64(body)
		case 'L':
			f[string(name)] = len(body) == 1 && body[0] == 1
		case 'M':
			sub, err := FieldsFromTlv(body)
			if err != nil {
				return nil, err
			}
			f[string(name)] = sub
		default:
			return nil, store_errors.ErrBadFieldsRecord
		}
		rest = r
	}
	return f, nil
}

func (f Fields) Equal(other Fields) bool {
	return bytes.Equal(f.Tlv(), other.Tlv())
}

func (f Fields) Hash() uint64 {
	return xxhash.Sum64(f.Tlv())
}

func (f Fields) Clone() Fields {
	if f == nil {
		return nil
	}
	clone := make(Fields, len(f))
	for name, v := range f {
		if sub, ok := v.(Fields); ok {
			clone[name] = sub.Clone()
		} else {
			clone[name] = v
		}
	}
	return clone
}

// ApplyPatch merges the patch into f honoring the field mask:
// a masked name present in the patch is set, a masked name
// absent from the patch is deleted.
func (f Fields) ApplyPatch(patch Fields, mask []string) {
	for _, name := range mask {
		if v, ok := patch[name]; ok {
			if sub, isSub := v.(Fields); isSub {
				f[name] = sub.Clone()
			} else {
				f[name] = v
			}
		} else {
			delete(f, name)
		}
	}
}

func (f Fields) String() string {
	var b []byte
	b = append(b, '{')
	for i, name := range f.Names() {
		if i > 0 {
			b = append(b, ',', ' ')
		}
		b = append(b, name...)
		b = append(b, ':')
		switch v := f[name].(type) {
		case string:
			b = strconv.AppendQuote(b, v)
		case nil:
			b = append(b, "null"...)
		default:
			b = fmt.Append(b, v)
		}
	}
	b = append(b, '}')
	return string(b)
}
