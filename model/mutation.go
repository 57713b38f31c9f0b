package model

import (
	"fmt"
	"slices"
	"strings"

	"github.com/cespare/xxhash"
	"github.com/drpcorg/docstore/store_errors"
	"github.com/learn-decentralized-systems/toytlv"
)

type MutationKind byte

const (
	NoMutation     MutationKind = 0
	SetMutation    MutationKind = 'S'
	PatchMutation  MutationKind = 'P'
	DeleteMutation MutationKind = 'D'
	VerifyMutation MutationKind = 'V'
)

func (k MutationKind) String() string {
	switch k {
	case SetMutation:
		return "Set"
	case PatchMutation:
		return "Patch"
	case DeleteMutation:
		return "Delete"
	case VerifyMutation:
		return "Verify"
	default:
		return "None"
	}
}

/*
	Mutation is one net local change to one document: a full
	replacement (set), a masked merge (patch), a removal (delete)
	or an existence check (verify).

	The zero value is the invalid mutation: it names no document
	and compares equal only to other invalid mutations. A batch
	whose writes cancel out produces exactly that.
*/
type Mutation struct {
	kind   MutationKind
	key    DocumentKey
	fields Fields
	mask   []string
}

func NewSet(key DocumentKey, fields Fields) Mutation {
	return Mutation{kind: SetMutation, key: key, fields: fields}
}

// NewPatch writes the given fields and leaves the rest of the
// document alone; the mask is derived from the payload.
func NewPatch(key DocumentKey, fields Fields) Mutation {
	return Mutation{kind: PatchMutation, key: key, fields: fields, mask: fields.Names()}
}

// NewPatchWithMask is NewPatch plus explicit mask entries;
// masked names absent from the payload are field deletes.
func NewPatchWithMask(key DocumentKey, fields Fields, mask []string) Mutation {
	sorted := slices.Clone(mask)
	slices.Sort(sorted)
	return Mutation{kind: PatchMutation, key: key, fields: fields, mask: sorted}
}

func NewDelete(key DocumentKey) Mutation {
	return Mutation{kind: DeleteMutation, key: key}
}

func NewVerify(key DocumentKey) Mutation {
	return Mutation{kind: VerifyMutation, key: key}
}

func (m Mutation) Kind() MutationKind {
	return m.kind
}

func (m Mutation) IsValid() bool {
	return m.kind != NoMutation
}

// Key names the mutated document. Only valid mutations have one.
func (m Mutation) Key() DocumentKey {
	if !m.IsValid() {
		panic("docstore: Key() on an invalid mutation")
	}
	return m.key
}

func (m Mutation) Fields() Fields {
	return m.fields
}

func (m Mutation) FieldMask() []string {
	return m.mask
}

func (m Mutation) Equal(other Mutation) bool {
	return m.kind == other.kind && m.key == other.key &&
		m.fields.Equal(other.fields) && slices.Equal(m.mask, other.mask)
}

func (m Mutation) Clone() Mutation {
	m.fields = m.fields.Clone()
	m.mask = slices.Clone(m.mask)
	return m
}

// Tlv is the canonical form: <kind>( K key [F fields] [X mask] ).
// The invalid mutation encodes to nothing.
func (m Mutation) Tlv() []byte {
	if !m.IsValid() {
		return nil
	}
	recs := [][]byte{toytlv.Record('K', m.key.Bytes())}
	if m.kind == SetMutation || m.kind == PatchMutation {
		recs = append(recs, toytlv.Record('F', m.fields.Tlv()))
	}
	if m.kind == PatchMutation {
		var masktlv []byte
		for _, path := range m.mask {
			masktlv = append(masktlv, toytlv.Record('P', []byte(path))...)
		}
		recs = append(recs, toytlv.Record('X', masktlv))
	}
	return toytlv.Record(byte(m.kind), recs...)
}

func MutationFromTlv(tlv []byte) (Mutation, error) {
	if len(tlv) == 0 {
		return Mutation{}, nil
	}
	lit, body, _ := toytlv.TakeAny(tlv)
	kind := MutationKind(lit)
	switch kind {
	case SetMutation, PatchMutation, DeleteMutation, VerifyMutation:
	default:
		return Mutation{}, store_errors.ErrBadMutationRecord
	}
	keybytes, rest := toytlv.Take('K', body)
	if keybytes == nil {
		return Mutation{}, store_errors.ErrBadMutationRecord
	}
	key, err := KeyFromBytes(keybytes)
	if err != nil {
		return Mutation{}, err
	}
	m := Mutation{kind: kind, key: key}
	if kind == SetMutation || kind == PatchMutation {
		ftlv, r := toytlv.Take('F', rest)
		if ftlv == nil {
			return Mutation{}, store_errors.ErrBadMutationRecord
		}
		m.fields, err = FieldsFromTlv(ftlv)
		if err != nil {
			return Mutation{}, err
		}
		rest = r
	}
	if kind == PatchMutation {
		masktlv, _ := toytlv.Take('X', rest)
		m.mask = []string{}
		for len(masktlv) > 0 {
			var path []byte
			path, masktlv = toytlv.Take('P', masktlv)
			if path == nil {
				return Mutation{}, store_errors.ErrBadMutationRecord
			}
			m.mask = append(m.mask, string(path))
		}
	}
	return m, nil
}

func (m Mutation) Hash() uint64 {
	return xxhash.Sum64(m.Tlv())
}

// ApplyToLocalView rewrites the base document into the local
// view this mutation produces. Patch honors its exists
// precondition: patching a missing document changes nothing.
func (m Mutation) ApplyToLocalView(doc *Document) {
	switch m.kind {
	case SetMutation:
		doc.Fields = m.fields.Clone()
		doc.Exists = true
	case PatchMutation:
		if !doc.Exists {
			return
		}
		if doc.Fields == nil {
			doc.Fields = make(Fields)
		}
		doc.Fields.ApplyPatch(m.fields, m.mask)
	case DeleteMutation:
		doc.Fields = nil
		doc.Exists = false
	case NoMutation, VerifyMutation:
		// no effect on the local view
	}
}

func (m Mutation) String() string {
	if !m.IsValid() {
		return "Mutation()"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s(%s", m.kind, m.key)
	if m.kind == SetMutation || m.kind == PatchMutation {
		fmt.Fprintf(&b, ", fields=%s", m.fields)
	}
	if m.kind == PatchMutation {
		fmt.Fprintf(&b, ", mask=%v", m.mask)
	}
	b.WriteByte(')')
	return b.String()
}
