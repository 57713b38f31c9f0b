package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMutationZeroValueIsInvalid(t *testing.T) {
	var m Mutation

	assert.False(t, m.IsValid())
	assert.Equal(t, NoMutation, m.Kind())
	assert.True(t, m.Equal(Mutation{}))
	assert.Panics(t, func() { m.Key() })
}

func TestMutationConstructors(t *testing.T) {
	key := MustKey("col/doc")

	set := NewSet(key, Fields{"a": int64(1)})
	assert.True(t, set.IsValid())
	assert.Equal(t, SetMutation, set.Kind())
	assert.Equal(t, key, set.Key())

	patch := NewPatch(key, Fields{"b": "x", "a": int64(1)})
	assert.Equal(t, PatchMutation, patch.Kind())
	assert.Equal(t, []string{"a", "b"}, patch.FieldMask())

	del := NewDelete(key)
	assert.Equal(t, DeleteMutation, del.Kind())
	assert.Nil(t, del.Fields())

	verify := NewVerify(key)
	assert.Equal(t, VerifyMutation, verify.Kind())
}

func TestMutationEquality(t *testing.T) {
	key := MustKey("col/doc")
	patch := NewPatch(key, Fields{"a": int64(1)})

	assert.True(t, patch.Equal(NewPatch(key, Fields{"a": int64(1)})))
	assert.False(t, patch.Equal(NewPatch(key, Fields{"a": int64(2)})))
	assert.False(t, patch.Equal(NewPatch(MustKey("col/other"), Fields{"a": int64(1)})))
	assert.False(t, patch.Equal(NewSet(key, Fields{"a": int64(1)})))
	assert.False(t, patch.Equal(Mutation{}))
	assert.False(t, patch.Equal(NewPatchWithMask(key, Fields{"a": int64(1)}, []string{"a", "b"})))

	assert.Equal(t, patch.Hash(), NewPatch(key, Fields{"a": int64(1)}).Hash())
}

func TestMutationTlvRoundtrip(t *testing.T) {
	key := MustKey("col/doc")
	samples := []Mutation{
		{},
		NewSet(key, Fields{"a": int64(1), "b": "x"}),
		NewPatch(key, Fields{"a": int64(1)}),
		NewPatchWithMask(key, Fields{"a": int64(1)}, []string{"a", "gone"}),
		NewDelete(key),
		NewVerify(key),
	}
	for _, m := range samples {
		back, err := MutationFromTlv(m.Tlv())
		assert.NoError(t, err)
		assert.True(t, back.Equal(m), "%s", m)
	}

	_, err := MutationFromTlv([]byte("garbage"))
	assert.Error(t, err)
}

func TestMutationString(t *testing.T) {
	key := MustKey("abc/xyz")

	assert.Equal(t, "Mutation()", Mutation{}.String())
	assert.Contains(t, NewSet(key, Fields{"a": int64(1)}).String(), "abc/xyz")
	assert.Contains(t, NewPatch(key, Fields{"a": int64(1)}).String(), "abc/xyz")
	assert.Contains(t, NewDelete(key).String(), "Delete(abc/xyz)")
	assert.Contains(t, NewVerify(key).String(), "Verify(abc/xyz)")
}

func TestApplySetToLocalView(t *testing.T) {
	key := MustKey("col/doc")
	doc := MissingDocument(key)

	NewSet(key, Fields{"a": int64(1)}).ApplyToLocalView(&doc)

	assert.True(t, doc.Exists)
	assert.True(t, doc.Fields.Equal(Fields{"a": int64(1)}))
}

func TestApplyPatchToLocalView(t *testing.T) {
	key := MustKey("col/doc")
	doc := NewDocument(key, Fields{"a": int64(1), "b": "old"})

	NewPatch(key, Fields{"b": "new", "c": true}).ApplyToLocalView(&doc)
	assert.True(t, doc.Fields.Equal(Fields{"a": int64(1), "b": "new", "c": true}))

	// patching a missing document is a no-op
	missing := MissingDocument(key)
	NewPatch(key, Fields{"a": int64(1)}).ApplyToLocalView(&missing)
	assert.False(t, missing.Exists)
	assert.Nil(t, missing.Fields)

	// a masked name absent from the payload deletes the field
	doc2 := NewDocument(key, Fields{"a": int64(1), "b": "old"})
	NewPatchWithMask(key, Fields{}, []string{"b"}).ApplyToLocalView(&doc2)
	assert.True(t, doc2.Fields.Equal(Fields{"a": int64(1)}))
}

func TestApplyDeleteAndVerifyToLocalView(t *testing.T) {
	key := MustKey("col/doc")
	doc := NewDocument(key, Fields{"a": int64(1)})

	NewVerify(key).ApplyToLocalView(&doc)
	assert.True(t, doc.Exists)

	NewDelete(key).ApplyToLocalView(&doc)
	assert.False(t, doc.Exists)
	assert.Nil(t, doc.Fields)
}
