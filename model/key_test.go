package model

import (
	"testing"

	"github.com/drpcorg/docstore/store_errors"
	"github.com/stretchr/testify/assert"
)

func TestKeyParse(t *testing.T) {
	key, err := KeyFromString("rooms/eros")
	assert.NoError(t, err)
	assert.Equal(t, "rooms/eros", key.String())
	assert.Equal(t, []string{"rooms", "eros"}, key.Segments())
	assert.Equal(t, "rooms", key.CollectionPath())
	assert.Equal(t, "eros", key.DocumentID())

	deep, err := KeyFromString("rooms/eros/messages/1")
	assert.NoError(t, err)
	assert.Equal(t, "rooms/eros/messages", deep.CollectionPath())
	assert.Equal(t, "1", deep.DocumentID())
}

func TestKeyParseRejectsBadPaths(t *testing.T) {
	bad := []string{"", "rooms", "rooms/eros/messages", "rooms//eros", "/rooms/eros", "rooms/eros/"}
	for _, path := range bad {
		_, err := KeyFromString(path)
		assert.ErrorIs(t, err, store_errors.ErrBadDocumentKey, "path %q", path)
	}
}

func TestKeyOrderAndEquality(t *testing.T) {
	abc := MustKey("col/abc")
	xyz := MustKey("col/xyz")

	assert.Equal(t, MustKey("col/abc"), abc)
	assert.NotEqual(t, abc, xyz)
	assert.True(t, abc.Less(xyz))
	assert.False(t, xyz.Less(abc))
	assert.Negative(t, abc.Compare(xyz))
	assert.Zero(t, abc.Compare(MustKey("col/abc")))
}

func TestKeyZeroValueIsInvalid(t *testing.T) {
	var key DocumentKey
	assert.False(t, key.IsValid())
	assert.True(t, MustKey("a/b").IsValid())
}

func TestKeyBytesRoundtrip(t *testing.T) {
	key := MustKey("rooms/eros")
	back, err := KeyFromBytes(key.Bytes())
	assert.NoError(t, err)
	assert.Equal(t, key, back)
}
