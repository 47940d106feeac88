package blob

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"veilfs/oid"
)

func TestLegacyFraming(t *testing.T) {
	b := New([]byte("foobar"))

	frames := b.LegacyFrames()
	require.Len(t, frames, 2)
	assert.Equal(t, append([]byte("blob 6"), 0), frames[0])
	assert.Equal(t, []byte("foobar"), frames[1])

	got, err := ParseLegacy(bytes.Join(frames, nil))
	require.NoError(t, err)
	assert.Equal(t, []byte("foobar"), got.Bytes())
	assert.Equal(t, uint64(6), got.Size())
}

func TestParseLegacyRejectsBadFraming(t *testing.T) {
	cases := map[string][]byte{
		"empty":         {},
		"no terminator": []byte("blob 6foobar"),
		"wrong kind":    append([]byte("tree 6"), []byte{0, 'f', 'o', 'o', 'b', 'a', 'r'}...),
		"bad size":      append([]byte("blob six"), append([]byte{0}, []byte("foobar")...)...),
		"short payload": append([]byte("blob 10"), append([]byte{0}, []byte("foobar")...)...),
		"long payload":  append([]byte("blob 2"), append([]byte{0}, []byte("foobar")...)...),
	}
	for name, data := range cases {
		_, err := ParseLegacy(data)
		assert.ErrorIs(t, err, ErrCorruptBlob, name)
	}
}

func TestNativeRoundTrip(t *testing.T) {
	b := New([]byte("native payload"))

	data, err := b.SerializeNative()
	require.NoError(t, err)

	got, err := ParseNative(data)
	require.NoError(t, err)
	assert.Equal(t, b.Bytes(), got.Bytes())

	_, err = ParseNative([]byte("garbage"))
	assert.ErrorIs(t, err, ErrCorruptBlob)
}

func TestMetadataCodecs(t *testing.T) {
	b := New([]byte("hello metadata"))
	md := MetadataFor(b)
	assert.Equal(t, oid.Sum(b.Bytes()), md.ContentHash)
	assert.Equal(t, b.Size(), md.Size)

	native, err := md.SerializeNative()
	require.NoError(t, err)
	gotNative, err := ParseNativeMetadata(native)
	require.NoError(t, err)
	assert.Equal(t, md, *gotNative)

	legacy := md.SerializeLegacy()
	require.Len(t, legacy, 40)
	gotLegacy, err := ParseLegacyMetadata(legacy)
	require.NoError(t, err)
	assert.Equal(t, md, *gotLegacy)

	_, err = ParseLegacyMetadata(legacy[:20])
	assert.ErrorIs(t, err, ErrCorruptMetadata)
	_, err = ParseNativeMetadata([]byte{0xff, 0xfe})
	assert.ErrorIs(t, err, ErrCorruptMetadata)
}
