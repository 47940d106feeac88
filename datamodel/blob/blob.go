// Package blob implements the file content object and its derived metadata
// summary.
package blob

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"

	"veilfs/datamodel/codec"
	"veilfs/oid"
)

var (
	ErrCorruptBlob     = errors.New("corrupt blob encoding")
	ErrCorruptMetadata = errors.New("corrupt blob metadata encoding")
)

// Blob is immutable byte content plus its declared size.
type Blob struct {
	data []byte
}

func New(data []byte) *Blob {
	return &Blob{data: data}
}

func (b *Blob) Bytes() []byte {
	return b.data
}

func (b *Blob) Size() uint64 {
	return uint64(len(b.data))
}

type wireBlob struct {
	Size uint64 `cbor:"1,keyasint"`
	Data []byte `cbor:"2,keyasint"`
}

// SerializeNative encodes the blob in the native format.
func (b *Blob) SerializeNative() ([]byte, error) {
	return codec.Marshal(&wireBlob{Size: b.Size(), Data: b.data})
}

// ParseNative decodes native-format bytes.
func ParseNative(data []byte) (*Blob, error) {
	var wb wireBlob
	if err := codec.Unmarshal(data, &wb); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptBlob, err)
	}
	if wb.Size != uint64(len(wb.Data)) {
		return nil, fmt.Errorf("%w: declared size %d, payload %d", ErrCorruptBlob, wb.Size, len(wb.Data))
	}
	return New(wb.Data), nil
}

// LegacyFrames returns the legacy on-disk framing as a sequence of byte
// ranges: a "blob <size>\0" header frame followed by the raw content frame.
// The content is referenced, not copied.
func (b *Blob) LegacyFrames() [][]byte {
	header := append([]byte("blob "+strconv.FormatUint(b.Size(), 10)), 0)
	return [][]byte{header, b.data}
}

// ParseLegacy decodes legacy-framed bytes.
func ParseLegacy(data []byte) (*Blob, error) {
	nul := bytes.IndexByte(data, 0)
	if nul < 0 {
		return nil, fmt.Errorf("%w: no header terminator", ErrCorruptBlob)
	}
	header := string(data[:nul])
	if len(header) <= 5 || header[:5] != "blob " {
		return nil, fmt.Errorf("%w: bad header %q", ErrCorruptBlob, header)
	}
	size, err := strconv.ParseUint(header[5:], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: bad size: %v", ErrCorruptBlob, err)
	}
	body := data[nul+1:]
	if uint64(len(body)) != size {
		return nil, fmt.Errorf("%w: size %d does not match payload %d", ErrCorruptBlob, size, len(body))
	}
	return New(body), nil
}

// Metadata is the derived summary of a blob, stored separately from the blob
// body so metadata-only queries stay cheap.
type Metadata struct {
	ContentHash oid.Hash
	Size        uint64
}

// MetadataFor computes the summary of a blob.
func MetadataFor(b *Blob) Metadata {
	return Metadata{ContentHash: oid.Sum(b.Bytes()), Size: b.Size()}
}

type wireMetadata struct {
	Hash []byte `cbor:"1,keyasint"`
	Size uint64 `cbor:"2,keyasint"`
}

// SerializeNative encodes the metadata in the native format.
func (m Metadata) SerializeNative() ([]byte, error) {
	return codec.Marshal(&wireMetadata{Hash: m.ContentHash[:], Size: m.Size})
}

// ParseNativeMetadata decodes native-format metadata bytes.
func ParseNativeMetadata(data []byte) (*Metadata, error) {
	var wm wireMetadata
	if err := codec.Unmarshal(data, &wm); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptMetadata, err)
	}
	h, err := oid.HashFromBytes(wm.Hash)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptMetadata, err)
	}
	return &Metadata{ContentHash: h, Size: wm.Size}, nil
}

// legacyMetadataLen is the historical fixed encoding: 32 hash bytes followed
// by the size as a big-endian uint64.
const legacyMetadataLen = 32 + 8

// SerializeLegacy encodes the metadata in the historical fixed format.
func (m Metadata) SerializeLegacy() []byte {
	out := make([]byte, legacyMetadataLen)
	copy(out, m.ContentHash[:])
	binary.BigEndian.PutUint64(out[32:], m.Size)
	return out
}

// ParseLegacyMetadata decodes the historical fixed format.
func ParseLegacyMetadata(data []byte) (*Metadata, error) {
	if len(data) != legacyMetadataLen {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrCorruptMetadata, len(data), legacyMetadataLen)
	}
	h, _ := oid.HashFromBytes(data[:32])
	return &Metadata{ContentHash: h, Size: binary.BigEndian.Uint64(data[32:])}, nil
}
