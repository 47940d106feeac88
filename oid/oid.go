// Package oid implements the object identifier codec.
//
// An identifier is an opaque byte sequence. Blobs and blob metadata are keyed
// by their raw content hash; trees and blobs reached through a filtered view
// are keyed by an encoded identifier that embeds the filter context. The
// encoding is self-describing: the shape is read from a leading tag, never
// inferred from the byte length, so foreign or corrupt identifiers are
// rejected instead of misparsed.
package oid

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

const (
	// Byte structure of an encoded identifier:
	//   tree shape: <version:1><tag 'T':1><pathlen:uvarint><path><profilelen:uvarint><profile><hash:32>
	//   blob shape: <version:1><tag 'B':1><hash:32>
	VersionV01 = 0x01

	tagTree = 'T'
	tagBlob = 'B'
)

var (
	ErrMalformedID   = errors.New("malformed object identifier")
	ErrHashNot32     = errors.New("hash must be 32 bytes")
	ErrInvalidPath   = errors.New("path must be a cleaned relative path")
	ErrInvalidString = errors.New("invalid hash string")
)

// Hash is a raw content hash. It identifies one object within one keyspace
// family, independent of any filter.
type Hash [sha256.Size]byte

// Sum hashes raw content.
func Sum(data []byte) Hash {
	return sha256.Sum256(data)
}

func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// ID returns the hash as a plain (unfiltered) object identifier.
func (h Hash) ID() ID {
	return ID(bytes.Clone(h[:]))
}

func HashFromBytes(b []byte) (Hash, error) {
	if len(b) != sha256.Size {
		return Hash{}, fmt.Errorf("%w: got %d", ErrHashNot32, len(b))
	}
	var h Hash
	copy(h[:], b)
	return h, nil
}

func HashFromString(s string) (Hash, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return Hash{}, fmt.Errorf("%w: %v", ErrInvalidString, err)
	}
	return HashFromBytes(b)
}

// ID is an opaque object identifier: either raw hash bytes (plain objects) or
// a tagged encoding produced by EncodeTree/EncodeBlob.
type ID []byte

func (id ID) String() string {
	return hex.EncodeToString(id)
}

func (id ID) Equal(other ID) bool {
	return bytes.Equal(id, other)
}

// Identity is the decoded form of an encoded identifier. The two shapes are
// *TreeIdentity and *BlobIdentity; consumers switch on the concrete type.
type Identity interface {
	isIdentity()
}

// TreeIdentity identifies a subtree's content under a filter profile, reached
// via a relative path from the view root.
type TreeIdentity struct {
	Path    string
	Profile string
	Hash    Hash
}

// BlobIdentity identifies blob content. Blobs carry no path or filter context:
// filtering removes tree entries, it never rewrites blob bytes.
type BlobIdentity struct {
	Hash Hash
}

func (*TreeIdentity) isIdentity() {}
func (*BlobIdentity) isIdentity() {}

// validRelPath reports whether p is a cleaned relative path. The empty string
// names the view root.
func validRelPath(p string) bool {
	if p == "" {
		return true
	}
	if strings.HasPrefix(p, "/") || strings.HasSuffix(p, "/") {
		return false
	}
	for _, seg := range strings.Split(p, "/") {
		if seg == "" || seg == "." || seg == ".." {
			return false
		}
	}
	return true
}

// EncodeTree encodes a tree-shape identifier.
func EncodeTree(path, profile string, h Hash) (ID, error) {
	if !validRelPath(path) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}

	buf := make([]byte, 0, 2+2*binary.MaxVarintLen32+len(path)+len(profile)+len(h))
	buf = append(buf, VersionV01, tagTree)
	buf = binary.AppendUvarint(buf, uint64(len(path)))
	buf = append(buf, path...)
	buf = binary.AppendUvarint(buf, uint64(len(profile)))
	buf = append(buf, profile...)
	buf = append(buf, h[:]...)
	return buf, nil
}

// EncodeBlob encodes a blob-shape identifier.
func EncodeBlob(h Hash) ID {
	buf := make([]byte, 0, 2+len(h))
	buf = append(buf, VersionV01, tagBlob)
	buf = append(buf, h[:]...)
	return buf
}

// Decode parses an encoded identifier into its identity. Identifiers produced
// by a different encoding scheme fail with ErrMalformedID.
func Decode(id ID) (Identity, error) {
	if len(id) < 2 {
		return nil, fmt.Errorf("%w: too short", ErrMalformedID)
	}
	if id[0] != VersionV01 {
		return nil, fmt.Errorf("%w: unknown version 0x%02x", ErrMalformedID, id[0])
	}

	switch id[1] {
	case tagTree:
		return decodeTree(id[2:])
	case tagBlob:
		h, err := HashFromBytes(id[2:])
		if err != nil {
			return nil, fmt.Errorf("%w: blob shape: %v", ErrMalformedID, err)
		}
		return &BlobIdentity{Hash: h}, nil
	default:
		return nil, fmt.Errorf("%w: unknown shape tag 0x%02x", ErrMalformedID, id[1])
	}
}

func decodeTree(rest []byte) (*TreeIdentity, error) {
	path, rest, err := readString(rest)
	if err != nil {
		return nil, fmt.Errorf("%w: tree path: %v", ErrMalformedID, err)
	}
	profile, rest, err := readString(rest)
	if err != nil {
		return nil, fmt.Errorf("%w: tree profile: %v", ErrMalformedID, err)
	}
	h, err := HashFromBytes(rest)
	if err != nil {
		return nil, fmt.Errorf("%w: tree hash: %v", ErrMalformedID, err)
	}
	if !validRelPath(path) {
		return nil, fmt.Errorf("%w: %q is not a relative path", ErrMalformedID, path)
	}
	return &TreeIdentity{Path: path, Profile: profile, Hash: h}, nil
}

func readString(b []byte) (string, []byte, error) {
	n, sz := binary.Uvarint(b)
	if sz <= 0 {
		return "", nil, errors.New("bad length prefix")
	}
	b = b[sz:]
	if uint64(len(b)) < n {
		return "", nil, errors.New("truncated")
	}
	return string(b[:n]), b[n:], nil
}

// DecodeTree decodes id and requires a tree shape.
func DecodeTree(id ID) (*TreeIdentity, error) {
	ident, err := Decode(id)
	if err != nil {
		return nil, err
	}
	t, ok := ident.(*TreeIdentity)
	if !ok {
		return nil, fmt.Errorf("%w: not a tree-shape identifier", ErrMalformedID)
	}
	return t, nil
}

// DecodeBlob decodes id and requires a blob shape.
func DecodeBlob(id ID) (*BlobIdentity, error) {
	ident, err := Decode(id)
	if err != nil {
		return nil, err
	}
	b, ok := ident.(*BlobIdentity)
	if !ok {
		return nil, fmt.Errorf("%w: not a blob-shape identifier", ErrMalformedID)
	}
	return b, nil
}
