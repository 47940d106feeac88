// Package tree implements the directory tree object: an ordered mapping from
// entry name to (identifier, type), with a content-hash identity.
package tree

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"

	"veilfs/datamodel/codec"
	"veilfs/oid"
)

var (
	ErrDuplicateName = errors.New("duplicate entry name")
	ErrCorruptTree   = errors.New("corrupt tree encoding")
)

// EntryType describes what an entry points at. Platform-dependent coercions
// (an executable bit degrading to a regular file) are a property of the entry
// when it is materialized, not of the store.
type EntryType uint8

const (
	EntryRegular EntryType = iota
	EntryExecutable
	EntrySymlink
	EntryTree
)

func (t EntryType) String() string {
	switch t {
	case EntryRegular:
		return "file"
	case EntryExecutable:
		return "executable"
	case EntrySymlink:
		return "symlink"
	case EntryTree:
		return "tree"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(t))
	}
}

// legacy git-style file modes
const (
	modeRegular    = 0o100644
	modeExecutable = 0o100755
	modeSymlink    = 0o120000
	modeTree       = 0o040000
)

// Entry is one named child of a tree.
type Entry struct {
	Name string
	ID   oid.ID
	Type EntryType
}

// Tree is an immutable ordered list of uniquely named entries. Its identity is
// either its own content hash (plain trees) or an encoded view identifier
// assigned by the caller (filtered trees).
type Tree struct {
	id      oid.ID
	entries []Entry
}

type wireEntry struct {
	_    struct{} `cbor:",toarray"`
	Name string
	ID   []byte
	Type uint8
}

type wireTree struct {
	Entries []wireEntry `cbor:"1,keyasint"`
}

func checkEntries(entries []Entry) error {
	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		if e.Name == "" {
			return errors.New("empty entry name")
		}
		if seen[e.Name] {
			return fmt.Errorf("%w: %q", ErrDuplicateName, e.Name)
		}
		seen[e.Name] = true
	}
	return nil
}

// New builds a tree whose identity is the content hash of its native
// serialization.
func New(entries []Entry) (*Tree, error) {
	if err := checkEntries(entries); err != nil {
		return nil, err
	}
	t := &Tree{entries: entries}
	data, err := t.Serialize()
	if err != nil {
		return nil, err
	}
	t.id = oid.Sum(data).ID()
	return t, nil
}

// NewWithID builds a tree carrying a caller-assigned identity. Used for
// filtered views, whose identity is the filtered identifier rather than the
// underlying content hash.
func NewWithID(id oid.ID, entries []Entry) (*Tree, error) {
	if err := checkEntries(entries); err != nil {
		return nil, err
	}
	return &Tree{id: id, entries: entries}, nil
}

func (t *Tree) ID() oid.ID {
	return t.id
}

func (t *Tree) Len() int {
	return len(t.entries)
}

// Entries returns the entries in their original order.
func (t *Tree) Entries() []Entry {
	return t.entries
}

// Find looks up an entry by name.
func (t *Tree) Find(name string) (Entry, bool) {
	for _, e := range t.entries {
		if e.Name == name {
			return e, true
		}
	}
	return Entry{}, false
}

// Serialize encodes the tree in the native format.
func (t *Tree) Serialize() ([]byte, error) {
	wt := wireTree{Entries: make([]wireEntry, len(t.entries))}
	for i, e := range t.entries {
		wt.Entries[i] = wireEntry{Name: e.Name, ID: e.ID, Type: uint8(e.Type)}
	}
	return codec.Marshal(&wt)
}

// Deserialize decodes native-format bytes into a tree with identity id.
func Deserialize(id oid.ID, data []byte) (*Tree, error) {
	var wt wireTree
	if err := codec.Unmarshal(data, &wt); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptTree, err)
	}
	entries := make([]Entry, len(wt.Entries))
	for i, we := range wt.Entries {
		if we.Type > uint8(EntryTree) {
			return nil, fmt.Errorf("%w: bad entry type %d", ErrCorruptTree, we.Type)
		}
		entries[i] = Entry{Name: we.Name, ID: oid.ID(we.ID), Type: EntryType(we.Type)}
	}
	t, err := NewWithID(id, entries)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptTree, err)
	}
	return t, nil
}

func typeToMode(t EntryType) uint32 {
	switch t {
	case EntryExecutable:
		return modeExecutable
	case EntrySymlink:
		return modeSymlink
	case EntryTree:
		return modeTree
	default:
		return modeRegular
	}
}

func modeToType(mode uint64) (EntryType, error) {
	switch mode {
	case modeRegular:
		return EntryRegular, nil
	case modeExecutable:
		return EntryExecutable, nil
	case modeSymlink:
		return EntrySymlink, nil
	case modeTree:
		return EntryTree, nil
	default:
		return 0, fmt.Errorf("%w: bad mode %o", ErrCorruptTree, mode)
	}
}

// SerializeLegacy encodes the tree in the historical framing:
// "tree <len>\0" followed by "<octal mode> <name>\0<32-byte hash>" per entry.
// Entry identifiers must be raw hash bytes in this format.
func (t *Tree) SerializeLegacy() ([]byte, error) {
	var body bytes.Buffer
	for _, e := range t.entries {
		h, err := oid.HashFromBytes(e.ID)
		if err != nil {
			return nil, fmt.Errorf("entry %q: %w", e.Name, err)
		}
		fmt.Fprintf(&body, "%o %s", typeToMode(e.Type), e.Name)
		body.WriteByte(0)
		body.Write(h[:])
	}

	var out bytes.Buffer
	fmt.Fprintf(&out, "tree %d", body.Len())
	out.WriteByte(0)
	out.Write(body.Bytes())
	return out.Bytes(), nil
}

// DeserializeLegacy decodes legacy-format bytes into a tree with identity id.
func DeserializeLegacy(id oid.ID, data []byte) (*Tree, error) {
	body, err := splitLegacyHeader("tree", data)
	if err != nil {
		return nil, err
	}

	var entries []Entry
	for len(body) > 0 {
		sp := bytes.IndexByte(body, ' ')
		if sp < 1 {
			return nil, fmt.Errorf("%w: missing mode", ErrCorruptTree)
		}
		mode, err := strconv.ParseUint(string(body[:sp]), 8, 32)
		if err != nil {
			return nil, fmt.Errorf("%w: bad mode: %v", ErrCorruptTree, err)
		}
		body = body[sp+1:]

		nul := bytes.IndexByte(body, 0)
		if nul < 1 {
			return nil, fmt.Errorf("%w: missing name terminator", ErrCorruptTree)
		}
		name := string(body[:nul])
		body = body[nul+1:]

		h, err := oid.HashFromBytes(body[:min(len(body), 32)])
		if err != nil {
			return nil, fmt.Errorf("%w: truncated hash for %q", ErrCorruptTree, name)
		}
		body = body[32:]

		et, err := modeToType(mode)
		if err != nil {
			return nil, err
		}
		entries = append(entries, Entry{Name: name, ID: h.ID(), Type: et})
	}

	t, err := NewWithID(id, entries)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptTree, err)
	}
	return t, nil
}

// splitLegacyHeader validates a "<kind> <decimal length>\0" header and returns
// the payload after it.
func splitLegacyHeader(kind string, data []byte) ([]byte, error) {
	nul := bytes.IndexByte(data, 0)
	if nul < 0 {
		return nil, fmt.Errorf("%w: no header terminator", ErrCorruptTree)
	}
	header := string(data[:nul])
	prefix := kind + " "
	if len(header) <= len(prefix) || header[:len(prefix)] != prefix {
		return nil, fmt.Errorf("%w: bad header %q", ErrCorruptTree, header)
	}
	size, err := strconv.ParseUint(header[len(prefix):], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: bad size: %v", ErrCorruptTree, err)
	}
	body := data[nul+1:]
	if uint64(len(body)) != size {
		return nil, fmt.Errorf("%w: size %d does not match payload %d", ErrCorruptTree, size, len(body))
	}
	return body, nil
}
