package datastore

// StoreResult is the tri-state outcome of a raw read: present with bytes,
// absent, or failed with a genuine I/O error. "Absent" is an ordinary outcome,
// not an error, and is distinct from "present but unparseable", which the
// typed fetch paths decide later.
type StoreResult struct {
	data    []byte
	present bool
	err     error
}

// Found wraps successfully read bytes.
func Found(data []byte) StoreResult {
	return StoreResult{data: data, present: true}
}

// Missing is the absent result.
func Missing() StoreResult {
	return StoreResult{}
}

// Failed wraps a read error.
func Failed(err error) StoreResult {
	return StoreResult{err: err}
}

// Valid reports whether bytes are present.
func (r StoreResult) Valid() bool {
	return r.present
}

// Bytes returns the payload. Only meaningful when Valid.
func (r StoreResult) Bytes() []byte {
	return r.data
}

// Err returns the read error, if any.
func (r StoreResult) Err() error {
	return r.err
}
