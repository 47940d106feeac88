// Package codec holds the shared CBOR encode/decode modes for the native
// object formats. Encoding is canonical so that serializing the same object
// always produces the same bytes, which content hashing depends on.
package codec

import "github.com/fxamacker/cbor/v2"

var encOptions = cbor.EncOptions{
	Sort:          cbor.SortCanonical,
	ShortestFloat: cbor.ShortestFloatNone,
	Time:          cbor.TimeUnix,
	TimeTag:       cbor.EncTagNone,
	IndefLength:   cbor.IndefLengthForbidden,
}

var decOptions = cbor.DecOptions{
	// Caps guard against corrupt or hostile headers declaring huge containers.
	MaxArrayElements: 1 << 20,
	MaxMapPairs:      1 << 20,
	MaxNestedLevels:  64,
	IndefLength:      cbor.IndefLengthForbidden,
	DupMapKey:        cbor.DupMapKeyEnforcedAPF,
}

var em, _ = encOptions.EncMode()
var dm, _ = decOptions.DecMode()

// Marshal encodes v in the canonical native format.
func Marshal(v any) ([]byte, error) {
	return em.Marshal(v)
}

// Unmarshal decodes native-format bytes into v.
func Unmarshal(data []byte, v any) error {
	return dm.Unmarshal(data, v)
}
