package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/terrycain/tcga-cache/pkg/s"
)

// Canonical returns the byte string that is hashed for params: a JSON object of the
// normalized filter fields with keys in sorted order and absent fields as null.
func Canonical(params s.RequestParameters) []byte {
	// encoding/json writes map keys in sorted order
	data, err := json.Marshal(params.Normalize().Fields())
	if err != nil {
		// map[string]*string always marshals
		panic(err)
	}
	return data
}

// Of returns the fingerprint of params.
func Of(params s.RequestParameters) s.Fingerprint {
	sum := sha256.Sum256(Canonical(params))
	return s.Fingerprint(hex.EncodeToString(sum[:]))
}

// Valid reports whether v has the shape of a fingerprint.
func Valid(v string) bool {
	if len(v) != sha256.Size*2 {
		return false
	}
	_, err := hex.DecodeString(v)
	return err == nil
}
