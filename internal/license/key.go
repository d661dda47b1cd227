package license

import (
	"crypto/rand"
	"strings"
)

// keyAlphabet excludes 0/O and 1/I so keys survive being read over the phone.
const keyAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const (
	keyGroups    = 5
	keyGroupSize = 5
)

// GenerateKey returns a new activation key: 5 dash-joined groups of 5
// uppercase alphanumeric characters (e.g. ABCDE-23456-FGHJK-789LM-NPQRS),
// drawn from crypto/rand. The key is an opaque capability string; it carries
// no embedded structure or checksum.
func GenerateKey() (string, error) {
	raw := make([]byte, keyGroups*keyGroupSize)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	var b strings.Builder
	b.Grow(keyGroups*keyGroupSize + keyGroups - 1)
	for i, c := range raw {
		if i > 0 && i%keyGroupSize == 0 {
			b.WriteByte('-')
		}
		b.WriteByte(keyAlphabet[int(c)%len(keyAlphabet)])
	}
	return b.String(), nil
}
