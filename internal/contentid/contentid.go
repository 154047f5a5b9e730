package contentid

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/zeebo/blake3"
	"golang.org/x/text/unicode/norm"
)

// IDLength is the length of a hex-encoded content identifier.
const IDLength = 64

// ErrEncoding indicates the raw bytes cannot be decoded as UTF-8 text
// and therefore cannot be canonicalized.
var ErrEncoding = errors.New("content is not valid UTF-8")

// Domain separation keys for keyed BLAKE3. The byte values are the
// ASCII encoding of the domain name, zero-padded to 32 bytes. Changing
// them invalidates every identifier already issued in that domain.
var (
	documentKey = [32]byte{
		'd', 'o', 'c', 's', 'h', 'e', 'd', '.', 'd', 'o', 'c', 'u', 'm', 'e', 'n', 't',
		0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	}
	manifestKey = [32]byte{
		'd', 'o', 'c', 's', 'h', 'e', 'd', '.', 'm', 'a', 'n', 'i', 'f', 'e', 's', 't',
		0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	}
)

// Canonicalize maps raw document bytes onto their canonical text form:
// valid UTF-8, Unicode NFC, trailing whitespace stripped from every
// line, and exactly one trailing newline for non-empty text. Two
// representations of the same text always canonicalize identically.
func Canonicalize(raw []byte) (string, error) {
	if !utf8.Valid(raw) {
		return "", ErrEncoding
	}
	text := norm.NFC.String(string(raw))

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t\r")
	}
	text = strings.Join(lines, "\n")
	text = strings.TrimRight(text, "\n")
	if text == "" {
		return "", nil
	}
	return text + "\n", nil
}

// ID computes the content identifier for raw document bytes: the
// document-domain keyed BLAKE3 digest of the canonical form, hex
// encoded. It is a pure function of content.
func ID(raw []byte) (string, error) {
	canonical, err := Canonicalize(raw)
	if err != nil {
		return "", err
	}
	return DigestCanonical(canonical), nil
}

// DigestCanonical digests text that has already been canonicalized.
// Callers that hold the canonical form avoid re-normalizing.
func DigestCanonical(canonical string) string {
	return keyedHex(documentKey, []byte(canonical))
}

// Valid reports whether s has the shape of a content identifier
// (64 lowercase hex characters). Used to reject malformed ids before
// they reach the filesystem layer.
func Valid(s string) bool {
	if len(s) != IDLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

// ManifestDigest accumulates bundle member records and produces the
// manifest digest. Records must be added in canonical (sorted id)
// order; the digest is then a pure function of bundle membership.
type ManifestDigest struct {
	hasher *blake3.Hasher
}

// NewManifestDigest returns a manifest digest accumulator keyed with
// the manifest domain.
func NewManifestDigest() *ManifestDigest {
	hasher, err := blake3.NewKeyed(manifestKey[:])
	if err != nil {
		panic("contentid: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	return &ManifestDigest{hasher: hasher}
}

// Add appends one member record to the digest.
func (m *ManifestDigest) Add(id string, size int64, digest string) {
	fmt.Fprintf(m.hasher, "%s\t%d\t%s\n", id, size, digest)
}

// Sum returns the hex-encoded manifest digest.
func (m *ManifestDigest) Sum() string {
	return fmt.Sprintf("%x", m.hasher.Sum(nil))
}

func keyedHex(key [32]byte, data []byte) string {
	hasher, err := blake3.NewKeyed(key[:])
	if err != nil {
		panic("contentid: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	hasher.Write(data)
	return fmt.Sprintf("%x", hasher.Sum(nil))
}
