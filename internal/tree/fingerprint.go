package tree

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"

	"golang.org/x/text/unicode/norm"
)

// Domain prefix for content-addressed tree identity. The version suffix
// enables future algorithm migration without ambiguity.
const domainFileTree = "gameforge/filetree/v1"

// Fingerprint computes a content-addressed hash of the whole tree.
// Two trees with identical paths and contents produce identical
// fingerprints regardless of insertion order, which is what the
// determinism guarantee (same prompt+constraints+seed, enrichment
// disabled) is asserted against.
//
// Format: SHA256(domain || 0x00 || for each path in sorted order:
// NFC(path) || 0x00 || len(content) || content). Paths are NFC
// normalized so the hash is stable across differently-composed
// Unicode filenames. The null separators prevent boundary ambiguity.
func (t FileTree) Fingerprint() string {
	h := sha256.New()
	h.Write([]byte(domainFileTree))
	h.Write([]byte{0x00})

	var lenBuf [8]byte
	for _, p := range t.Paths() {
		h.Write([]byte(norm.NFC.String(p)))
		h.Write([]byte{0x00})
		content := t[p]
		binary.BigEndian.PutUint64(lenBuf[:], uint64(len(content)))
		h.Write(lenBuf[:])
		h.Write(content)
	}
	return hex.EncodeToString(h.Sum(nil))
}
