package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/cockroachdb/errors"
)

// DomainEntry is the domain-separation prefix for entry digests.
// The version suffix allows a future algorithm migration.
const DomainEntry = "axiom/audit/v1"

// GenesisHash is the prev_hash of the first entry: all zeros, digest width.
var GenesisHash = strings.Repeat("0", sha256.Size*2)

// hashWithDomain computes SHA-256(domain + 0x00 + data), hex encoded.
// The null byte prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// payload is the hashed content of an entry: everything except the hash itself.
func payload(e Entry) Object {
	args := make(List, len(e.Args))
	copy(args, e.Args)
	return Object{
		"index":     Int(e.Index),
		"timestamp": Int(e.Timestamp.UnixNano()),
		"action":    String(e.Action),
		"args":      args,
		"prev_hash": String(e.PrevHash),
	}
}

// EntryHash computes the content digest of an entry, ignoring e.Hash.
func EntryHash(e Entry) (string, error) {
	canonical, err := MarshalCanonical(payload(e))
	if err != nil {
		return "", errors.Wrapf(err, "entry %d", e.Index)
	}
	return hashWithDomain(DomainEntry, canonical), nil
}
