package canon

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// The version suffix enables future algorithm migration.
const (
	DomainRecord = "molnorm/record/v1"
	DomainTrace  = "molnorm/trace/v1"
)

// HashRecord computes the content-addressed identity of a value:
// SHA256(domain + 0x00 + canonicalJSON), hex encoded. The null byte
// keeps the domain/payload boundary unambiguous; distinct domains keep
// journal records and harness traces from ever colliding.
// Returns error if v cannot be canonically marshaled.
func HashRecord(domain string, v any) (string, error) {
	data, err := MarshalCanonical(v)
	if err != nil {
		return "", fmt.Errorf("HashRecord: %w", err)
	}
	return hashWithDomain(domain, data), nil
}

// MustHashRecord is like HashRecord but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustHashRecord(domain string, v any) string {
	id, err := HashRecord(domain, v)
	if err != nil {
		panic(err)
	}
	return id
}

func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}
