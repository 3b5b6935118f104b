package receipt

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// Domain prefixes for content hashing.
// Version suffix enables future algorithm migration.
const (
	DomainPayload = "tecp/payload/v1"
	DomainReceipt = "tecp/receipt/v1"
)

// HashHexLen is the length of every hash field in hex characters.
const HashHexLen = sha256.Size * 2

// GenesisHash is the previous_hash sentinel for the first receipt in a
// chain: 64 zero characters, matching the digest length.
var GenesisHash = strings.Repeat("0", HashHexLen)

// hashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data). The null byte separator prevents
// domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// PayloadHash computes the content hash of an operation input or output
// payload over its canonical string form.
func PayloadHash(v Value) (string, error) {
	s, err := CanonicalString(v)
	if err != nil {
		return "", fmt.Errorf("PayloadHash: %w", err)
	}
	return hashWithDomain(DomainPayload, []byte(s)), nil
}

// BodyHash computes the receipt hash over a receipt body rendered as
// canonical JSON. The body object is built by Receipt.Body.
func BodyHash(body Object) (string, error) {
	canonical, err := MarshalCanonical(body)
	if err != nil {
		return "", fmt.Errorf("BodyHash: %w", err)
	}
	return hashWithDomain(DomainReceipt, canonical), nil
}

// MustPayloadHash is like PayloadHash but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustPayloadHash(v Value) string {
	h, err := PayloadHash(v)
	if err != nil {
		panic(err)
	}
	return h
}
