package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainDocument = "trigconf/document/v1"
	DomainParams   = "trigconf/params/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// DocumentHash computes the content-addressed identity of a command document.
// Identical inputs produce identical documents and therefore identical hashes.
func DocumentHash(doc Document) (string, error) {
	canonical, err := doc.Canonical()
	if err != nil {
		return "", fmt.Errorf("DocumentHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainDocument, canonical), nil
}

// CanonicalHash hashes already-canonical document bytes, e.g. read back from
// disk or from the ledger.
func CanonicalHash(canonical []byte) string {
	return hashWithDomain(DomainDocument, canonical)
}

// ParamsHash computes the identity of a generation request.
func ParamsHash(params IRObject) (string, error) {
	canonical, err := MarshalCanonical(params)
	if err != nil {
		return "", fmt.Errorf("ParamsHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainParams, canonical), nil
}

// MustDocumentHash is like DocumentHash but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustDocumentHash(doc Document) string {
	h, err := DocumentHash(doc)
	if err != nil {
		panic(err)
	}
	return h
}
