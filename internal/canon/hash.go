package canon

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainState = "changeoracle/state/v1"
	DomainPath  = "changeoracle/path/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null byte separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// StateID returns the content-addressed identifier of a canonical state value.
func StateID(state map[string]any) (string, error) {
	data, err := Marshal(state)
	if err != nil {
		return "", fmt.Errorf("StateID: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainState, data), nil
}

// PathID returns the identifier of an event sequence ending in a state.
func PathID(events []string, stateID string) (string, error) {
	data, err := Marshal(map[string]any{
		"events": events,
		"state":  stateID,
	})
	if err != nil {
		return "", fmt.Errorf("PathID: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainPath, data), nil
}

// Short returns the first 12 hex characters of an identifier for display.
func Short(id string) string {
	if len(id) <= 12 {
		return id
	}
	return id[:12]
}
