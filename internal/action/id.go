package action

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// DomainAction separates action IDs from any other hash in the system.
const DomainAction = "epicflow/action/v1"

func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// ID computes the content-addressed identity of an action dispatched at
// sequence number seq within a session. The same inputs always produce the
// same ID, which makes journal appends idempotent across replays.
func ID(session string, seq int64, a Action) (string, error) {
	env, err := Wrap(a)
	if err != nil {
		return "", err
	}
	obj := map[string]any{
		"session": session,
		"seq":     seq,
		"type":    string(env.Type),
		"payload": env.Payload,
	}
	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("action id: %w", err)
	}
	return hashWithDomain(DomainAction, canonical), nil
}
