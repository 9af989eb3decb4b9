package service

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/cyberphone/json-canonicalization/go/src/webpki.org/jsoncanonicalizer"
	"github.com/guttosm/patchwork-service/internal/domain/model"
)

// GenerateKey returns the cache fingerprint of a request: the hex SHA-256 of
// its fields in JCS (RFC 8785) canonical form.
func GenerateKey(params model.PatchworkParams) string {
	return FingerprintFields(params.Fields())
}

// FingerprintFields hashes an arbitrary field map the same way GenerateKey does.
func FingerprintFields(fields map[string]any) string {
	raw, _ := json.Marshal(fields)
	canonical, err := jsoncanonicalizer.Transform(raw)
	if err != nil {
		// Only reachable for values JSON cannot represent.
		canonical = raw
	}

	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:])
}
