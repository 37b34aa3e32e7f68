package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/steven-giang-van/scripts-central/internal/engine"
)

// DomainAnalysis prefixes analysis digests. The version suffix changes if
// the digested encoding ever does.
const DomainAnalysis = "idlecheck/analysis/v1"

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null byte keeps the domain/data boundary unambiguous.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Digest identifies the content of an analysis result. Two runs over the
// same records and configuration have the same digest.
func Digest(res *engine.Result) (string, error) {
	data, err := json.Marshal(res)
	if err != nil {
		return "", fmt.Errorf("digest: %w", err)
	}
	return hashWithDomain(DomainAnalysis, data), nil
}
