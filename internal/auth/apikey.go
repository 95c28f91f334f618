package auth

import "crypto/hmac"

// APIKeyVerifier checks the shared ingestion secret. Field devices cannot
// carry user credentials, so the ingest endpoint authenticates by a single
// process-wide key instead of a bearer token.
type APIKeyVerifier struct {
	secret []byte
}

// NewAPIKeyVerifier constructs a verifier for the configured secret.
func NewAPIKeyVerifier(secret string) *APIKeyVerifier {
	return &APIKeyVerifier{secret: []byte(secret)}
}

// Verify reports whether the presented key matches the configured secret.
// The comparison is constant-time.
func (v *APIKeyVerifier) Verify(key string) bool {
	if v == nil || len(v.secret) == 0 {
		return false
	}
	return hmac.Equal([]byte(key), v.secret)
}
