package auth

import "testing"

func TestAPIKeyVerifier(t *testing.T) {
	v := NewAPIKeyVerifier("secret-key")
	if !v.Verify("secret-key") {
		t.Fatal("expected matching key to verify")
	}
	if v.Verify("wrong-key") {
		t.Fatal("expected mismatched key to fail")
	}
	if v.Verify("") {
		t.Fatal("expected empty key to fail")
	}
}

func TestAPIKeyVerifier_EmptySecret(t *testing.T) {
	v := NewAPIKeyVerifier("")
	if v.Verify("") {
		t.Fatal("unconfigured verifier must reject everything")
	}
}
