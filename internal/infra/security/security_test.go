package security

import (
	"encoding/hex"
	"strings"
	"testing"
)

func TestHashPasswordIsDeterministicHex(t *testing.T) {
	first := HashPassword("correct horse battery staple")
	second := HashPassword("correct horse battery staple")

	if first != second {
		t.Fatalf("expected identical digests, got %q and %q", first, second)
	}
	if len(first) != 64 {
		t.Fatalf("expected 64 hex characters, got %d", len(first))
	}
	if _, err := hex.DecodeString(first); err != nil {
		t.Fatalf("digest is not valid hex: %v", err)
	}
}

func TestVerifyHash(t *testing.T) {
	digest := HashPassword("hunter2")

	if !VerifyHash(digest, digest) {
		t.Fatal("expected matching digests to verify")
	}
	if VerifyHash(HashPassword("hunter3"), digest) {
		t.Fatal("expected mismatched digests to fail")
	}
	if VerifyHash("", digest) {
		t.Fatal("expected empty presented value to fail")
	}
	if VerifyHash(digest, "") {
		t.Fatal("expected empty stored value to fail")
	}
}

func TestGenerateToken(t *testing.T) {
	token, err := GenerateToken()
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	if len(token) != TokenByteLength*2 {
		t.Fatalf("expected %d characters, got %d", TokenByteLength*2, len(token))
	}
	if _, err := hex.DecodeString(token); err != nil {
		t.Fatalf("token is not valid hex: %v", err)
	}

	other, err := GenerateToken()
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	if token == other {
		t.Fatal("expected distinct tokens")
	}
}

func TestIsEmailValid(t *testing.T) {
	valid := []string{
		"student@example.com",
		"first.last@school.k12.us",
		"tagged+walks@example.org",
	}
	for _, email := range valid {
		if !IsEmailValid(email) {
			t.Errorf("expected %q to be valid", email)
		}
	}

	invalid := []string{
		"",
		"no-at-sign",
		"@example.com",
		"user@",
		"user@-bad-.com",
		"user@domain..com",
		strings.Repeat("a", 65) + "@example.com",
		"user@" + strings.Repeat("a", 64) + ".com",
		"user@" + strings.Repeat("d.", 125) + "com",
	}
	for _, email := range invalid {
		if IsEmailValid(email) {
			t.Errorf("expected %q to be invalid", email)
		}
	}
}

func TestStripDomain(t *testing.T) {
	if got := StripDomain("kid@example.com"); got != "kid" {
		t.Fatalf("expected kid, got %q", got)
	}
	if got := StripDomain("plainname"); got != "plainname" {
		t.Fatalf("expected plainname, got %q", got)
	}
}
