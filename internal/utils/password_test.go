package utils

import (
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("secret123", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !strings.HasPrefix(hash, "$2a$") {
		t.Fatalf("hash = %q, want a bcrypt credential", hash)
	}
	if !VerifyPassword(hash, "secret123") {
		t.Error("correct password rejected")
	}
	if VerifyPassword(hash, "secret124") {
		t.Error("wrong password accepted")
	}
}

func TestVerifyPasswordLegacyPlaintext(t *testing.T) {
	if !VerifyPassword("oldplain", "oldplain") {
		t.Error("legacy plaintext credential rejected")
	}
	if VerifyPassword("oldplain", "other") {
		t.Error("wrong password accepted against plaintext credential")
	}
	if VerifyPassword("", "") {
		t.Error("empty credential must never verify")
	}
}

func TestTemporaryPassword(t *testing.T) {
	if got := TemporaryPassword("1020304050"); got != "vacun1020304050" {
		t.Errorf("TemporaryPassword = %q", got)
	}
}
