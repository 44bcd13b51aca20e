package crypto

import "testing"

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("secret1")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	if hash == "secret1" {
		t.Fatal("hash must not equal plaintext")
	}

	if !VerifyPassword(hash, "secret1") {
		t.Fatal("expected matching password to verify")
	}
	if VerifyPassword(hash, "secret2") {
		t.Fatal("expected mismatching password to fail")
	}
}

func TestGenerateTokenUnique(t *testing.T) {
	first, err := GenerateToken(24)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	second, err := GenerateToken(24)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	if first == "" || second == "" {
		t.Fatal("expected non-empty tokens")
	}
	if first == second {
		t.Fatal("expected unique tokens")
	}
}
