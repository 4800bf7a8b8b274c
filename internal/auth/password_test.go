package auth

import (
	"strings"
	"testing"
)

func TestHashVerifyRoundTrip(t *testing.T) {
	hash, err := Hash("SenhaForte123!")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	if !Verify("SenhaForte123!", hash) {
		t.Fatal("senha correta não verificou")
	}
	if Verify("SenhaErrada123!", hash) {
		t.Fatal("senha errada verificou")
	}
}

func TestHashUsesRandomSalt(t *testing.T) {
	h1, err := Hash("mesma-senha")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	h2, err := Hash("mesma-senha")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	if h1 == h2 {
		t.Fatal("dois hashes da mesma senha não deveriam coincidir")
	}
	if !Verify("mesma-senha", h1) || !Verify("mesma-senha", h2) {
		t.Fatal("ambos os hashes deveriam verificar a senha original")
	}
}

func TestVerifyMalformedHashFailsClosed(t *testing.T) {
	cases := []string{
		"",
		"nao-e-um-hash",
		"$argon2id$v=19$m=65536",
		strings.Repeat("$", 6),
	}
	for _, stored := range cases {
		if Verify("qualquer", stored) {
			t.Fatalf("hash malformado %q verificou", stored)
		}
	}
}
