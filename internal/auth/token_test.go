package auth

import (
	"encoding/hex"
	"errors"
	"strings"
	"testing"
)

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("entropy exhausted") }

func TestGenerate_TokenIs64HexChars(t *testing.T) {
	ts := NewTokenService()

	token, _, err := ts.Generate()
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if len(token) != 2*TokenBytes {
		t.Errorf("len(token) = %d, want %d", len(token), 2*TokenBytes)
	}
	if _, err := hex.DecodeString(token); err != nil {
		t.Errorf("token %q is not hex: %v", token, err)
	}
}

func TestGenerate_HashMatchesHashOfToken(t *testing.T) {
	ts := NewTokenService()

	token, hash, err := ts.Generate()
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if hash != ts.Hash(token) {
		t.Errorf("hash = %q, want Hash(token) = %q", hash, ts.Hash(token))
	}
	if hash == token {
		t.Error("hash must not equal the plaintext token")
	}
}

func TestGenerate_TokensAreUnique(t *testing.T) {
	ts := NewTokenService()
	seen := make(map[string]bool)

	for i := 0; i < 100; i++ {
		token, _, err := ts.Generate()
		if err != nil {
			t.Fatalf("Generate() error = %v", err)
		}
		if seen[token] {
			t.Fatalf("duplicate token after %d generations", i)
		}
		seen[token] = true
	}
}

func TestGenerate_RandomFailure(t *testing.T) {
	ts := &TokenService{random: failingReader{}}

	if _, _, err := ts.Generate(); err == nil {
		t.Fatal("Generate() should fail when the random source fails")
	}
}

func TestHash_Deterministic(t *testing.T) {
	ts := NewTokenService()

	a := ts.Hash("abc")
	b := ts.Hash("abc")
	if a != b {
		t.Errorf("Hash() not deterministic: %q vs %q", a, b)
	}
	if a != strings.ToLower(a) || len(a) != 64 {
		t.Errorf("Hash() = %q, want 64 lowercase hex chars", a)
	}
}
