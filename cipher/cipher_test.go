package cipher

import (
	"bytes"
	"testing"
)

func TestSelectBlockCryptRoundTrip(t *testing.T) {
	names := []string{"none", "xor", "aes", "aes-192", "3des", "blowfish", "twofish", "cast5", "tea", "xtea", "salsa20"}
	key := bytes.Repeat([]byte("k"), 32)

	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			block, effective := SelectBlockCrypt(name, key)
			if block == nil {
				t.Fatalf("SelectBlockCrypt(%q) returned a nil cipher", name)
			}
			if effective != name {
				t.Fatalf("effective cipher = %q, want %q", effective, name)
			}

			plaintext := []byte("the quick brown fox jumps over the lazy dog")
			ciphertext, err := block.Encrypt(nil, plaintext)
			if err != nil {
				t.Fatalf("Encrypt: %v", err)
			}
			if name != "none" && bytes.Equal(ciphertext, plaintext) {
				t.Fatalf("ciphertext should not equal plaintext for %q", name)
			}

			decoded, err := block.Decrypt(ciphertext)
			if err != nil {
				t.Fatalf("Decrypt: %v", err)
			}
			if !bytes.Equal(decoded, plaintext) {
				t.Fatalf("round trip mismatch for %q: got %q, want %q", name, decoded, plaintext)
			}
		})
	}
}

func TestSelectBlockCryptUnknownFallsBackToAES(t *testing.T) {
	_, effective := SelectBlockCrypt("bogus-cipher", []byte("sixteen byte key"))
	if effective != "aes" {
		t.Fatalf("expected fallback to aes, got %q", effective)
	}
}
