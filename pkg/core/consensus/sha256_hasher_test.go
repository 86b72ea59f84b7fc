package consensus

import "testing"

func TestSHA256HasherImplementsHasher(t *testing.T) {
	var _ Hasher = (*SHA256Hasher)(nil)
}

func TestSHA256HasherDeterministic(t *testing.T) {
	h := NewSHA256Hasher()
	defer h.Close()

	input := []byte("chronodrachma test input")
	hash1, err := h.Hash(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	hash2, err := h.Hash(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hash1 != hash2 {
		t.Fatalf("same input produced different hashes: %s vs %s", hash1.Hex(), hash2.Hex())
	}
}

func TestSHA256HasherDiffersOnInput(t *testing.T) {
	h := NewSHA256Hasher()
	defer h.Close()

	hash1, _ := h.Hash([]byte("a"))
	hash2, _ := h.Hash([]byte("b"))
	if hash1 == hash2 {
		t.Fatal("different inputs produced the same hash")
	}
}
