package encoder

import "testing"

func TestEncodeDecodeObjectRoundTrips(t *testing.T) {
	packed := []byte{0xCA, 0xFE, 0xF0}
	data := EncodeObject(20, packed)
	if len(data) != HeaderSize+len(packed) {
		t.Fatalf("unexpected length: %d", len(data))
	}

	bitLength, got, err := DecodeObject(data)
	if err != nil {
		t.Fatalf("DecodeObject: %v", err)
	}
	if bitLength != 20 {
		t.Fatalf("bitLength = %d, want 20", bitLength)
	}
	if string(got) != string(packed) {
		t.Fatalf("packed payload mismatch: % X vs % X", got, packed)
	}
}

func TestDecodeObjectRejectsShortData(t *testing.T) {
	_, _, err := DecodeObject([]byte{1, 2, 3})
	if err == nil {
		t.Fatal("expected error for data shorter than the header")
	}
}
