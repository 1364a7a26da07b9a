package krist

import "testing"

func TestParseAddress(t *testing.T) {
	tests := []struct {
		addr    string
		wantErr bool
	}{
		{"abcdef1234", false},
		{"kabcdefghi", false},
		{"k5ztameslf", false},
		{"abc", true},
		{"abcdefghij", true}, // 'g' not allowed without 'k' prefix
		{"kabcdefghij", true},
	}

	for _, tt := range tests {
		a, err := ParseAddress(tt.addr)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseAddress(%q) error = %v, wantErr %v", tt.addr, err, tt.wantErr)
			continue
		}
		if err == nil && a.String() != tt.addr {
			t.Errorf("ParseAddress(%q).String() = %q", tt.addr, a.String())
		}
	}
}

func TestAddressFromBytes(t *testing.T) {
	// Round-trip: any 10-byte ASCII string survives unchanged.
	a, err := AddressFromBytes([]byte("k5ztameslf"))
	if err != nil {
		t.Fatalf("AddressFromBytes: %v", err)
	}
	if a.String() != "k5ztameslf" {
		t.Errorf("round-trip mismatch: %q", a.String())
	}

	if _, err := AddressFromBytes([]byte("short")); err == nil {
		t.Error("AddressFromBytes should reject wrong length")
	}
}

func TestParseShortHash(t *testing.T) {
	h, err := ParseShortHash("abce8f03b1d2")
	if err != nil {
		t.Fatalf("ParseShortHash: %v", err)
	}
	if h.Hex() != "abce8f03b1d2" {
		t.Errorf("Hex() = %q", h.Hex())
	}

	hb := h.HexBytes()
	if string(hb[:]) != "abce8f03b1d2" {
		t.Errorf("HexBytes() = %q", hb)
	}

	if _, err := ParseShortHash("abce8f"); err == nil {
		t.Error("ParseShortHash should reject wrong length")
	}
	if _, err := ParseShortHash("zzce8f03b1d2"); err == nil {
		t.Error("ParseShortHash should reject non-hex")
	}
}

func TestSolutionNonceString(t *testing.T) {
	sol := Solution{Nonce: [NonceLength]byte{'!', ' ', '0', 'A', 'Z', '_', '"', '#', '$', '%', '&'}}
	if sol.NonceString() != `! 0AZ_"#$%&` {
		t.Errorf("NonceString() = %q", sol.NonceString())
	}
}
