package persist

import (
	"net/netip"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestParseAddr(t *testing.T) {
	tests := []struct {
		in   string
		want netip.Addr
	}{
		{"198.51.100.7", netip.MustParseAddr("198.51.100.7")},
		{"198.51.100.7:52110", netip.MustParseAddr("198.51.100.7")},
		{"::ffff:198.51.100.7", netip.MustParseAddr("198.51.100.7")},
		{"[2001:db8::1]:7001", netip.MustParseAddr("2001:db8::1")},
		{"", netip.Addr{}},
		{"not-an-ip", netip.Addr{}},
	}
	for _, tt := range tests {
		if got := parseAddr(tt.in); got != tt.want {
			t.Fatalf("parseAddr(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestValidatePassword(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !ValidatePassword(string(hash), "secret") {
		t.Fatalf("expected password to match")
	}
	if ValidatePassword(string(hash), "Secret") {
		t.Fatalf("expected mismatch for wrong password")
	}
	if ValidatePassword("plaintext", "plaintext") {
		t.Fatalf("non-bcrypt hash must not validate")
	}
}
