package types

import (
	"testing"
)

func TestNodeID(t *testing.T) {
	t.Run("ParseNodeID", func(t *testing.T) {
		valid := GenerateNodeID().String()

		tests := []struct {
			name    string
			input   string
			wantErr bool
		}{
			{"valid", valid, false},
			{"empty", "", true},
			{"invalid base58", "0OIl", true},
			{"wrong length", "Ldp", true},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := ParseNodeID(tt.input)
				if (err != nil) != tt.wantErr {
					t.Errorf("ParseNodeID(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
				}
			})
		}
	})

	t.Run("RoundTrip", func(t *testing.T) {
		id := GenerateNodeID()
		parsed, err := ParseNodeID(id.String())
		if err != nil {
			t.Fatalf("ParseNodeID(%q) error = %v", id.String(), err)
		}
		if !parsed.Equal(id) {
			t.Errorf("round trip: got %v, want %v", parsed, id)
		}
	})

	t.Run("ShortString", func(t *testing.T) {
		id := GenerateNodeID()
		short := id.ShortString()
		if len(short) != 8 {
			t.Errorf("ShortString() length = %d, want 8", len(short))
		}
	})

	t.Run("NodeIDFromBytes", func(t *testing.T) {
		if _, err := NodeIDFromBytes(make([]byte, 16)); err == nil {
			t.Error("NodeIDFromBytes with 16 bytes should fail")
		}
		if _, err := NodeIDFromBytes(make([]byte, 32)); err != nil {
			t.Errorf("NodeIDFromBytes with 32 bytes failed: %v", err)
		}
	})

	t.Run("Less", func(t *testing.T) {
		var a, b NodeID
		b[31] = 1
		if !a.Less(b) {
			t.Error("all-zero ID should be less than ID with trailing 1")
		}
		if b.Less(a) {
			t.Error("Less must not be symmetric for unequal IDs")
		}
		if a.Less(a) {
			t.Error("Less must be false for equal IDs")
		}
	})

	t.Run("IsEmpty", func(t *testing.T) {
		var zero NodeID
		if !zero.IsEmpty() {
			t.Error("zero value should be empty")
		}
		if GenerateNodeID().IsEmpty() {
			t.Error("generated ID should not be empty")
		}
	})
}
