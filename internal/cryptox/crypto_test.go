package cryptox

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveKey_Deterministic(t *testing.T) {
	salt := []byte("0123456789abcdef")
	a := DeriveKey([]byte("1234"), salt)
	b := DeriveKey([]byte("1234"), salt)

	require.Len(t, a, 32)
	assert.True(t, bytes.Equal(a, b))
}

func TestDeriveKey_DifferentInputs(t *testing.T) {
	salt := []byte("0123456789abcdef")
	base := DeriveKey([]byte("1234"), salt)

	assert.False(t, bytes.Equal(base, DeriveKey([]byte("1235"), salt)))
	assert.False(t, bytes.Equal(base, DeriveKey([]byte("1234"), []byte("fedcba9876543210"))))
}

func TestSealAndCheck(t *testing.T) {
	salt := NewSalt()
	require.Len(t, salt, SaltSize)

	verifier := Seal([]byte("4821"), salt)
	require.Len(t, verifier, 32)

	tests := []struct {
		name      string
		candidate string
		want      bool
	}{
		{name: "match", candidate: "4821", want: true},
		{name: "one digit off", candidate: "4822", want: false},
		{name: "empty", candidate: "", want: false},
		{name: "longer", candidate: "48210", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Check([]byte(tt.candidate), salt, verifier))
		})
	}
}
