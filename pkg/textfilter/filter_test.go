package textfilter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClean(t *testing.T) {
	f := New()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"lowercase", "that is bullshit", "that is nonsense"},
		{"uppercase", "DAMN the treaty", "DANG the treaty"},
		{"title case", "Damn the treaty", "Dang the treaty"},
		{"multiple words", "this damn crap again", "this dang crud again"},
		{"embedded word untouched", "classic diplomacy", "classic diplomacy"},
		{"punctuation boundary", "What the hell?!", "What the heck?!"},
		{"clean text untouched", "I will sign the accord", "I will sign the accord"},
		{"empty string", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.Clean(tt.in))
		})
	}
}

func TestContains(t *testing.T) {
	f := New()
	assert.True(t, f.Contains("what the hell"))
	assert.True(t, f.Contains("HELL no"))
	assert.False(t, f.Contains("a hellenic statue"))
	assert.False(t, f.Contains("we shall see"))
	assert.False(t, f.Contains(""))
}
