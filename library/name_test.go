package library

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeSearchName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Foo Bar", "Foo Bar"},
		{"Foo Bar [Repack]-GROUP", "Foo Bar"},
		{"Foo Bar [v1.2] [GOG]", "Foo Bar"},
		{"Foo.Bar-RELOADED", "Foo.Bar"},
		{"Half-Life 2", "Half-Life 2"},
		{"Half-Life 2 [GOG]-GROUP", "Half-Life 2"},
		{"  Spaced   Out  ", "Spaced Out"},
		{"[Prefix] Game", "Game"},
		{"", ""},
		{"[only brackets]", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeSearchName(tt.in), "input %q", tt.in)
	}
}
