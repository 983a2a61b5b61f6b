package players

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeName(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"lowercases", "ShadowStriker", "shadowstriker"},
		{"collapses whitespace", "  The   Big  Cheese ", "the big cheese"},
		{"case folds beyond ascii", "ÜberSpieler", "überspieler"},
		{"empty", "   ", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, NormalizeName(tc.in))
		})
	}
}

func TestNormalizeNameEquatesVariants(t *testing.T) {
	assert.Equal(t, NormalizeName("Shadow Striker"), NormalizeName("shadow   STRIKER"))
}
