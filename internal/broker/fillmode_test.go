package broker

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveFillMode(t *testing.T) {
	cases := []struct {
		name         string
		fillingMode  int
		expected     FillMode
	}{
		{"fok bit set", 1, FillModeFOK},
		{"ioc bit set", 2, FillModeIOC},
		{"both bits set prefers fok", 3, FillModeFOK},
		{"no bits set falls back to return", 0, FillModeReturn},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, ResolveFillMode(tc.fillingMode))
		})
	}
}
