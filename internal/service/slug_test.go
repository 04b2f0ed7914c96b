package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"Hello World":          "hello-world",
		"  Red  T-Shirt (XL) ": "red-t-shirt-xl",
		"Café au lait":         "caf-au-lait",
		"---":                  "",
		"already-a-slug":       "already-a-slug",
	}
	for in, want := range tests {
		assert.Equal(t, want, Slugify(in), in)
	}
}
