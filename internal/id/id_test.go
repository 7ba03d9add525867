package id

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_Uniqueness(t *testing.T) {
	ids := make(map[string]bool)
	count := 1000

	for range count {
		id, err := Generate(PrefixPost)
		require.NoError(t, err)
		assert.False(t, ids[id], "ID should be unique: %s", id)
		ids[id] = true
	}

	assert.Len(t, ids, count)
}

func TestGenerate_Format(t *testing.T) {
	for _, prefix := range []string{PrefixUser, PrefixPost} {
		t.Run(prefix, func(t *testing.T) {
			id, err := Generate(prefix)
			require.NoError(t, err)

			assert.True(t, strings.HasPrefix(id, prefix+"-"))
			assert.Len(t, id, len(prefix)+1+nanoidLength)
			assert.True(t, Valid(prefix, id))
		})
	}
}

func TestValid(t *testing.T) {
	good := MustGenerate(PrefixPost)

	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"generated", good, true},
		{"wrong prefix", strings.Replace(good, "post-", "user-", 1), false},
		{"numeric", "42", false},
		{"empty", "", false},
		{"too short", "post-abc", false},
		{"bad rune", "post-" + strings.Repeat("!", nanoidLength), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Valid(PrefixPost, tt.input))
		})
	}
}
