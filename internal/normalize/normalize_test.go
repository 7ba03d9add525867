package normalize

import (
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestEmail(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Alice@Example.com", "alice@example.com"},
		{"  bob@example.com  ", "bob@example.com"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, Email(tt.input))
		})
	}
}

func TestFoldKey(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		same bool
	}{
		{"case insensitive", "Rumi", "RUMI", true},
		{"surrounding space", "  rumi ", "rumi", true},
		{"inner space collapsed", "mowlana  rumi", "mowlana rumi", true},
		{"arabic yeh", "علي", "علی", true},
		{"arabic kaf", "كلام", "کلام", true},
		{"different names", "hafez", "saadi", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.same, FoldKey(tt.a) == FoldKey(tt.b))
		})
	}
}

func TestSearchText_DropsDiacritics(t *testing.T) {
	assert.Equal(t, "دل", SearchText("دِل"))
	assert.Equal(t, "ساقی", SearchText("ساقي"))
	assert.Equal(t, "a b", SearchText(" a \n b "))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "hello", Truncate("  hello  ", 280))
	assert.Equal(t, "abc", Truncate("abcdef", 3))

	cut := Truncate("عاشقانه", 4)
	assert.Equal(t, 4, utf8.RuneCountInString(cut))
	assert.Equal(t, "عاشق", cut)
	assert.Equal(t, "", Truncate("   ", 10))
}

func TestRuneLen(t *testing.T) {
	assert.Equal(t, 3, RuneLen(" عشق "))
	assert.Equal(t, 0, RuneLen(""))
}
