package util

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeFileName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"cv.pdf", "cv.pdf"},
		{"  Rahim CV.pdf ", "Rahim CV.pdf"},
		{"exports/cv.html", "exports_cv.html"},
		{`a\b.pdf`, "a_b.pdf"},
		{"cv\x00\n.pdf", "cv.pdf"},
		{"42", "42"},
	}
	for _, tc := range cases {
		got, err := SanitizeFileName(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got)
	}
}

func TestSanitizeFileNameRejects(t *testing.T) {
	for _, in := range []string{"", "   ", "../cv.pdf", "a..b", "\x01"} {
		_, err := SanitizeFileName(in)
		assert.ErrorIs(t, err, ErrInvalidFileName, "%q", in)
	}
}

func TestSanitizeFileNameTruncatesKeepingExtension(t *testing.T) {
	got, err := SanitizeFileName(strings.Repeat("x", 300) + ".pdf")
	require.NoError(t, err)
	assert.Len(t, got, maxFileNameBytes)
	assert.True(t, strings.HasSuffix(got, ".pdf"))

	got, err = SanitizeFileName(strings.Repeat("é", 100) + ".pdf")
	require.NoError(t, err)
	assert.LessOrEqual(t, len(got), maxFileNameBytes)
	assert.True(t, strings.HasSuffix(got, "é.pdf"))
}
