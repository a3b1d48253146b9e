package utils

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseIntDefault(t *testing.T) {
	testCases := []struct {
		raw  string
		want int
	}{
		{"", 5},
		{"abc", 5},
		{"3", 3},
		{" 7 ", 7},
		{"0", 1},
		{"-4", 1},
		{"1000", 100},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.want, ParseIntDefault(tc.raw, 5, 1, 100), "raw=%q", tc.raw)
	}
}

func TestReadBody_RestoresBody(t *testing.T) {
	req := httptest.NewRequest("POST", "/", strings.NewReader("0123456789"))

	got, err := ReadBody(req, 4)
	require.NoError(t, err)
	assert.Equal(t, "0123", got)

	rest, err := io.ReadAll(req.Body)
	require.NoError(t, err)
	assert.Equal(t, "0123456789", string(rest))
}
