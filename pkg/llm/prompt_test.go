package llm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDigestStringIsStableAndContentAddressed(t *testing.T) {
	a := DigestString("open_long BTC funding favors longs")
	b := DigestString("open_long BTC funding favors longs")
	require.Equal(t, a, b)
	require.Len(t, a, 64) // hex-encoded sha256

	c := DigestString("open_short BTC funding favors shorts")
	require.NotEqual(t, a, c)
}

func TestDigestStringEmptyInput(t *testing.T) {
	require.NotEmpty(t, DigestString(""))
}
