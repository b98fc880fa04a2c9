package csrf

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

const rawSample = "0123456789abcdef0123456789abcdef" +
	"0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"

func TestScramble(t *testing.T) {
	t.Parallel()

	t.Run("zero noise turns every position but the last into underscore", func(t *testing.T) {
		t.Parallel()
		out := scramble(rawSample, make([]byte, 2*len(rawSample)))

		assert.Len(t, out, TokenLength)
		assert.Equal(t, strings.Repeat("_", TokenLength-1), out[:TokenLength-1])
		assert.Equal(t, rawSample[TokenLength-1:], out[TokenLength-1:])
	})

	t.Run("high noise upper-cases letters after the first position", func(t *testing.T) {
		t.Parallel()
		out := scramble("abcdef0123", bytes.Repeat([]byte{0xFF}, 20))
		assert.Equal(t, "aBCDEF0123", out)
	})

	t.Run("even noise above threshold leaves input unchanged", func(t *testing.T) {
		t.Parallel()
		out := scramble(rawSample, bytes.Repeat([]byte{0x40}, 2*len(rawSample)))
		assert.Equal(t, rawSample, out)
	})

	t.Run("input is not modified", func(t *testing.T) {
		t.Parallel()
		in := "abcdef"
		_ = scramble(in, make([]byte, 12))
		assert.Equal(t, "abcdef", in)
	})
}
