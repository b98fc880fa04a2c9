package fingerprint_test

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JeanGrijp/go-sessionguard/fingerprint"
)

func TestGenerate(t *testing.T) {
	t.Parallel()

	t.Run("deterministic for identical inputs", func(t *testing.T) {
		t.Parallel()
		a := fingerprint.Generate("10.0.0.1", "Mozilla/5.0", "51234")
		b := fingerprint.Generate("10.0.0.1", "Mozilla/5.0", "51234")

		assert.Equal(t, a, b)
		assert.Len(t, a, fingerprint.Size)
		assert.Regexp(t, "^[a-f0-9]{64}$", a)
	})

	t.Run("known digest of the plain concatenation", func(t *testing.T) {
		t.Parallel()
		// sha256("abc")
		assert.Equal(t,
			"ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad",
			fingerprint.Generate("a", "b", "c"))
	})

	t.Run("empty inputs are not an error", func(t *testing.T) {
		t.Parallel()
		// sha256("")
		assert.Equal(t,
			"e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
			fingerprint.Generate("", "", ""))
	})

	t.Run("port changes the digest", func(t *testing.T) {
		t.Parallel()
		assert.NotEqual(t,
			fingerprint.Generate("10.0.0.1", "ua", "1000"),
			fingerprint.Generate("10.0.0.1", "ua", "1001"))
	})
}

func TestFromRequest(t *testing.T) {
	t.Parallel()

	t.Run("splits host and port", func(t *testing.T) {
		t.Parallel()
		r := httptest.NewRequest("GET", "/", nil)
		r.RemoteAddr = "192.168.1.100:54321"
		r.Header.Set("User-Agent", "test-agent")

		c := fingerprint.FromRequest(r)
		assert.Equal(t, "192.168.1.100", c.Addr)
		assert.Equal(t, "54321", c.Port)
		assert.Equal(t, "test-agent", c.UserAgent)
		assert.Equal(t, fingerprint.Generate("192.168.1.100", "test-agent", "54321"), c.Fingerprint())
	})

	t.Run("ipv6 address", func(t *testing.T) {
		t.Parallel()
		r := httptest.NewRequest("GET", "/", nil)
		r.RemoteAddr = "[::1]:8080"

		c := fingerprint.FromRequest(r)
		assert.Equal(t, "::1", c.Addr)
		assert.Equal(t, "8080", c.Port)
	})

	t.Run("address without port", func(t *testing.T) {
		t.Parallel()
		r := httptest.NewRequest("GET", "/", nil)
		r.RemoteAddr = "unix-socket"

		c := fingerprint.FromRequest(r)
		assert.Equal(t, "unix-socket", c.Addr)
		assert.Empty(t, c.Port)
		assert.Empty(t, c.UserAgent)
	})

	t.Run("forwarded header ignored by default", func(t *testing.T) {
		t.Parallel()
		r := httptest.NewRequest("GET", "/", nil)
		r.RemoteAddr = "10.0.0.1:1234"
		r.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")

		assert.Equal(t, "10.0.0.1", fingerprint.FromRequest(r).Addr)
	})

	t.Run("forwarded header honoured when trusted", func(t *testing.T) {
		t.Parallel()
		r := httptest.NewRequest("GET", "/", nil)
		r.RemoteAddr = "10.0.0.1:1234"
		r.Header.Set("X-Forwarded-For", " 203.0.113.7 , 10.0.0.1")

		c := fingerprint.FromRequest(r, fingerprint.WithTrustedProxyHeaders())
		require.Equal(t, "203.0.113.7", c.Addr)
		assert.Equal(t, "1234", c.Port)
	})
}
