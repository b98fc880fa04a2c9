package csrf

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"
)

const (
	// MaxMultipartMemory bounds the part of a multipart body held in memory
	// while looking for the token field. Larger files spill to disk.
	MaxMultipartMemory = 32 << 20

	// TokenLength is the length of every generated token.
	TokenLength = 96

	randomPartBytes = 16

	// underscoreThreshold gives each eligible position a 13/256 (~5%) chance
	// of becoming '_'. Case flips happen with probability 1/2.
	underscoreThreshold = 13
)

// ErrTokenGeneration is returned when the random source fails.
var ErrTokenGeneration = errors.New("failed to generate request token")

// Methods that require a token.
var unsafeMethods = map[string]bool{
	http.MethodPost:   true,
	http.MethodPut:    true,
	http.MethodPatch:  true,
	http.MethodDelete: true,
}

// IsUnsafeMethod reports whether requests with this method must carry a token.
func IsUnsafeMethod(method string) bool {
	return unsafeMethods[method]
}

// Generate builds a new 96 character token over [A-Za-z0-9_]:
// hex(16 random bytes) followed by hex(sha256(unix micros || fingerprint)),
// passed through a random case flip and underscore substitution.
func (m *Manager) Generate(fingerprint string) (string, error) {
	random := make([]byte, randomPartBytes)
	if _, err := io.ReadFull(m.rand, random); err != nil {
		return "", errors.Join(ErrTokenGeneration, err)
	}

	digest := sha256.Sum256([]byte(strconv.FormatInt(m.now().UnixMicro(), 10) + fingerprint))
	raw := hex.EncodeToString(random) + hex.EncodeToString(digest[:])

	noise := make([]byte, 2*len(raw))
	if _, err := io.ReadFull(m.rand, noise); err != nil {
		return "", errors.Join(ErrTokenGeneration, err)
	}

	return scramble(raw, noise), nil
}

// scramble returns a copy of raw where position i is replaced by '_' when
// noise[2i] < underscoreThreshold (positions 0..n-2), otherwise upper-cased
// when noise[2i+1] is odd (positions 1..n-1).
func scramble(raw string, noise []byte) string {
	last := len(raw) - 1
	out := make([]byte, len(raw))
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		switch {
		case i < last && noise[2*i] < underscoreThreshold:
			c = '_'
		case i > 0 && noise[2*i+1]&1 == 1 && c >= 'a' && c <= 'z':
			c -= 'a' - 'A'
		}
		out[i] = c
	}
	return string(out)
}

// ExtractToken returns the client-submitted token, preferring the header over
// the form field (x-www-form-urlencoded / multipart).
func ExtractToken(r *http.Request, headerName, formField string) string {
	if h := r.Header.Get(headerName); h != "" {
		return h
	}
	if mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type")); mt == "multipart/form-data" {
		// a broken multipart body leaves r.Form empty and the token missing
		_ = r.ParseMultipartForm(MaxMultipartMemory)
	} else {
		_ = r.ParseForm()
	}
	return r.Form.Get(formField)
}
