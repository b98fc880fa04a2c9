package demo

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JeanGrijp/go-sessionguard/guard"
	"github.com/JeanGrijp/go-sessionguard/session"
)

func TestRenderPage(t *testing.T) {
	t.Parallel()
	g := guard.New(session.NewMemoryStore(time.Hour), guard.Config{})
	defer g.Close()

	s := g.Session(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, s.Start())

	var buf bytes.Buffer
	require.NoError(t, RenderPage(&buf, s, "<done>"))

	out := buf.String()
	assert.Equal(t, 2, bytes.Count(buf.Bytes(), []byte(`value="`+s.Token()+`"`)))
	assert.Contains(t, out, "&lt;done&gt;")
}
