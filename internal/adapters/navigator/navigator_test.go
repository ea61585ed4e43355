package navigator

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogging_Navigate(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	var seen []string
	nav := NewLogging(logger, func(path string) { seen = append(seen, path) })
	assert.Empty(t, nav.Last())

	nav.Navigate("/auth/login")

	assert.Equal(t, "/auth/login", nav.Last())
	assert.Equal(t, []string{"/auth/login"}, seen)
	assert.Contains(t, buf.String(), `"location":"/auth/login"`)
}

func TestLogging_NilCallback(t *testing.T) {
	nav := NewLogging(nil, nil)
	nav.Navigate("/connexion")
	assert.Equal(t, "/connexion", nav.Last())
}
