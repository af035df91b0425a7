package uploadsdk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Validate(t *testing.T) {
	t.Run("valid config passes", func(t *testing.T) {
		cfg := &Config{BaseURL: "http://127.0.0.1:8080"}
		assert.NoError(t, cfg.Validate())
	})

	t.Run("missing base url fails", func(t *testing.T) {
		cfg := &Config{}
		assert.ErrorIs(t, cfg.Validate(), ErrNoServerURL)
	})

	t.Run("websocket scheme fails", func(t *testing.T) {
		cfg := &Config{BaseURL: "ws://127.0.0.1:8080"}
		assert.ErrorIs(t, cfg.Validate(), ErrInvalidServerURL)
	})

	t.Run("no host fails", func(t *testing.T) {
		cfg := &Config{BaseURL: "localhost"}
		assert.ErrorIs(t, cfg.Validate(), ErrInvalidServerURL)
	})
}

func TestNew_TrimsTrailingSlash(t *testing.T) {
	sdk, err := New(&Config{BaseURL: "http://127.0.0.1:8080/"})
	require.NoError(t, err)
	defer sdk.Close()

	assert.Equal(t, "http://127.0.0.1:8080", sdk.BaseURL())
	assert.NotNil(t, sdk.Upload)
	assert.NotNil(t, sdk.Students)
	assert.NotNil(t, sdk.Events)
}
