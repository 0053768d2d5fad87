package embed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openauslaw/oale/internal/config"
)

func TestNewFromConfig_StaticBackend(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Backend = "static"

	e, err := NewFromConfig(context.Background(), cfg)
	require.NoError(t, err)
	defer func() { _ = e.Close() }()

	assert.Equal(t, "static", e.ModelName())
	assert.Equal(t, StaticDimensions, e.Dimensions())
}

func TestNewFromConfig_UnknownBackendFails(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Backend = "gpt"

	_, err := NewFromConfig(context.Background(), cfg)
	assert.Error(t, err)
}
