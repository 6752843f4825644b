package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"

	"github.com/kisandost/kisandost-go/internal/advisory"
	"github.com/kisandost/kisandost-go/internal/config"
	"github.com/kisandost/kisandost-go/internal/narration"
	"github.com/kisandost/kisandost-go/internal/verification"
	pkginfra "github.com/kisandost/kisandost-go/pkg/infrastructure"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	return path
}

func TestApplication_Wiring(t *testing.T) {
	t.Setenv(config.APIKeyEnv, "")
	path := writeConfig(t, "log_level: error\nopenai:\n  api_key: test-key\n")

	var (
		sessions narration.SessionManager
		advisor  *advisory.Service
		verifier *verification.Verifier
	)

	application := New(
		Modules(),
		fx.Supply(path),
		fx.WithLogger(pkginfra.NewFxLoggerAdapter),
		fx.Populate(&sessions, &advisor, &verifier),
	)
	require.NoError(t, application.Err())

	ctx := context.Background()
	require.NoError(t, application.Start(ctx))
	assert.NotNil(t, sessions)
	assert.NotNil(t, advisor)
	assert.NotNil(t, verifier)
	require.NoError(t, application.Stop(ctx))
}

func TestApplication_MissingAPIKey(t *testing.T) {
	t.Setenv(config.APIKeyEnv, "")
	path := writeConfig(t, "log_level: error\n")

	var advisor *advisory.Service
	application := New(
		Modules(),
		fx.Supply(path),
		fx.NopLogger,
		fx.Populate(&advisor),
	)

	assert.Error(t, application.Err())
}
