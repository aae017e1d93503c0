package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dotrongnhan/xacml-pdp/model"
)

func TestLoadAppliesDefaultsOnly(t *testing.T) {
	service, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 8080, service.Server.Port)
	assert.Equal(t, model.StrategyDefaultDeny, service.Strategy)
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pdp.yaml")
	yaml := "server:\n  port: 9090\nstrategy: DEFAULT_PERMIT\n"
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	service, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, service.Server.Port)
	assert.Equal(t, model.StrategyDefaultPermit, service.Strategy)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pdp.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 9090\n"), 0o600))

	t.Setenv("PDP__SERVER__PORT", "7070")

	service, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7070, service.Server.Port, "env override should win over file")
}
