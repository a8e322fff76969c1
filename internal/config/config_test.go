package config

import (
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, 30*time.Second, cfg.WorkTimeout)
}

func TestLoad_FlagsOverrideEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("ASSETVAULT_WORKERS", "8")
	t.Setenv("ASSETVAULT_HTTP_ADDR", ":9000")
	t.Setenv("ASSETVAULT_LOCK_TTL", "2m")

	cfg, err := Load([]string{"--workers", "16"})
	require.NoError(t, err)
	assert.Equal(t, 16, cfg.Workers)
	assert.Equal(t, ":9000", cfg.HTTPAddr)
	assert.Equal(t, 2*time.Minute, cfg.LockTTL)
}

func TestLoad_BadEnvNumber(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("ASSETVAULT_QUEUE_SIZE", "lots")

	_, err := Load(nil)
	assert.ErrorContains(t, err, "ASSETVAULT_QUEUE_SIZE")
}

func TestLoad_Validation(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := Load([]string{"--workers", "0", "--log-format", "xml"})
	require.Error(t, err)

	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	fields := map[string]string{}
	for _, fe := range verrs {
		fields[fe.Field()] = fe.Tag()
	}
	assert.Equal(t, map[string]string{"Workers": "min", "LogFormat": "oneof"}, fields)
}
