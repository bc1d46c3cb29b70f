package config_test

import (
	"testing"
	"time"

	"github.com/fivestack-gg/fivestack/internal/config"
	"github.com/stretchr/testify/require"
)

func TestAddr(t *testing.T) {
	t.Parallel()

	conf := config.Static{HTTPHost: "127.0.0.1", HTTPPort: 6799}
	require.Equal(t, "127.0.0.1:6799", conf.Addr())
}

func TestScanSinceTime(t *testing.T) {
	t.Parallel()

	empty := config.Static{}
	since, errEmpty := empty.ScanSinceTime()
	require.NoError(t, errEmpty)
	require.True(t, since.IsZero())

	valid := config.Static{ScanSince: "2026-01-15"}
	parsed, errValid := valid.ScanSinceTime()
	require.NoError(t, errValid)
	require.Equal(t, time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC), parsed)

	invalid := config.Static{ScanSince: "15/01/2026"}
	_, errInvalid := invalid.ScanSinceTime()
	require.ErrorIs(t, errInvalid, config.ErrScanSince)
}

func TestReadStaticDefaults(t *testing.T) {
	conf, errRead := config.ReadStatic("")
	require.NoError(t, errRead)
	require.Equal(t, 6799, conf.HTTPPort)
	require.Equal(t, 20, conf.ScanWindowSize)
	require.Equal(t, 10, conf.RiotRatePerSec)
	require.True(t, conf.DatabaseAutoMigrate)
	require.NotEmpty(t, conf.HTTPCookieKey)
}
