package configuration

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestLoadEnv_ReadsExistingFiles(t *testing.T) {
	tmp := t.TempDir()
	requireWriteFile(t, filepath.Join(tmp, ".env.local"), "GRUUV_TEST_ENV_LOAD=ok\n")

	origWd, err := os.Getwd()
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.Chdir(origWd) })
	require.NoError(t, os.Chdir(tmp))

	_ = os.Unsetenv("GRUUV_TEST_ENV_LOAD")

	n, err := LoadEnv([]string{".env", ".env.local"})
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Equal(t, "ok", os.Getenv("GRUUV_TEST_ENV_LOAD"))
}

func TestLoadEnv_NoFiles(t *testing.T) {
	tmp := t.TempDir()

	origWd, err := os.Getwd()
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.Chdir(origWd) })
	require.NoError(t, os.Chdir(tmp))

	n, err := LoadEnv([]string{".env", ".env.local"})
	require.NoError(t, err)
	require.Equal(t, 0, n)
}

func TestEconomyOptions_ParseDefaults(t *testing.T) {
	opts := EconomyOptions{
		PointGranularity:        "0.5",
		KickbackMultiplier:      "0.2",
		ConstructiveKickback:    "1",
		WeeklyGuaranteedMinimum: "10",
		ConflictRetries:         3,
	}
	require.NoError(t, opts.parse())
	require.True(t, opts.Granularity().Equal(decimal.RequireFromString("0.5")))
	require.True(t, opts.RecognitionMultiplier().Equal(decimal.RequireFromString("0.2")))
	require.True(t, opts.ConstructiveFlat().Equal(decimal.NewFromInt(1)))
	require.True(t, opts.WeeklyMinimum().Equal(decimal.NewFromInt(10)))
}

func TestEconomyOptions_ParseRejectsBadValues(t *testing.T) {
	opts := EconomyOptions{
		PointGranularity:        "0",
		KickbackMultiplier:      "0.2",
		ConstructiveKickback:    "1",
		WeeklyGuaranteedMinimum: "10",
		ConflictRetries:         3,
	}
	require.Error(t, opts.parse())

	opts.PointGranularity = "not-a-number"
	require.Error(t, opts.parse())

	opts.PointGranularity = "0.5"
	opts.ConflictRetries = 0
	require.Error(t, opts.parse())
}

func requireWriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
