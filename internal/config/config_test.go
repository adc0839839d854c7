package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/woozymasta/efidecompress"
)

func tempFile(t *testing.T, name, contents string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(contents), 0o600))

	return p
}

func TestNewConfigDefaults(t *testing.T) {
	in := tempFile(t, "section.bin", "x")

	cfg, err := NewConfig([]string{"info", in})
	require.NoError(t, err)
	require.Equal(t, "info <files>", cfg.CLI.Ctx.Command())
	require.Equal(t, DefaultLogLevel, cfg.TOML.Config.LogLevel)
	require.Equal(t, DefaultVariant, cfg.TOML.Config.Variant)
	require.Equal(t, DefaultCacheEntries, cfg.TOML.Config.CacheEntries)
	require.Equal(t, logrus.InfoLevel, cfg.LogLevel())

	opts := cfg.Options(logrus.New())
	require.Equal(t, efidecompress.VariantEFI, opts.Variant)
	require.Nil(t, opts.Logger)
}

func TestNewConfigFromTOML(t *testing.T) {
	in := tempFile(t, "section.bin", "x")
	conf := tempFile(t, "config.toml", `
[config]
log_level = "debug"
variant = "tiano"
concurrency = 3
cache_entries = -1
max_original_size = 4096
`)

	cfg, err := NewConfig([]string{"-c", conf, "decompress", in, "-o", in + ".out"})
	require.NoError(t, err)
	require.Equal(t, "decompress <file>", cfg.CLI.Ctx.Command())
	require.Equal(t, in+".out", cfg.CLI.Decompress.Output)
	require.Equal(t, -1, cfg.TOML.Config.CacheEntries)

	log := logrus.New()
	opts := cfg.Options(log)
	require.Equal(t, efidecompress.VariantTiano, opts.Variant)
	require.Equal(t, 3, opts.Concurrency)
	require.Equal(t, uint32(4096), opts.MaxOriginalSize)
	require.NotNil(t, opts.Logger)
}

func TestCLIOverridesTOML(t *testing.T) {
	in := tempFile(t, "section.bin", "x")
	conf := tempFile(t, "config.toml", "[config]\nvariant = \"tiano\"\n")

	cfg, err := NewConfig([]string{"-c", conf, "--variant", "efi", "-q", "info", in})
	require.NoError(t, err)
	require.Equal(t, "efi", cfg.TOML.Config.Variant)
	require.Equal(t, logrus.ErrorLevel, cfg.LogLevel())
}

func TestNewConfigRejectsBadValues(t *testing.T) {
	in := tempFile(t, "section.bin", "x")

	cases := map[string]string{
		"variant":       "[config]\nvariant = \"lzma\"\n",
		"log level":     "[config]\nlog_level = \"loud\"\n",
		"concurrency":   "[config]\nconcurrency = 5000\n",
		"cache entries": "[config]\ncache_entries = -7\n",
		"max size":      "[config]\nmax_original_size = -1\n",
		"syntax":        "[config\n",
	}
	for name, contents := range cases {
		t.Run(name, func(t *testing.T) {
			conf := tempFile(t, "config.toml", contents)
			_, err := NewConfig([]string{"-c", conf, "info", in})
			require.Error(t, err)
		})
	}
}

func TestDebugAndQuietConflict(t *testing.T) {
	in := tempFile(t, "section.bin", "x")

	_, err := NewConfig([]string{"-d", "-q", "info", in})
	require.Error(t, err)
}

func TestMissingInputFile(t *testing.T) {
	_, err := NewConfig([]string{"info", filepath.Join(t.TempDir(), "nope.bin")})
	require.Error(t, err)
}
