package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"github.com/woozymasta/efidecompress"
	"github.com/woozymasta/efidecompress/internal/config"
	"github.com/woozymasta/efidecompress/internal/encoder"
)

func writeSection(t *testing.T, dir, name string, raw []byte) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, encoder.Compress(raw, nil), 0o600))

	return p
}

func runArgs(t *testing.T, args ...string) (*test.Hook, error) {
	t.Helper()
	hook := test.NewGlobal()
	level := logrus.GetLevel()
	logrus.SetLevel(logrus.DebugLevel)
	t.Cleanup(func() {
		logrus.SetLevel(level)
		logrus.StandardLogger().ReplaceHooks(make(logrus.LevelHooks))
	})

	cfg, err := config.NewConfig(args)
	require.NoError(t, err)

	return hook, run(cfg)
}

func entry(hook *test.Hook, msg string) *logrus.Entry {
	for _, e := range hook.AllEntries() {
		if e.Message == msg {
			return e
		}
	}

	return nil
}

func TestRunInfo(t *testing.T) {
	raw := bytes.Repeat([]byte("header "), 12)
	in := writeSection(t, t.TempDir(), "a.efi", raw)

	hook, err := runArgs(t, "info", in)
	require.NoError(t, err)

	e := entry(hook, "header")
	require.NotNil(t, e)
	require.Equal(t, uint32(len(raw)), e.Data["original"])
	require.Equal(t, 0, e.Data["trailing_data"])
}

func TestRunDecompressDefaultOutput(t *testing.T) {
	raw := bytes.Repeat([]byte("payload "), 40)
	in := writeSection(t, t.TempDir(), "a.efi", raw)

	_, err := runArgs(t, "decompress", in)
	require.NoError(t, err)

	got, err := os.ReadFile(in + ".bin")
	require.NoError(t, err)
	require.Equal(t, raw, got)
}

func TestRunDecompressRejectsCorruptInput(t *testing.T) {
	in := filepath.Join(t.TempDir(), "bad.efi")
	require.NoError(t, os.WriteFile(in, []byte{1, 2, 3}, 0o600))

	_, err := runArgs(t, "decompress", in, "-o", in+".out")
	require.ErrorIs(t, err, efidecompress.ErrMalformedHeader)

	_, statErr := os.Stat(in + ".out")
	require.True(t, os.IsNotExist(statErr))
}

func TestRunBatchSharesCache(t *testing.T) {
	dir := t.TempDir()
	outDir := filepath.Join(dir, "out")
	a := bytes.Repeat([]byte("volume a "), 30)
	b := bytes.Repeat([]byte("volume b "), 20)
	files := []string{
		writeSection(t, dir, "a.efi", a),
		writeSection(t, dir, "b.efi", b),
		writeSection(t, dir, "c.efi", a),
	}

	hook, err := runArgs(t, append([]string{"batch", "-O", outDir}, files...)...)
	require.NoError(t, err)

	for name, want := range map[string][]byte{"a.bin": a, "b.bin": b, "c.bin": a} {
		got, err := os.ReadFile(filepath.Join(outDir, name))
		require.NoError(t, err)
		require.Equal(t, want, got, name)
	}

	e := entry(hook, "section cache")
	require.NotNil(t, e)
	require.Equal(t, uint64(1), e.Data["hits"])
	require.Equal(t, uint64(2), e.Data["misses"])
}

func TestRunBatchWithoutCache(t *testing.T) {
	dir := t.TempDir()
	conf := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(conf, []byte("[config]\ncache_entries = -1\n"), 0o600))
	raw := []byte("uncached")
	in := writeSection(t, dir, "a.efi", raw)

	hook, err := runArgs(t, "-c", conf, "batch", "-O", dir, in)
	require.NoError(t, err)
	require.Nil(t, entry(hook, "section cache"))

	got, err := os.ReadFile(filepath.Join(dir, "a.bin"))
	require.NoError(t, err)
	require.Equal(t, raw, got)
}
