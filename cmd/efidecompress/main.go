package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/woozymasta/efidecompress"
	"github.com/woozymasta/efidecompress/cache"
	"github.com/woozymasta/efidecompress/internal/config"
)

func main() {
	cfg, err := config.NewConfig(os.Args[1:])
	if err != nil {
		fmt.Println("ERROR: ", err)
		os.Exit(1)
	}

	logrus.SetLevel(cfg.LogLevel())
	if cfg.CLI.Debug {
		logrus.Info("debug mode enabled")
	}

	displayConfig(cfg)

	if err := run(cfg); err != nil {
		logrus.Errorf("%s failed: %s", cfg.CLI.Ctx.Command(), err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	log := logrus.StandardLogger()
	opts := cfg.Options(log)

	switch cfg.CLI.Ctx.Command() {
	case "info <files>":
		return runInfo(cfg.CLI.Info.Files)
	case "decompress <file>":
		return runDecompress(cfg, opts)
	case "batch <files>":
		return runBatch(cfg, opts)
	default:
		return errors.Errorf("unknown command %q", cfg.CLI.Ctx.Command())
	}
}

func runInfo(files []string) error {
	for _, file := range files {
		src, err := os.ReadFile(file)
		if err != nil {
			return errors.Wrapf(err, "unable to read %s", file)
		}

		info, err := efidecompress.GetInfo(src)
		if err != nil {
			return errors.Wrapf(err, "bad header in %s", file)
		}

		logrus.WithFields(logrus.Fields{
			"file":          file,
			"compressed":    info.CompressedSize,
			"original":      info.OriginalSize,
			"trailing_data": len(src) - efidecompress.HeaderSize - int(info.CompressedSize),
		}).Info("header")
	}

	return nil
}

func runDecompress(cfg *config.Config, opts *efidecompress.Options) error {
	in := cfg.CLI.Decompress.File
	out := cfg.CLI.Decompress.Output
	if out == "" {
		out = in + ".bin"
	}

	src, err := os.ReadFile(in)
	if err != nil {
		return errors.Wrapf(err, "unable to read %s", in)
	}

	data, err := efidecompress.DecompressBytes(src, opts)
	if err != nil {
		return errors.Wrapf(err, "unable to decompress %s", in)
	}

	if err := os.WriteFile(out, data, 0o644); err != nil {
		return errors.Wrapf(err, "unable to write %s", out)
	}

	logrus.WithFields(logrus.Fields{
		"input":  in,
		"output": out,
		"size":   len(data),
		"xxh64":  fmt.Sprintf("%016x", xxhash.Sum64(data)),
	}).Info("decompressed")

	return nil
}

func runBatch(cfg *config.Config, opts *efidecompress.Options) error {
	files := cfg.CLI.Batch.Files
	srcs := make([][]byte, len(files))
	for i, file := range files {
		src, err := os.ReadFile(file)
		if err != nil {
			return errors.Wrapf(err, "unable to read %s", file)
		}
		srcs[i] = src
	}

	outs, err := decompressAll(cfg, opts, srcs)
	if err != nil {
		return errors.Wrap(err, "batch decompression failed")
	}

	if err := os.MkdirAll(cfg.CLI.Batch.OutDir, 0o755); err != nil {
		return errors.Wrapf(err, "unable to create %s", cfg.CLI.Batch.OutDir)
	}

	for i, file := range files {
		name := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file)) + ".bin"
		out := filepath.Join(cfg.CLI.Batch.OutDir, name)
		if err := os.WriteFile(out, outs[i], 0o644); err != nil {
			return errors.Wrapf(err, "unable to write %s", out)
		}

		logrus.WithFields(logrus.Fields{
			"input":  file,
			"output": out,
			"size":   len(outs[i]),
			"xxh64":  fmt.Sprintf("%016x", xxhash.Sum64(outs[i])),
		}).Info("decompressed")
	}

	return nil
}

// decompressAll routes a batch through one shared cache unless caching is disabled,
// so repeated sections across the input files decode once.
func decompressAll(cfg *config.Config, opts *efidecompress.Options, srcs [][]byte) ([][]byte, error) {
	if cfg.TOML.Config.CacheEntries <= 0 {
		return efidecompress.DecompressAll(context.Background(), srcs, opts)
	}

	d := cache.New(cfg.TOML.Config.CacheEntries, opts)
	outs, err := d.DecompressAll(context.Background(), srcs)
	if err != nil {
		return nil, err
	}

	hits, misses := d.Stats()
	logrus.WithFields(logrus.Fields{"hits": hits, "misses": misses}).Debug("section cache")

	return outs, nil
}

func displayConfig(cfg *config.Config) {
	if cfg == nil {
		return
	}

	logrus.Debug("efidecompress settings:")
	logrus.Debug("  [CLI]")
	logrus.Debugf("  version: %s", config.VERSION)
	logrus.Debugf("  command: %s", cfg.CLI.Ctx.Command())
	logrus.Debugf("  debug: %v", cfg.CLI.Debug)
	logrus.Debugf("  quiet: %v", cfg.CLI.Quiet)
	logrus.Debugf("  config file: %s", cfg.CLI.ConfigFile)
	logrus.Debug("")
	logrus.Debug("  [CONFIG]")
	logrus.Debugf("  config.log_level: %s", cfg.TOML.Config.LogLevel)
	logrus.Debugf("  config.variant: %s", cfg.TOML.Config.Variant)
	logrus.Debugf("  config.concurrency: %d", cfg.TOML.Config.Concurrency)
	logrus.Debugf("  config.cache_entries: %d", cfg.TOML.Config.CacheEntries)
	logrus.Debugf("  config.max_original_size: %d", cfg.TOML.Config.MaxOriginalSize)
}
