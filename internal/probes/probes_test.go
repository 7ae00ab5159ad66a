package probes

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/abgdnv/shopcart/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProbes(t *testing.T) (*Probes, config.ProbesConfig) {
	t.Helper()
	dir := t.TempDir()
	cfg := config.ProbesConfig{
		ReadinessFileName: filepath.Join(dir, "ready"),
		LivenessFileName:  filepath.Join(dir, "live"),
		LivenessInterval:  10 * time.Millisecond,
	}
	return New(cfg, slog.New(slog.NewTextHandler(io.Discard, nil))), cfg
}

func Test_Probes_Readiness(t *testing.T) {
	// given
	p, cfg := newProbes(t)

	// when
	require.NoError(t, p.MarkReady())

	// then
	assert.FileExists(t, cfg.ReadinessFileName)

	// when
	p.MarkNotReady()
	p.MarkNotReady()

	// then
	assert.NoFileExists(t, cfg.ReadinessFileName)
}

func Test_Probes_Liveness(t *testing.T) {
	// given
	p, cfg := newProbes(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)

	// when
	go func() { done <- p.RunLiveness(ctx) }()

	// then
	require.Eventually(t, func() bool {
		_, err := os.Stat(cfg.LivenessFileName)
		return err == nil
	}, time.Second, 5*time.Millisecond)
	first, err := os.Stat(cfg.LivenessFileName)
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		info, err := os.Stat(cfg.LivenessFileName)
		return err == nil && info.ModTime().After(first.ModTime())
	}, time.Second, 5*time.Millisecond, "liveness file should be touched")

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
	assert.NoFileExists(t, cfg.LivenessFileName)
}
