// Package probes maintains marker files for exec-style readiness and liveness probes.
package probes

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/abgdnv/shopcart/pkg/config"
)

type Probes struct {
	cfg    config.ProbesConfig
	logger *slog.Logger
}

func New(cfg config.ProbesConfig, logger *slog.Logger) *Probes {
	return &Probes{cfg: cfg, logger: logger.With("component", "probes")}
}

// MarkReady creates the readiness file.
func (p *Probes) MarkReady() error {
	if err := touch(p.cfg.ReadinessFileName); err != nil {
		return fmt.Errorf("failed to create readiness file: %w", err)
	}
	p.logger.Info("Marked ready", "file", p.cfg.ReadinessFileName)
	return nil
}

// MarkNotReady removes the readiness file.
func (p *Probes) MarkNotReady() {
	remove(p.cfg.ReadinessFileName, p.logger)
}

// RunLiveness touches the liveness file every interval until ctx is done, then removes it.
func (p *Probes) RunLiveness(ctx context.Context) error {
	defer remove(p.cfg.LivenessFileName, p.logger)
	if err := touch(p.cfg.LivenessFileName); err != nil {
		return fmt.Errorf("failed to create liveness file: %w", err)
	}
	ticker := time.NewTicker(p.cfg.LivenessInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := touch(p.cfg.LivenessFileName); err != nil {
				p.logger.Error("Failed to touch liveness file", "error", err)
			}
		}
	}
}

func touch(name string) error {
	now := time.Now()
	if err := os.Chtimes(name, now, now); err == nil {
		return nil
	}
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	return f.Close()
}

func remove(name string, logger *slog.Logger) {
	if err := os.Remove(name); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Error("Failed to remove probe file", "file", name, "error", err)
	}
}
