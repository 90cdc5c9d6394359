// Package probes implements file based readiness and liveness probes for Kubernetes exec checks.
package probes

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/abgdnv/inventory/pkg/config"
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
	return touch(p.cfg.ReadinessFileName)
}

// RunLiveness refreshes the liveness file every interval until ctx is done, then removes both files.
func (p *Probes) RunLiveness(ctx context.Context) error {
	defer p.clear()
	if err := touch(p.cfg.LivenessFileName); err != nil {
		return err
	}
	ticker := time.NewTicker(p.cfg.LivenessInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := touch(p.cfg.LivenessFileName); err != nil {
				p.logger.ErrorContext(ctx, "failed to refresh liveness file", "error", err)
			}
		}
	}
}

func (p *Probes) clear() {
	for _, name := range []string{p.cfg.ReadinessFileName, p.cfg.LivenessFileName} {
		if err := os.Remove(name); err != nil && !errors.Is(err, fs.ErrNotExist) {
			p.logger.Warn("failed to remove probe file", "file", name, "error", err)
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
		return fmt.Errorf("failed to create probe file: %w", err)
	}
	return f.Close()
}
