// Package watch runs the periodic background audit over the block chain.
// The audit is diagnostic only: findings are logged and exported as
// metrics but never block ledger operations.
package watch

import (
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/starnotary/starchain/internal/chain"
)

// Config holds audit loop configuration.
type Config struct {
	Interval time.Duration
}

// MetricsRecordFunc is an optional callback for recording audit results.
type MetricsRecordFunc func(valid bool)

// Watcher periodically re-validates the whole chain.
type Watcher struct {
	ledger    *chain.Ledger
	cfg       Config
	onMetrics MetricsRecordFunc
	logger    *zap.Logger

	mu     sync.Mutex
	faulty bool
}

// New creates a new Watcher.
func New(ledger *chain.Ledger, cfg Config, logger *zap.Logger) *Watcher {
	if cfg.Interval == 0 {
		cfg.Interval = 10 * time.Minute
	}
	return &Watcher{ledger: ledger, cfg: cfg, logger: logger}
}

// SetMetricsRecord configures the metrics recording callback.
func (w *Watcher) SetMetricsRecord(fn MetricsRecordFunc) {
	w.onMetrics = fn
}

// Start runs the audit loop until quit is signalled.
func (w *Watcher) Start(quit <-chan os.Signal) {
	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.RunOnce()
		case <-quit:
			return
		}
	}
}

// RunOnce performs one full-chain audit and returns its findings. The
// first faulty pass logs every finding at error level; while the chain
// stays faulty, repeat passes log a single warning so a tampered chain
// does not flood the log.
func (w *Watcher) RunOnce() []chain.Fault {
	faults := w.ledger.Validate()
	valid := len(faults) == 0

	if w.onMetrics != nil {
		w.onMetrics(valid)
	}

	w.mu.Lock()
	wasFaulty := w.faulty
	w.faulty = !valid
	w.mu.Unlock()

	switch {
	case valid:
		w.logger.Info("chain audit clean",
			zap.Int("height", w.ledger.Height()),
			zap.String("tip", w.ledger.Tip().Hash),
		)
	case wasFaulty:
		w.logger.Warn("chain audit still faulty", zap.Int("faults", len(faults)))
	default:
		for _, f := range faults {
			w.logger.Error("chain audit fault",
				zap.String("kind", string(f.Kind)),
				zap.Int("height", f.Height),
				zap.String("hash", f.Hash),
				zap.String("detail", f.Detail),
			)
		}
	}

	return faults
}
