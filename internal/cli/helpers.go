package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/aretw0/dicetree/internal/logging"
	"github.com/aretw0/dicetree/pkg/expr"
	"github.com/aretw0/dicetree/pkg/schema"
)

// SignalContext wraps a context and captures the signal that cancelled it.
type SignalContext struct {
	context.Context
	Cancel func()
	start  sync.Once
	stop   sync.Once
	sigCh  chan os.Signal
	sigVal os.Signal
	mu     sync.Mutex
}

// NewSignalContext creates a context that is cancelled on SIGINT or SIGTERM.
// It acts as a drop-in replacement for signal.NotifyContext but allows retrieving the signal.
func NewSignalContext(parent context.Context) *SignalContext {
	ctx, cancel := context.WithCancel(parent)
	sc := &SignalContext{
		Context: ctx,
		Cancel:  cancel,
		sigCh:   make(chan os.Signal, 1),
	}

	sc.start.Do(func() {
		signal.Notify(sc.sigCh, os.Interrupt, syscall.SIGTERM)
		go func() {
			select {
			case sig := <-sc.sigCh:
				sc.mu.Lock()
				sc.sigVal = sig
				sc.mu.Unlock()
				sc.Cancel()
			case <-sc.Context.Done():
				// Context cancelled elsewhere
			}
			sc.stop.Do(func() {
				signal.Stop(sc.sigCh)
			})
		}()
	})

	return sc
}

// Signal returns the signal that caused the context to be cancelled, or nil.
func (sc *SignalContext) Signal() os.Signal {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.sigVal
}

// CreateLogger configures the application logger.
// Quiet discards everything; otherwise records at or above level go to Stderr in format
// ("text" or "json").
func CreateLogger(level slog.Level, format string, quiet bool) *slog.Logger {
	if quiet {
		return logging.NewNop()
	}
	return logging.NewFormat(os.Stderr, level, format)
}

// LoadExpression reads an expression document. arg is "-" for stdin, a path to a YAML or
// JSON file, or the document itself.
func LoadExpression(arg string, stdin io.Reader) (expr.Node, error) {
	var data []byte
	switch {
	case arg == "-":
		b, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		data = b
	case isFile(arg):
		b, err := os.ReadFile(arg)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", arg, err)
		}
		data = b
	default:
		data = []byte(arg)
	}
	if strings.TrimSpace(string(data)) == "" {
		return nil, fmt.Errorf("empty expression document")
	}
	return schema.Load(data)
}

func isFile(path string) bool {
	if strings.ContainsAny(path, "{\n") {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
