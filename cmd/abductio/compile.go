package main

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"time"

	"github.com/gitrdm/abductio/internal/metrics"
	"github.com/gitrdm/abductio/pkg/kb"
	"github.com/gitrdm/abductio/pkg/term"
)

// runCompile implements -m compile: parse every input file's (B ...)
// blocks into predicates and rules, and write a fresh KB directory at
// o.kbPath.
func runCompile(o options, paths []string) error {
	if o.kbPath == "" {
		return fmt.Errorf("-k is required in compile mode")
	}
	if len(paths) == 0 {
		return fmt.Errorf("compile mode requires at least one input file")
	}
	if err := os.MkdirAll(o.kbPath, 0o755); err != nil {
		return fmt.Errorf("creating KB directory: %w", err)
	}

	start := time.Now()
	ctx, cancel := phaseContext(context.Background(), o.timeouts.All)
	defer cancel()

	in := term.NewInterner()
	doc, err := loadDocument(o.log, in, nil, o.flags["strict"], paths)
	if err != nil {
		return err
	}

	cfg, err := kbConfigFromOptions(o)
	if err != nil {
		return err
	}

	store, err := kb.OpenCompile(o.kbPath, in, cfg)
	if err != nil {
		return err
	}

	for id, p := range doc.Predicates {
		if _, err := store.AddPredicate(p, doc.Flags[id]); err != nil {
			return fmt.Errorf("registering predicate %s: %w", p, err)
		}
	}
	for _, rule := range doc.Rules {
		if _, err := store.AddRule(rule); err != nil {
			return fmt.Errorf("adding rule %q: %w", rule.Name, err)
		}
	}

	workers := runtime.NumCPU()
	if s, ok := o.params["workers"]; ok {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			return fmt.Errorf("-p workers: invalid value %q", s)
		}
		workers = n
	}

	if err := store.Finalize(ctx, workers); err != nil {
		return fmt.Errorf("finalizing KB: %w", err)
	}

	elapsed := time.Since(start)
	metrics.ObservePhase(metrics.PhaseCompile, elapsed)
	o.log.Info("compiled KB", "rules", len(doc.Rules), "predicates", len(doc.Predicates), "elapsed", elapsed)
	return nil
}
