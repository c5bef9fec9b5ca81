package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"conformcheck/internal/rules"

	"golang.org/x/sync/errgroup"
)

type Scheduler struct {
	evaluator   *Evaluator
	concurrency int
}

func NewScheduler(ev *Evaluator, concurrency int) (*Scheduler, error) {
	if ev == nil {
		return nil, errors.New("evaluator is nil")
	}
	if concurrency <= 0 {
		return nil, fmt.Errorf("concurrency must be >= 1, got %d", concurrency)
	}
	return &Scheduler{evaluator: ev, concurrency: concurrency}, nil
}

// Execute evaluates table on up to s.concurrency goroutines and calls emit
// once per rule, strictly in table order, as soon as every earlier rule has
// been emitted. emit is never called concurrently.
//
// On context cancellation no further rules are started; rules already running
// finish and are emitted if their predecessors were, and ctx.Err() is returned.
func (s *Scheduler) Execute(ctx context.Context, table []rules.Rule, emit func(i int, res rules.Result)) error {
	if ctx == nil {
		return errors.New("context is nil")
	}
	if s == nil || s.evaluator == nil {
		return errors.New("scheduler is not initialized (use NewScheduler)")
	}
	if emit == nil {
		emit = func(int, rules.Result) {}
	}

	var (
		mu      sync.Mutex
		results = make([]rules.Result, len(table))
		ready   = make([]bool, len(table))
		next    int
	)
	publish := func(i int, res rules.Result) {
		mu.Lock()
		defer mu.Unlock()
		results[i] = res
		ready[i] = true
		for next < len(table) && ready[next] {
			emit(next, results[next])
			next++
		}
	}

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, rule := range table {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			publish(i, s.evaluator.Evaluate(ctx, rule))
			return nil
		})
	}
	_ = g.Wait()

	return ctx.Err()
}
