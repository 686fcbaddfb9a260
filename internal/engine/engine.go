// FILENAME: internal/engine/engine.go
package engine

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/xkilldash9x/owasp-driver/internal/config"
	"github.com/xkilldash9x/owasp-driver/internal/models"
	"github.com/xkilldash9x/owasp-driver/internal/sync/barrier"
	"go.uber.org/zap"
)

// Run generates plan.Iterations probes and submits them from plan.Workers
// goroutines, streaming one result per probe. Run closes results.
// Per-probe failures land in the result; only setup failures return an error.
func (d *Driver) Run(ctx context.Context, plan Plan, results chan<- models.ScanResult) error {
	defer close(results)
	start := time.Now()

	if err := plan.Validate(); err != nil {
		return err
	}

	classifier, err := NewClassifier(config.NoveltyCacheSize)
	if err != nil {
		return fmt.Errorf("classifier init error: %w", err)
	}

	target, err := d.Factory.NewTarget(plan.Target, d.Logger)
	if err != nil {
		return fmt.Errorf("target init error: %w", err)
	}
	defer target.Close()

	workers := plan.Workers
	if workers > plan.Iterations {
		workers = plan.Iterations
	}

	d.Logger.Info("Starting run",
		zap.String("url", plan.Target.URL),
		zap.Int("iterations", plan.Iterations),
		zap.Int("workers", workers),
		zap.Uint64("seed", plan.Seed),
		zap.String("source", plan.SourceKind),
		zap.Int("length", plan.Length),
		zap.Bool("burst", plan.Burst),
	)

	var gate *barrier.SpinBarrier
	if plan.Burst {
		gate = barrier.NewSpinBarrier(workers)
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()

			if gate != nil {
				if err := gate.Await(ctx); err != nil {
					return
				}
			}

			for idx := range jobs {
				res := d.execute(ctx, target, plan, idx)
				if res.Meta[MetaStage] != StageGenerate {
					classifier.Classify(&res)
				}
				select {
				case results <- res:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	if gate != nil {
		if err := gate.WaitReady(ctx); err == nil {
			d.Logger.Debug("Releasing burst", zap.Int("workers", workers))
		}
		gate.Release()
	}

	var runErr error
feed:
	for i := 0; i < plan.Iterations; i++ {
		if ctx.Err() != nil {
			runErr = ctx.Err()
			break
		}
		select {
		case jobs <- i:
		case <-ctx.Done():
			runErr = ctx.Err()
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	d.Logger.Info("Run complete",
		zap.Duration("total_duration", time.Since(start)),
		zap.Int("distinct_responses", classifier.Len()),
		zap.Error(runErr),
	)
	return runErr
}

// Replay regenerates probe index of plan and submits it alone.
func (d *Driver) Replay(ctx context.Context, plan Plan, index int) (models.ScanResult, error) {
	if err := plan.Validate(); err != nil {
		return models.ScanResult{}, err
	}
	if index < 0 || index >= plan.Iterations {
		return models.ScanResult{}, fmt.Errorf("%w: index %d outside [0, %d)", ErrInvalidPlan, index, plan.Iterations)
	}

	target, err := d.Factory.NewTarget(plan.Target, d.Logger)
	if err != nil {
		return models.ScanResult{}, fmt.Errorf("target init error: %w", err)
	}
	defer target.Close()

	res := d.execute(ctx, target, plan, index)
	d.Logger.Info("Replayed probe", zap.Int("index", index), zap.String("result", res.String()))
	return res, nil
}

// execute generates and submits one probe.
func (d *Driver) execute(ctx context.Context, target Target, plan Plan, idx int) models.ScanResult {
	probe, err := BuildProbe(plan, idx)
	if err != nil {
		d.Logger.Warn("Probe generation failed", zap.Int("index", idx), zap.Error(err))
		res := models.NewScanResult(idx, 0, 0, nil, err)
		res.Meta[MetaStage] = StageGenerate
		return res
	}

	reqStart := time.Now()
	resp, err := target.Submit(ctx, probe)
	if err != nil {
		d.Logger.Debug("Submit failed", zap.Int("index", idx), zap.Error(err))
		return models.NewScanResult(idx, 0, time.Since(reqStart), nil, err).WithPayload(probe)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, config.MaxResponseBody))
	duration := time.Since(reqStart)
	if err != nil {
		return models.NewScanResult(idx, resp.StatusCode, duration, nil, fmt.Errorf("read body: %w", err)).WithPayload(probe)
	}
	return models.NewScanResult(idx, resp.StatusCode, duration, body, nil).WithPayload(probe)
}
