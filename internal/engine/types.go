// FILENAME: internal/engine/types.go
package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/xkilldash9x/owasp-driver/internal/config"
	"github.com/xkilldash9x/owasp-driver/internal/payload"
	"go.uber.org/zap"
)

var (
	ErrUnsupportedProtocol = errors.New("unsupported protocol")
	ErrInvalidPlan         = errors.New("invalid plan")
)

// TargetSpec describes how probes reach the target.
type TargetSpec struct {
	URL                string
	Method             string
	Protocol           string // "h1", "h2", "h3"
	Delivery           string // "body" or "param"
	Param              string
	Headers            map[string]string
	Timeout            time.Duration
	InsecureSkipVerify bool
}

// Plan is a complete, reproducible description of a run.
type Plan struct {
	Iterations int
	Workers    int
	Seed       uint64
	SourceKind string
	// Length is the fixed payload size; config.VariableLength selects the variable generator.
	Length int
	Burst  bool
	Target TargetSpec
}

// PlanFromConfig maps a validated run file onto a plan.
func PlanFromConfig(c *config.Config) Plan {
	t := c.Target
	return Plan{
		Iterations: c.Run.Iterations,
		Workers:    c.Run.Workers,
		Seed:       c.Run.Seed,
		SourceKind: c.Run.Source,
		Length:     c.Run.Length,
		Burst:      c.Run.Burst,
		Target: TargetSpec{
			URL:                t.URL,
			Method:             t.Method,
			Protocol:           t.Protocol,
			Delivery:           t.Delivery,
			Param:              t.Param,
			Headers:            t.Headers,
			Timeout:            t.Timeout,
			InsecureSkipVerify: t.InsecureSkipVerify,
		},
	}
}

// Validate rejects plans that would fail every probe.
func (p Plan) Validate() error {
	if p.Iterations <= 0 {
		return fmt.Errorf("%w: iterations must be positive", ErrInvalidPlan)
	}
	if p.Workers <= 0 {
		return fmt.Errorf("%w: workers must be positive", ErrInvalidPlan)
	}
	if p.Length < config.VariableLength {
		return fmt.Errorf("%w: length %d: %w", ErrInvalidPlan, p.Length, payload.ErrInvalidArgument)
	}
	if _, err := payload.NewSource(p.SourceKind, p.Seed); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidPlan, err)
	}
	return nil
}

// Driver generates payloads and submits them to a target.
type Driver struct {
	Factory TargetFactory
	Logger  *zap.Logger
}

// NewDriver creates a driver with the provided factory.
func NewDriver(f TargetFactory, logger *zap.Logger) *Driver {
	return &Driver{
		Factory: f,
		Logger:  logger,
	}
}
