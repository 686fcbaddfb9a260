// FILENAME: internal/engine/planner.go
package engine

import (
	"fmt"

	"github.com/xkilldash9x/owasp-driver/internal/config"
	"github.com/xkilldash9x/owasp-driver/internal/models"
	"github.com/xkilldash9x/owasp-driver/internal/payload"
)

// ProbeSeed derives the seed for probe index. Each probe owns a source, so
// output does not depend on worker scheduling.
func ProbeSeed(base uint64, index int) uint64 {
	return base + uint64(index)
}

// BuildProbe is the pure generation step for probe index of the plan.
func BuildProbe(plan Plan, index int) (*models.Probe, error) {
	seed := ProbeSeed(plan.Seed, index)
	src, err := payload.NewSource(plan.SourceKind, seed)
	if err != nil {
		return nil, err
	}

	var p payload.Payload
	if plan.Length == config.VariableLength {
		p, err = payload.Variable(src)
	} else {
		p, err = payload.Fixed(src, plan.Length)
	}
	if err != nil {
		return nil, fmt.Errorf("probe %d: %w", index, err)
	}

	return &models.Probe{
		Index:   index,
		Seed:    seed,
		Payload: p.Bytes(),
	}, nil
}
