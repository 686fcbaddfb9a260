// FILENAME: internal/engine/interfaces.go
package engine

import (
	"context"
	"net/http"

	"github.com/xkilldash9x/owasp-driver/internal/models"
	"go.uber.org/zap"
)

// -- Interfaces --

// Target receives probes. It is the system under test as seen by the driver,
// typically a servlet-style POST handler behind HTTP.
// Implementations must be safe for concurrent Submit calls.
type Target interface {
	Submit(ctx context.Context, probe *models.Probe) (*http.Response, error)
	Close() error
}

// TargetFactory defines the interface for creating protocol-specific targets.
// Tests inject mocks here.
type TargetFactory interface {
	NewTarget(spec TargetSpec, logger *zap.Logger) (Target, error)
}

// -- Real Implementation --

// RealTargetFactory builds HTTP targets over h1, h2 or h3.
type RealTargetFactory struct{}

func (f *RealTargetFactory) NewTarget(spec TargetSpec, logger *zap.Logger) (Target, error) {
	return NewHTTPTarget(spec, logger)
}
