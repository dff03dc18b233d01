package analyzer

import (
	"context"

	"github.com/publicrust/rust-analyzer-sub000/pkg/plugin"
)

// ModelAnalyzer is the interface that all model-based analyzers implement.
// Analyzers consume the program model built from parsed plugin sources; the
// context can be used for cancellation.
type ModelAnalyzer[T any] interface {
	Analyze(ctx context.Context, model *plugin.Model) (T, error)
}
