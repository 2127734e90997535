package ports

import (
	"context"

	"github.com/alejandrodnm/spreadbot/internal/domain"
)

// CycleReporter presents a finished cycle to the operator.
type CycleReporter interface {
	ReportCycle(ctx context.Context, summary domain.CycleSummary) error
}
