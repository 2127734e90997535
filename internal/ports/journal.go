package ports

import (
	"context"
	"time"

	"github.com/alejandrodnm/spreadbot/internal/domain"
)

// Journal is the append-only audit trail of cycles and accepted orders.
// The bot never reads it back into risk state.
type Journal interface {
	SaveCycle(ctx context.Context, summary domain.CycleSummary) error
	SaveOrder(ctx context.Context, order domain.JournalOrder) error
}

// JournalReader is used by the report mode only.
type JournalReader interface {
	RecentCycles(ctx context.Context, limit int) ([]domain.CycleSummary, error)
	OrdersSince(ctx context.Context, since time.Time) ([]domain.JournalOrder, error)
}
