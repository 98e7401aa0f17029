package mirror

import (
	"context"

	"vendas/internal/core"
)

// SaleAppender is the port for outbound mirror adapters. Implementations
// append recorded sales to an external, append-only copy of the ledger.
type SaleAppender interface {
	Append(ctx context.Context, row core.SaleRow) (rowRef string, err error)
}
