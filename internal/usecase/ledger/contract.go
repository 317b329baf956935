package ledger

import (
	"context"

	"github.com/kailas-cloud/streamscout/internal/domain"
)

// store is the durable tag ledger (ISP).
type store interface {
	FindByNames(ctx context.Context, ns domain.Namespace, names []string) ([]domain.Tag, error)
	SaveTags(ctx context.Context, tags []domain.Tag) error
}
