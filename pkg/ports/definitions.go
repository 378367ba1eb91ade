package ports

import (
	"context"

	"github.com/wadjakorntonsri/go-link-redirector/pkg/core/domain"
)

// LinkRepository defines storage operations for links, statistics and settings.
// Every implementation bounds each call with the data store deadline.
type LinkRepository interface {
	InsertLink(ctx context.Context, id, targetURL string) (*domain.Link, error)
	UpdateLink(ctx context.Context, id, targetURL string) (*domain.Link, error)
	FindLink(ctx context.Context, id string) (*domain.Link, error) // nil, nil when absent
	ListLinks(ctx context.Context) ([]domain.Link, error)

	// Stats
	RecordStatistic(ctx context.Context, event domain.LinkStatisticEvent) error
	AggregateStatistics(ctx context.Context, linkID string) ([]domain.CountedLinkStatistic, error)

	// Settings
	GetSettings(ctx context.Context) (*domain.AuthSettings, error)
	SaveSettings(ctx context.Context, settings domain.AuthSettings) error

	Close() error
}

// LinkService defines the business logic operations
type LinkService interface {
	Create(ctx context.Context, targetURL string) (*domain.Link, error)
	Update(ctx context.Context, id, targetURL string) (*domain.Link, error)
	Resolve(ctx context.Context, id string) (*domain.Link, error)
	RecordStatistic(ctx context.Context, linkID, referer, userAgent string)
	Statistics(ctx context.Context, linkID string) ([]domain.CountedLinkStatistic, error)
}

// AuthService checks a presented API key against the stored digest.
type AuthService interface {
	Authenticate(ctx context.Context, apiKey string) error
}

// Metrics is the counter sink used by the HTTP layer.
type Metrics interface {
	UnauthenticatedCall(route string)
	RequestError(class string)
}
