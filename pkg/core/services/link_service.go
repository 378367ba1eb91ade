package services

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/wadjakorntonsri/go-link-redirector/pkg/core/domain"
	"github.com/wadjakorntonsri/go-link-redirector/pkg/logging"
	"github.com/wadjakorntonsri/go-link-redirector/pkg/ports"
)

type LinkService struct {
	repo   ports.LinkRepository
	newID  IDGenerator
	logger *slog.Logger
}

// Option configures a LinkService.
type Option func(*LinkService)

// WithIDGenerator replaces GenerateID.
func WithIDGenerator(gen IDGenerator) Option {
	return func(s *LinkService) { s.newID = gen }
}

func NewLinkService(repo ports.LinkRepository, logger *slog.Logger, opts ...Option) *LinkService {
	s := &LinkService{repo: repo, newID: GenerateID, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create validates targetURL and stores it under a freshly generated id.
func (s *LinkService) Create(ctx context.Context, targetURL string) (*domain.Link, error) {
	normalized, err := NormalizeURL(targetURL)
	if err != nil {
		return nil, err
	}

	id, err := s.newID()
	if err != nil {
		return nil, fmt.Errorf("generate id: %w", err)
	}

	return s.repo.InsertLink(ctx, id, normalized)
}

// Update replaces the target of an existing link. There is no existence
// pre-check: an unknown id fails in the repository.
func (s *LinkService) Update(ctx context.Context, id, targetURL string) (*domain.Link, error) {
	normalized, err := NormalizeURL(targetURL)
	if err != nil {
		return nil, err
	}
	return s.repo.UpdateLink(ctx, id, normalized)
}

// Resolve returns the link for id or domain.ErrLinkNotFound.
func (s *LinkService) Resolve(ctx context.Context, id string) (*domain.Link, error) {
	link, err := s.repo.FindLink(ctx, id)
	if err != nil {
		return nil, err
	}
	if link == nil {
		return nil, domain.ErrLinkNotFound
	}
	return link, nil
}

// RecordStatistic stores one usage event. Failures are logged and dropped.
func (s *LinkService) RecordStatistic(ctx context.Context, linkID, referer, userAgent string) {
	event := domain.LinkStatisticEvent{
		LinkID:    linkID,
		Referer:   orNotInformed(referer),
		UserAgent: orNotInformed(userAgent),
	}

	if err := s.repo.RecordStatistic(ctx, event); err != nil {
		logging.FromContext(ctx, s.logger).Error("failed to record link statistic",
			"link_id", linkID,
			"error", err)
	}
}

// Statistics returns the event counts of linkID grouped by referer and user agent.
func (s *LinkService) Statistics(ctx context.Context, linkID string) ([]domain.CountedLinkStatistic, error) {
	stats, err := s.repo.AggregateStatistics(ctx, linkID)
	if err != nil {
		return nil, err
	}
	if stats == nil {
		stats = []domain.CountedLinkStatistic{}
	}
	return stats, nil
}

// NormalizeURL accepts absolute URLs only and returns their canonical string.
// For http and https the host is lowercased, a default port is dropped, an
// empty path becomes "/" and the "http:host" shorthand is expanded.
func NormalizeURL(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrInvalidURL, err)
	}
	if !u.IsAbs() {
		return "", fmt.Errorf("%w: %q is not absolute", domain.ErrInvalidURL, raw)
	}

	port, special := defaultPorts[u.Scheme]
	if !special {
		return u.String(), nil
	}

	if u.Opaque != "" {
		u, err = url.Parse(u.Scheme + "://" + strings.TrimLeft(u.Opaque, "/") + querySuffix(u))
		if err != nil {
			return "", fmt.Errorf("%w: %v", domain.ErrInvalidURL, err)
		}
	}
	if u.Host == "" {
		return "", fmt.Errorf("%w: %q has no host", domain.ErrInvalidURL, raw)
	}

	u.Host = strings.ToLower(u.Host)
	if u.Port() == port {
		u.Host = strings.TrimSuffix(u.Host, ":"+port)
	}
	if u.Path == "" {
		u.Path = "/"
	}
	return u.String(), nil
}

var defaultPorts = map[string]string{"http": "80", "https": "443"}

func querySuffix(u *url.URL) string {
	var s string
	if u.RawQuery != "" || u.ForceQuery {
		s += "?" + u.RawQuery
	}
	if u.Fragment != "" {
		s += "#" + u.EscapedFragment()
	}
	return s
}

func orNotInformed(v string) string {
	if v == "" {
		return domain.NotInformed
	}
	return v
}

var _ ports.LinkService = (*LinkService)(nil)
