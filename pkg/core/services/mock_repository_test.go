package services

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/wadjakorntonsri/go-link-redirector/pkg/core/domain"
)

// mockRepository implements ports.LinkRepository in memory.
type mockRepository struct {
	mu       sync.Mutex
	links    map[string]string
	events   []domain.LinkStatisticEvent
	settings *domain.AuthSettings

	insertErr   error
	findErr     error
	recordErr   error
	settingsErr error
}

func newMockRepository() *mockRepository {
	return &mockRepository{links: make(map[string]string)}
}

func (m *mockRepository) InsertLink(_ context.Context, id, targetURL string) (*domain.Link, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return nil, m.insertErr
	}
	if _, ok := m.links[id]; ok {
		return nil, errors.New("duplicate key")
	}
	m.links[id] = targetURL
	return &domain.Link{ID: id, TargetURL: targetURL}, nil
}

func (m *mockRepository) UpdateLink(_ context.Context, id, targetURL string) (*domain.Link, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.links[id]; !ok {
		return nil, errors.New("no rows in result set")
	}
	m.links[id] = targetURL
	return &domain.Link{ID: id, TargetURL: targetURL}, nil
}

func (m *mockRepository) FindLink(_ context.Context, id string) (*domain.Link, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	target, ok := m.links[id]
	if !ok {
		return nil, nil
	}
	return &domain.Link{ID: id, TargetURL: target}, nil
}

func (m *mockRepository) ListLinks(_ context.Context) ([]domain.Link, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	links := make([]domain.Link, 0, len(m.links))
	for id, target := range m.links {
		links = append(links, domain.Link{ID: id, TargetURL: target})
	}
	sort.Slice(links, func(i, j int) bool { return links[i].ID < links[j].ID })
	return links, nil
}

func (m *mockRepository) RecordStatistic(_ context.Context, event domain.LinkStatisticEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.recordErr != nil {
		return m.recordErr
	}
	m.events = append(m.events, event)
	return nil
}

func (m *mockRepository) AggregateStatistics(_ context.Context, linkID string) ([]domain.CountedLinkStatistic, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := map[[2]string]int64{}
	for _, e := range m.events {
		if e.LinkID == linkID {
			counts[[2]string{e.Referer, e.UserAgent}]++
		}
	}
	var out []domain.CountedLinkStatistic
	for k, n := range counts {
		out = append(out, domain.CountedLinkStatistic{Amount: n, Referer: k[0], UserAgent: k[1]})
	}
	return out, nil
}

func (m *mockRepository) GetSettings(_ context.Context) (*domain.AuthSettings, error) {
	if m.settingsErr != nil {
		return nil, m.settingsErr
	}
	if m.settings == nil {
		return nil, errors.New("no rows in result set")
	}
	return m.settings, nil
}

func (m *mockRepository) SaveSettings(_ context.Context, settings domain.AuthSettings) error {
	m.settings = &settings
	return nil
}

func (m *mockRepository) Close() error { return nil }
