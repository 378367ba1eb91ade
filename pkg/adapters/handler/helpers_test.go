package handler

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wadjakorntonsri/go-link-redirector/pkg/adapters/repository/deadline"
	"github.com/wadjakorntonsri/go-link-redirector/pkg/adapters/repository/sqlite"
	"github.com/wadjakorntonsri/go-link-redirector/pkg/core/domain"
	"github.com/wadjakorntonsri/go-link-redirector/pkg/core/services"
	"github.com/wadjakorntonsri/go-link-redirector/pkg/logging"
	"github.com/wadjakorntonsri/go-link-redirector/pkg/ports"
)

const testAPIKey = "testservlet"

// recordingMetrics implements ports.Metrics.
type recordingMetrics struct {
	mu              sync.Mutex
	unauthenticated map[string]int
	errors          map[string]int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{unauthenticated: map[string]int{}, errors: map[string]int{}}
}

func (m *recordingMetrics) UnauthenticatedCall(route string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unauthenticated[route]++
}

func (m *recordingMetrics) RequestError(class string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[class]++
}

func (m *recordingMetrics) unauthenticatedCount(route string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.unauthenticated[route]
}

func (m *recordingMetrics) errorCount(class string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.errors[class]
}

// faultyRepository wraps a real repository and injects failures.
type faultyRepository struct {
	ports.LinkRepository

	mu          sync.Mutex
	recordErr   error
	settingsErr error
	block       chan struct{} // when set, FindLink hangs until the deadline
	timeout     time.Duration
	recorded    int
}

func (f *faultyRepository) FindLink(ctx context.Context, id string) (*domain.Link, error) {
	f.mu.Lock()
	block := f.block
	f.mu.Unlock()
	if block != nil {
		return deadline.Run(ctx, f.timeout, "find link", func(ctx context.Context) (*domain.Link, error) {
			<-block
			return nil, nil
		})
	}
	return f.LinkRepository.FindLink(ctx, id)
}

func (f *faultyRepository) RecordStatistic(ctx context.Context, event domain.LinkStatisticEvent) error {
	f.mu.Lock()
	err := f.recordErr
	f.recorded++
	f.mu.Unlock()
	if err != nil {
		return err
	}
	return f.LinkRepository.RecordStatistic(ctx, event)
}

func (f *faultyRepository) GetSettings(ctx context.Context) (*domain.AuthSettings, error) {
	f.mu.Lock()
	err := f.settingsErr
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return f.LinkRepository.GetSettings(ctx)
}

func (f *faultyRepository) recordAttempts() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.recorded
}

type testEnv struct {
	router  *Router
	repo    *faultyRepository
	auth    ports.AuthService
	metrics *recordingMetrics
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	base, err := sqlite.NewSQLiteRepository(fmt.Sprintf("file:%s?mode=memory&cache=shared", name), time.Second, 0)
	require.NoError(t, err)
	t.Cleanup(func() { base.Close() })

	require.NoError(t, base.SaveSettings(context.Background(), domain.AuthSettings{
		ID:                    domain.SettingsID,
		EncryptedGlobalAPIKey: services.HashAPIKey(testAPIKey),
	}))

	repo := &faultyRepository{LinkRepository: base, timeout: 50 * time.Millisecond}
	m := newRecordingMetrics()
	logger := logging.Discard()

	auth := services.NewAuthService(repo)
	router := NewRouter(Dependencies{
		Links:   services.NewLinkService(repo, logger),
		Auth:    auth,
		Metrics: m,
		Logger:  logger,
	})
	t.Cleanup(router.Wait)

	return &testEnv{router: router, repo: repo, auth: auth, metrics: m}
}
