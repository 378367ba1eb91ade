package main

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wadjakorntonsri/go-link-redirector/pkg/adapters/repository/sqlite"
	"github.com/wadjakorntonsri/go-link-redirector/pkg/core/domain"
	"github.com/wadjakorntonsri/go-link-redirector/pkg/core/services"
)

func newRepo(t *testing.T) *sqlite.SQLiteRepository {
	t.Helper()
	repo, err := sqlite.NewSQLiteRepository("file:"+t.Name()+"?mode=memory&cache=shared", time.Second, 0)
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSetAPIKey(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	require.NoError(t, doSetAPIKey(ctx, repo, "first"))
	require.NoError(t, doSetAPIKey(ctx, repo, "second"))

	settings, err := repo.GetSettings(ctx)
	require.NoError(t, err)
	require.NotNil(t, settings)
	assert.Equal(t, domain.SettingsID, settings.ID)
	assert.Equal(t, services.HashAPIKey("second"), settings.EncryptedGlobalAPIKey)

	auth := services.NewAuthService(repo)
	assert.NoError(t, auth.Authenticate(ctx, "second"))
	assert.ErrorIs(t, auth.Authenticate(ctx, "first"), domain.ErrUnauthorized)
}

func TestExport(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	_, err := repo.InsertLink(ctx, "MQ", "https://example.com/1")
	require.NoError(t, err)
	_, err = repo.InsertLink(ctx, "Mg", "https://example.com/2")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, doExport(ctx, repo, &buf))

	var links []domain.Link
	require.NoError(t, json.Unmarshal(buf.Bytes(), &links))
	assert.ElementsMatch(t, []domain.Link{
		{ID: "MQ", TargetURL: "https://example.com/1"},
		{ID: "Mg", TargetURL: "https://example.com/2"},
	}, links)
}
