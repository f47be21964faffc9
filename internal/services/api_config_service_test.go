package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"panorama-service/internal/models"
	"panorama-service/internal/repository"
)

type capturingFetcher struct {
	got []models.ProviderConfig
}

func (f *capturingFetcher) Combined(_ context.Context, cfg models.ProviderConfig) *models.CombinedData {
	f.got = append(f.got, cfg)
	return &models.CombinedData{Location: "captured"}
}

type failingStore struct{ repository.DocumentStore }

func (failingStore) Get(context.Context, string) ([]byte, error) {
	return nil, assert.AnError
}

func newConfigService(t *testing.T) (*ApiConfigService, *capturingFetcher) {
	t.Helper()
	store, err := repository.NewFileStore(t.TempDir())
	require.NoError(t, err)
	defaults := models.ProviderConfig{RefreshInterval: 10000, AutoRefresh: true}
	fetcher := &capturingFetcher{}
	return NewApiConfigService(repository.NewProviderConfigRepository(store), defaults, fetcher, zap.NewNop()), fetcher
}

func TestRoomConfigNeverInheritsGlobal(t *testing.T) {
	svc, fetcher := newConfigService(t)
	ctx := context.Background()
	require.NoError(t, svc.SaveGlobal(ctx, &models.ProviderConfig{RefreshInterval: 1}))

	cfg, isDefault, err := svc.Room(ctx, 5)
	require.NoError(t, err)
	assert.True(t, isDefault)
	assert.Equal(t, 10000, cfg.RefreshInterval)

	require.NoError(t, svc.SaveRoom(ctx, 5, &models.ProviderConfig{RefreshInterval: 2}))
	cfg, isDefault, err = svc.Room(ctx, 5)
	require.NoError(t, err)
	assert.False(t, isDefault)
	assert.Equal(t, 2, cfg.RefreshInterval)

	svc.Combined(ctx, 5)
	svc.Combined(ctx, 6)
	svc.Combined(ctx, 0)
	require.Len(t, fetcher.got, 3)
	assert.Equal(t, 2, fetcher.got[0].RefreshInterval)
	assert.Equal(t, 10000, fetcher.got[1].RefreshInterval)
	assert.Equal(t, 1, fetcher.got[2].RefreshInterval)
}

func TestGlobalConfigDefaults(t *testing.T) {
	svc, _ := newConfigService(t)
	cfg, err := svc.Global(context.Background())
	require.NoError(t, err)
	assert.True(t, cfg.AutoRefresh)
}

func TestCombinedFallsBackToMock(t *testing.T) {
	fetcher := &capturingFetcher{}
	svc := NewApiConfigService(repository.NewProviderConfigRepository(failingStore{}),
		models.ProviderConfig{}, fetcher, zap.NewNop())

	data := svc.Combined(context.Background(), 0)
	assert.Equal(t, "Mock Data", data.Location)
	assert.Equal(t, 26.5, data.Temperature)
	assert.Equal(t, 35.0, data.PM25)
	assert.Equal(t, "Moderate", data.AQI.Level)
	assert.Empty(t, fetcher.got)
}
