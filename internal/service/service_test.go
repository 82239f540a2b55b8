package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/flood-risk-service/internal/domain"
	"github.com/couchcryptid/flood-risk-service/internal/observability"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) List(ctx context.Context, filter domain.ObservationFilter) ([]domain.FloodObservation, error) {
	args := m.Called(ctx, filter)
	obs, _ := args.Get(0).([]domain.FloodObservation)
	return obs, args.Error(1)
}

func (m *mockStore) Insert(ctx context.Context, obs domain.FloodObservation) (domain.FloodObservation, error) {
	args := m.Called(ctx, obs)
	return args.Get(0).(domain.FloodObservation), args.Error(1)
}

func (m *mockStore) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, event domain.PredictionEvent) error {
	return m.Called(ctx, event).Error(0)
}

func ptr[T any](v T) *T { return &v }

func newTestService(store Store, pub PredictionPublisher) (*Service, *observability.Metrics) {
	metrics := observability.NewMetricsForTesting()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(store, pub, logger, metrics), metrics
}

func TestPredict_ClassifiesWithoutTouchingStore(t *testing.T) {
	store := &mockStore{}
	svc, metrics := newTestService(store, nil)

	got, err := svc.Predict(context.Background(), domain.PredictionInput{City: domain.Marikina, Rainfall: ptr(200.0)})
	require.NoError(t, err)

	assert.Equal(t, 7, got.RiskLevel)
	assert.Equal(t, "High Risk: Significant flooding expected. (Higher risk due to Marikina River proximity)", got.RiskDescription)
	assert.InDelta(t, 1.0, testutil.ToFloat64(metrics.Predictions.WithLabelValues("7")), 0)
	store.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
	store.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
}

func TestPredict_ValidationError(t *testing.T) {
	svc, metrics := newTestService(&mockStore{}, nil)

	_, err := svc.Predict(context.Background(), domain.PredictionInput{City: domain.Manila, Rainfall: ptr(-1.0)})
	require.Error(t, err)

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "rainfall", verr.Field)
	require.ErrorIs(t, err, domain.ErrInvalidRainfall)
	assert.InDelta(t, 1.0, testutil.ToFloat64(metrics.PredictionErrors.WithLabelValues("rainfall")), 0)
}

func TestPredict_RejectsInfiniteRainfall(t *testing.T) {
	svc, metrics := newTestService(&mockStore{}, nil)

	_, err := svc.Predict(context.Background(), domain.PredictionInput{City: domain.Pasig, Rainfall: ptr(math.Inf(1))})
	require.ErrorIs(t, err, domain.ErrInvalidRainfall)

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "rainfall must be a finite number", verr.Message)
	assert.InDelta(t, 1.0, testutil.ToFloat64(metrics.PredictionErrors.WithLabelValues("rainfall")), 0)
}

func TestPredict_PublishesEvent(t *testing.T) {
	domain.SetClock(clockwork.NewFakeClockAt(time.Date(2024, time.July, 24, 8, 0, 0, 0, time.UTC)))
	t.Cleanup(func() { domain.SetClock(nil) })

	pub := &mockPublisher{}
	pub.On("Publish", mock.Anything, mock.MatchedBy(func(e domain.PredictionEvent) bool {
		return e.City == domain.Pasig &&
			e.Rainfall == 60 &&
			e.Assessment.RiskLevel == 3 &&
			e.ID != "" &&
			e.PredictedAt.Equal(time.Date(2024, time.July, 24, 8, 0, 0, 0, time.UTC))
	})).Return(nil).Once()

	svc, metrics := newTestService(&mockStore{}, pub)
	_, err := svc.Predict(context.Background(), domain.PredictionInput{City: domain.Pasig, Rainfall: ptr(60.0)})
	require.NoError(t, err)

	pub.AssertExpectations(t)
	assert.InDelta(t, 1.0, testutil.ToFloat64(metrics.PredictionEventsPublished.WithLabelValues("success")), 0)
}

func TestPredict_PublishFailureIsNotFatal(t *testing.T) {
	pub := &mockPublisher{}
	pub.On("Publish", mock.Anything, mock.Anything).Return(errors.New("broker down"))

	svc, metrics := newTestService(&mockStore{}, pub)
	got, err := svc.Predict(context.Background(), domain.PredictionInput{City: domain.Manila, Rainfall: ptr(10.0)})
	require.NoError(t, err)

	assert.Equal(t, 1, got.RiskLevel)
	assert.InDelta(t, 1.0, testutil.ToFloat64(metrics.PredictionEventsPublished.WithLabelValues("error")), 0)
}

func TestStats(t *testing.T) {
	store := &mockStore{}
	store.On("List", mock.Anything, domain.ObservationFilter{}).Return([]domain.FloodObservation{
		{City: domain.Manila, FloodHeight: 6, Precipitation: 210},
		{City: domain.Manila, FloodHeight: 7, Precipitation: 250},
	}, nil)

	svc, metrics := newTestService(store, nil)
	got, err := svc.Stats(context.Background())
	require.NoError(t, err)

	require.Len(t, got, 4)
	assert.Equal(t, domain.Manila, got[1].City)
	assert.InDelta(t, 6.5, got[1].AvgFloodLevel, 1e-9)
	assert.Equal(t, domain.TrendIncreasing, got[1].RiskTrend)
	assert.InDelta(t, 1.0, testutil.ToFloat64(metrics.StatsRequests), 0)
}

func TestStats_StoreError(t *testing.T) {
	store := &mockStore{}
	store.On("List", mock.Anything, mock.Anything).Return(nil, errors.New("connection refused"))

	svc, _ := newTestService(store, nil)
	_, err := svc.Stats(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestObservations_PassesFilter(t *testing.T) {
	city := domain.Pasig
	filter := domain.ObservationFilter{City: &city}

	store := &mockStore{}
	store.On("List", mock.Anything, filter).Return([]domain.FloodObservation{{ID: 3, City: domain.Pasig}}, nil)

	svc, _ := newTestService(store, nil)
	got, err := svc.Observations(context.Background(), filter)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(3), got[0].ID)
}

func TestSeedIfEmpty(t *testing.T) {
	store := &mockStore{}
	store.On("List", mock.Anything, domain.ObservationFilter{}).Return([]domain.FloodObservation{}, nil)
	store.On("Insert", mock.Anything, mock.Anything).Return(domain.FloodObservation{}, nil)

	svc, _ := newTestService(store, nil)
	n, err := svc.SeedIfEmpty(context.Background(), rand.New(rand.NewPCG(1, 2)))
	require.NoError(t, err)

	assert.Equal(t, 20, n)
	store.AssertNumberOfCalls(t, "Insert", 20)
}

func TestSeedIfEmpty_SkipsPopulatedStore(t *testing.T) {
	store := &mockStore{}
	store.On("List", mock.Anything, domain.ObservationFilter{}).Return([]domain.FloodObservation{{ID: 1}}, nil)

	svc, _ := newTestService(store, nil)
	n, err := svc.SeedIfEmpty(context.Background(), rand.New(rand.NewPCG(1, 2)))
	require.NoError(t, err)

	assert.Zero(t, n)
	store.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}

func TestSeedIfEmpty_InsertError(t *testing.T) {
	store := &mockStore{}
	store.On("List", mock.Anything, mock.Anything).Return([]domain.FloodObservation{}, nil)
	store.On("Insert", mock.Anything, mock.Anything).Return(domain.FloodObservation{}, errors.New("disk full"))

	svc, _ := newTestService(store, nil)
	n, err := svc.SeedIfEmpty(context.Background(), rand.New(rand.NewPCG(1, 2)))
	require.Error(t, err)
	assert.Zero(t, n)
}

func TestCheckReadiness(t *testing.T) {
	store := &mockStore{}
	store.On("Ping", mock.Anything).Return(errors.New("no route")).Once()
	store.On("Ping", mock.Anything).Return(nil).Once()

	svc, _ := newTestService(store, nil)
	require.Error(t, svc.CheckReadiness(context.Background()))
	require.NoError(t, svc.CheckReadiness(context.Background()))
}
