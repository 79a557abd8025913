// internal/store/mock.go
package store

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github-trending-tracker/internal/model"
)

// Mock is a testify mock of the Store interface, shared by package tests.
type Mock struct {
	mock.Mock
}

var _ Store = (*Mock)(nil)

func (m *Mock) UpsertRepository(ctx context.Context, p UpsertRepositoryParams) (int64, error) {
	args := m.Called(ctx, p)
	return args.Get(0).(int64), args.Error(1)
}

func (m *Mock) UpsertSnapshot(ctx context.Context, p UpsertSnapshotParams) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *Mock) UpsertStarHistory(ctx context.Context, repoID int64, date string, stars int) error {
	args := m.Called(ctx, repoID, date, stars)
	return args.Error(0)
}

func (m *Mock) ListTrending(ctx context.Context, q TrendingQuery) ([]model.TrendingRow, error) {
	args := m.Called(ctx, q)
	return args.Get(0).([]model.TrendingRow), args.Error(1)
}

func (m *Mock) GetRepositoryByFullName(ctx context.Context, fullName string) (model.Repository, error) {
	args := m.Called(ctx, fullName)
	return args.Get(0).(model.Repository), args.Error(1)
}

func (m *Mock) GetLatestAnalysis(ctx context.Context, repoID int64) (*model.Analysis, error) {
	args := m.Called(ctx, repoID)
	if a := args.Get(0); a != nil {
		return a.(*model.Analysis), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Mock) ListSnapshots(ctx context.Context, repoID int64, limit int) ([]model.TrendingSnapshot, error) {
	args := m.Called(ctx, repoID, limit)
	return args.Get(0).([]model.TrendingSnapshot), args.Error(1)
}

func (m *Mock) ListStarHistory(ctx context.Context, repoID int64, limit int) ([]model.StarHistoryPoint, error) {
	args := m.Called(ctx, repoID, limit)
	return args.Get(0).([]model.StarHistoryPoint), args.Error(1)
}

func (m *Mock) ListAnalysisCandidates(ctx context.Context, staleBefore time.Time, limit int) ([]AnalysisCandidate, error) {
	args := m.Called(ctx, staleBefore, limit)
	return args.Get(0).([]AnalysisCandidate), args.Error(1)
}

func (m *Mock) ReplaceAnalysis(ctx context.Context, a model.Analysis) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

func (m *Mock) ListSubscriptions(ctx context.Context) ([]model.WebhookSubscription, error) {
	args := m.Called(ctx)
	return args.Get(0).([]model.WebhookSubscription), args.Error(1)
}

func (m *Mock) ListActiveSubscriptions(ctx context.Context) ([]model.WebhookSubscription, error) {
	args := m.Called(ctx)
	return args.Get(0).([]model.WebhookSubscription), args.Error(1)
}

func (m *Mock) CreateSubscription(ctx context.Context, p CreateSubscriptionParams) (model.WebhookSubscription, error) {
	args := m.Called(ctx, p)
	return args.Get(0).(model.WebhookSubscription), args.Error(1)
}

func (m *Mock) SetSubscriptionActive(ctx context.Context, id int64, active bool) (model.WebhookSubscription, error) {
	args := m.Called(ctx, id, active)
	return args.Get(0).(model.WebhookSubscription), args.Error(1)
}

func (m *Mock) DeleteSubscription(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *Mock) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
