package mcp

import (
	"context"
	"io"

	"github.com/custodia-labs/finkit/internal/core/domain"
	"github.com/custodia-labs/finkit/internal/core/ports/driving"
)

var (
	_ driving.FeedService   = (*mockFeedService)(nil)
	_ driving.FilingService = (*mockFilingService)(nil)
)

// mockFeedService is a mock implementation of driving.FeedService.
type mockFeedService struct {
	feeds   []domain.Feed
	feed    *domain.Feed
	items   []domain.FeedItem
	diff    *domain.FeedDiff
	results []domain.RefreshResult
	err     error

	lastCategory string
	lastFeedID   string
	lastLimit    int
	lastUnread   bool
	lastRead     *bool
}

func (m *mockFeedService) Add(_ context.Context, _, category string) (*domain.Feed, error) {
	m.lastCategory = category
	return m.feed, m.err
}

func (m *mockFeedService) Get(_ context.Context, _ string) (*domain.Feed, error) {
	return m.feed, m.err
}

func (m *mockFeedService) List(_ context.Context, category string) ([]domain.Feed, error) {
	m.lastCategory = category
	return m.feeds, m.err
}

func (m *mockFeedService) Remove(_ context.Context, id string) error {
	m.lastFeedID = id
	return m.err
}

func (m *mockFeedService) SetEnabled(_ context.Context, _ string, _ bool) error {
	return m.err
}

func (m *mockFeedService) Refresh(_ context.Context, id string) (*domain.FeedDiff, error) {
	m.lastFeedID = id
	return m.diff, m.err
}

func (m *mockFeedService) RefreshAll(_ context.Context) []domain.RefreshResult {
	return m.results
}

func (m *mockFeedService) Items(_ context.Context, feedID string, limit int, unreadOnly bool) ([]domain.FeedItem, error) {
	m.lastFeedID = feedID
	m.lastLimit = limit
	m.lastUnread = unreadOnly
	return m.items, m.err
}

func (m *mockFeedService) Search(_ context.Context, _ string, limit int) ([]domain.FeedItem, error) {
	m.lastLimit = limit
	return m.items, m.err
}

func (m *mockFeedService) MarkRead(_ context.Context, feedID, _ string, read bool) error {
	m.lastFeedID = feedID
	m.lastRead = &read
	return m.err
}

func (m *mockFeedService) ImportOPML(_ context.Context, _ io.Reader) (int, error) {
	return 0, m.err
}

func (m *mockFeedService) ExportOPML(_ context.Context, _ io.Writer) error {
	return m.err
}

func (m *mockFeedService) Watch(_ context.Context, _ func()) error {
	return domain.ErrNotImplemented
}

// mockFilingService is a mock implementation of driving.FilingService.
type mockFilingService struct {
	section  *domain.Section
	err      error
	lastForm string
}

func (m *mockFilingService) ResolveCompany(_ context.Context, _ string) (*domain.Company, error) {
	return nil, m.err
}

func (m *mockFilingService) ListFilings(_ context.Context, _, _ string, _ int) ([]domain.FilingRef, error) {
	return nil, m.err
}

func (m *mockFilingService) GetFiling(_ context.Context, _, _ string, _ int) (*domain.Filing, error) {
	return nil, m.err
}

func (m *mockFilingService) GetSection(_ context.Context, _, form, _ string) (*domain.Section, error) {
	m.lastForm = form
	return m.section, m.err
}

func (m *mockFilingService) BatchFetch(_ context.Context, _ []string, _ string) []domain.BatchResult {
	return nil
}
