package service

import (
	"context"
	"sync"

	"github.com/campusfin/expense-approval/internal/domain/report"
)

type nopLogger struct{}

func (nopLogger) Info(msg string, keysAndValues ...interface{})  {}
func (nopLogger) Error(msg string, keysAndValues ...interface{}) {}

// mockRepo is an in-memory ReportRepository with the same compare-and-swap
// semantics as the SQLite implementation. saveFunc, when set, intercepts
// Save; tests that script conflicts delegate back to defaultSave.
type mockRepo struct {
	mu       sync.Mutex
	reports  map[string]*report.ExpenseReport
	saveFunc func(ctx context.Context, rep *report.ExpenseReport) error

	getCalls  int
	saveCalls int
}

func newMockRepo() *mockRepo {
	return &mockRepo{reports: make(map[string]*report.ExpenseReport)}
}

func (m *mockRepo) Create(ctx context.Context, rep *report.ExpenseReport) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reports[rep.ID] = rep.Clone()
	return nil
}

func (m *mockRepo) GetByID(ctx context.Context, id string) (*report.ExpenseReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getCalls++
	stored, ok := m.reports[id]
	if !ok {
		return nil, &report.NotFoundError{Kind: "report", ID: id}
	}
	return stored.Clone(), nil
}

func (m *mockRepo) Save(ctx context.Context, rep *report.ExpenseReport) error {
	if m.saveFunc != nil {
		return m.saveFunc(ctx, rep)
	}
	return m.defaultSave(ctx, rep)
}

func (m *mockRepo) defaultSave(_ context.Context, rep *report.ExpenseReport) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveCalls++
	stored, ok := m.reports[rep.ID]
	if !ok {
		return &report.NotFoundError{Kind: "report", ID: rep.ID}
	}
	if stored.Version != rep.Version {
		return report.ErrVersionConflict
	}
	rep.Version++
	m.reports[rep.ID] = rep.Clone()
	return nil
}

func (m *mockRepo) List(ctx context.Context, status report.Status, limit, offset int) ([]*report.ExpenseReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*report.ExpenseReport
	for _, rep := range m.reports {
		if status != "" && rep.Status != status {
			continue
		}
		out = append(out, rep.Clone())
	}
	return out, nil
}

// bumpVersion simulates a concurrent writer landing between a reader's
// GetByID and Save.
func (m *mockRepo) bumpVersion(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reports[id].Version++
}

type notifyCall struct {
	reportID string
	previous report.Status
	current  report.Status
	remarks  string
}

// mockNotifier records deliveries on a channel so tests can wait for the
// async send without sleeping.
type mockNotifier struct {
	calls chan notifyCall
}

func newMockNotifier() *mockNotifier {
	return &mockNotifier{calls: make(chan notifyCall, 16)}
}

func (m *mockNotifier) NotifyStatusChanged(_ context.Context, rep *report.ExpenseReport, previous report.Status, remarks string) error {
	m.calls <- notifyCall{
		reportID: rep.ID,
		previous: previous,
		current:  rep.Status,
		remarks:  remarks,
	}
	return nil
}
