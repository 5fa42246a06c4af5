package sheets

import (
	"context"
	"sync"

	"github.com/Veraticus/spice-ledger/internal/service"
)

var _ service.ReportWriter = (*MockWriter)(nil)

// MockWriter records published reports instead of calling the Sheets API.
type MockWriter struct {
	err     error
	reports []*service.Report
	errs    []error
	mu      sync.Mutex
}

// NewMockWriter returns a MockWriter that accepts every report.
func NewMockWriter() *MockWriter {
	return &MockWriter{}
}

// Write records report and returns the configured failure, if any.
func (m *MockWriter) Write(_ context.Context, report *service.Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.reports = append(m.reports, report)
	m.errs = append(m.errs, m.err)
	return m.err
}

// FailWith makes later writes return err. A nil err restores success.
func (m *MockWriter) FailWith(err error) {
	m.mu.Lock()
	m.err = err
	m.mu.Unlock()
}

// Calls is the number of Write calls so far.
func (m *MockWriter) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.reports)
}

// Last returns the most recently written report.
func (m *MockWriter) Last() *service.Report {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.reports) == 0 {
		return nil
	}
	return m.reports[len(m.reports)-1]
}

// Results returns the error each Write call returned, in call order.
func (m *MockWriter) Results() []error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]error(nil), m.errs...)
}

// Reset forgets recorded calls and the configured failure.
func (m *MockWriter) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = nil
	m.reports = nil
	m.errs = nil
}
