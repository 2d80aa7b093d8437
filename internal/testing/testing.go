// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"testing"

	"github.com/desertthunder/amts/internal/models"
)

// MockActivityProvider is a test double for [services.ActivityProvider].
// Returns the configured activity or error for every user.
type MockActivityProvider struct {
	Activity []models.TrackActivity
	Err      error

	// Calls records the user ids RecentActivity was invoked with.
	Calls []string
}

func (m *MockActivityProvider) RecentActivity(ctx context.Context, userID, storefront string) ([]models.TrackActivity, error) {
	m.Calls = append(m.Calls, userID)
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Activity, nil
}

func (m *MockActivityProvider) Name() string { return "mock" }

// MockTokenSource is a test double for [services.TokenSource]
type MockTokenSource struct {
	TokenValue string
	Err        error
}

func (m *MockTokenSource) Token() (string, error) {
	if m.Err != nil {
		return "", m.Err
	}
	return m.TokenValue, nil
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// SequenceRoundTripper returns queued responses in order, repeating the last
// one once the queue is exhausted. Useful for the recent-tracks-then-catalog
// request pairs the upstream client makes.
type SequenceRoundTripper struct {
	responses []*http.Response
	index     int
}

func NewSequenceRoundTripper(responses ...*http.Response) *SequenceRoundTripper {
	return &SequenceRoundTripper{responses: responses}
}

func (s *SequenceRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	if len(s.responses) == 0 {
		return nil, errors.New("no responses queued")
	}
	resp := s.responses[s.index]
	if s.index < len(s.responses)-1 {
		s.index++
	}
	return resp, nil
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
