package recommend

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"

	"showroom"
	"showroom/inventory"
)

type mockReasoner struct {
	payload Payload
	err     error
	// release, when set, blocks Reason until closed regardless of ctx.
	release chan struct{}
	calls   atomic.Int32
}

func (m *mockReasoner) Reason(ctx context.Context, query string) (Payload, error) {
	m.calls.Add(1)
	if m.release != nil {
		<-m.release
	}
	return m.payload, m.err
}

type staticCatalog struct {
	records []inventory.Record
	err     error
}

func (s staticCatalog) Load(ctx context.Context) ([]inventory.Record, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.records, nil
}

type countingCatalog struct {
	records []inventory.Record
	loads   atomic.Int32
}

func (c *countingCatalog) Load(ctx context.Context) ([]inventory.Record, error) {
	c.loads.Add(1)
	return c.records, nil
}

type stubOrchestrator struct {
	result Result
	err    error
	calls  atomic.Int32
}

func (s *stubOrchestrator) Recommend(ctx context.Context, query string) (Result, error) {
	s.calls.Add(1)
	return s.result, s.err
}

type recordingLogger struct {
	mu        sync.Mutex
	exchanges []showroom.ExchangeLog
}

func (r *recordingLogger) LogExchange(e showroom.ExchangeLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.exchanges = append(r.exchanges, e)
	return nil
}

type notification struct {
	query, reason, detail string
}

type recordingNotifier struct {
	sent []notification
}

func (r *recordingNotifier) NotifyDegraded(ctx context.Context, query, reason, detail string) error {
	r.sent = append(r.sent, notification{query, reason, detail})
	return nil
}

// mockHTTPClient implements the HTTPClient interface for testing
type mockHTTPClient struct {
	response *http.Response
	err      error
	request  *http.Request
	body     string
}

func (m *mockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	m.request = req
	if req.Body != nil {
		b, _ := io.ReadAll(req.Body)
		m.body = string(b)
	}
	return m.response, m.err
}

func createMockResponse(statusCode int, body string) *http.Response {
	return &http.Response{
		StatusCode: statusCode,
		Status:     http.StatusText(statusCode),
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     make(http.Header),
	}
}

func catalogOf(n int) []inventory.Record {
	names := []string{"Avante", "Sonata", "K5", "Sorento", "Ray", "Morning"}
	out := make([]inventory.Record, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, inventory.Record{
			ID:        i + 1,
			Name:      names[i%len(names)],
			Price:     1000 * (i + 1),
			Year:      2018 + i,
			Mileage:   10000 * (i + 1),
			FuelType:  "가솔린",
			CarType:   "중형차",
			MainImage: "/cars/" + names[i%len(names)] + ".png",
			Images:    []string{"/cars/a.png"},
		})
	}
	return out
}
