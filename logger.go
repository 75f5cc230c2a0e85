package showroom

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// ExchangeLogger records one entry per recommendation exchange.
type ExchangeLogger interface {
	LogExchange(exchange ExchangeLog) error
}

// NewExchangeLogFilePath returns a file path named after the reasoning backend so logs
// from different backends are easy to tell apart.
func NewExchangeLogFilePath(backend string) string {
	return fmt.Sprintf(
		"./logs/%d.%s.json",
		time.Now().Unix(),
		strings.ReplaceAll(strings.ToLower(backend), ":", "_"),
	)
}

// ExchangeLog captures what happened to a single query on its way through the pipeline.
type ExchangeLog struct {
	RequestID     string        `json:"request_id,omitempty"`
	Timestamp     time.Time     `json:"timestamp"`
	Query         string        `json:"query"`
	Outcome       string        `json:"outcome"`
	FailureDetail string        `json:"failure_detail,omitempty"`
	Candidates    int           `json:"candidates"`
	Matched       int           `json:"matched"`
	Fallback      bool          `json:"fallback"`
	CatalogSize   int           `json:"catalog_size"`
	Duration      time.Duration `json:"duration_ns"`
	Error         string        `json:"error,omitempty"`
}

// FileExchangeLogger accumulates exchanges and writes them out on Flush.
type FileExchangeLogger struct {
	mu        sync.Mutex
	exchanges []ExchangeLog
	writer    io.Writer
}

func NewFileExchangeLogger(writer io.Writer) *FileExchangeLogger {
	return &FileExchangeLogger{
		exchanges: make([]ExchangeLog, 0),
		writer:    writer,
	}
}

// LogExchange buffers the exchange (does not flush immediately)
func (fl *FileExchangeLogger) LogExchange(exchange ExchangeLog) error {
	fl.mu.Lock()
	defer fl.mu.Unlock()
	fl.exchanges = append(fl.exchanges, exchange)
	return nil
}

// Flush writes all buffered exchanges to the writer
func (fl *FileExchangeLogger) Flush() error {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	if fl.writer == nil {
		return nil
	}

	data, err := json.MarshalIndent(map[string]any{
		"recommendation_session": map[string]any{
			"timestamp": time.Now(),
			"exchanges": fl.exchanges,
		},
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal exchange log: %w", err)
	}

	if _, err := fl.writer.Write(data); err != nil {
		return fmt.Errorf("failed to write exchange log: %w", err)
	}

	fl.exchanges = fl.exchanges[:0]
	return nil
}

type NoOpExchangeLogger struct{}

func NewNoOpExchangeLogger() *NoOpExchangeLogger {
	return &NoOpExchangeLogger{}
}

func (nop *NoOpExchangeLogger) LogExchange(exchange ExchangeLog) error {
	return nil
}

// StdoutExchangeLogger writes each exchange as a JSON line (for Lambda/CloudWatch)
type StdoutExchangeLogger struct {
	out io.Writer
}

func NewStdoutExchangeLogger() *StdoutExchangeLogger {
	return &StdoutExchangeLogger{out: os.Stdout}
}

func (l *StdoutExchangeLogger) LogExchange(exchange ExchangeLog) error {
	data, err := json.Marshal(exchange)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(l.out, string(data))
	return err
}
