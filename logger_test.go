package showroom

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileExchangeLogger_Flush(t *testing.T) {
	var buf bytes.Buffer
	logger := NewFileExchangeLogger(&buf)

	require.NoError(t, logger.LogExchange(ExchangeLog{Query: "SUV", Outcome: "succeeded", Matched: 2}))
	require.NoError(t, logger.LogExchange(ExchangeLog{Query: "경차", Outcome: "timeout", Fallback: true}))
	require.NoError(t, logger.Flush())

	var out struct {
		Session struct {
			Exchanges []ExchangeLog `json:"exchanges"`
		} `json:"recommendation_session"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	require.Len(t, out.Session.Exchanges, 2)
	assert.Equal(t, "SUV", out.Session.Exchanges[0].Query)
	assert.True(t, out.Session.Exchanges[1].Fallback)

	buf.Reset()
	require.NoError(t, logger.Flush())
	assert.Contains(t, buf.String(), `"exchanges": []`)
}

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) { return 0, errors.New("disk full") }

func TestFileExchangeLogger_WriteError(t *testing.T) {
	logger := NewFileExchangeLogger(failingWriter{})
	require.NoError(t, logger.LogExchange(ExchangeLog{Query: "q"}))
	assert.ErrorContains(t, logger.Flush(), "disk full")
}

func TestStdoutExchangeLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := &StdoutExchangeLogger{out: &buf}

	require.NoError(t, logger.LogExchange(ExchangeLog{RequestID: "r1", Query: "a", Duration: time.Second}))
	require.NoError(t, logger.LogExchange(ExchangeLog{RequestID: "r2", Query: "b"}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var first ExchangeLog
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, "r1", first.RequestID)
	assert.Equal(t, time.Second, first.Duration)
}

func TestNewExchangeLogFilePath(t *testing.T) {
	path := NewExchangeLogFilePath("Bedrock:Claude")
	assert.True(t, strings.HasPrefix(path, "./logs/"))
	assert.True(t, strings.HasSuffix(path, ".bedrock_claude.json"))
}

func TestFdump(t *testing.T) {
	var buf bytes.Buffer
	Fdump(&buf, struct{ Name string }{"Avante"})
	assert.Contains(t, buf.String(), "logger_test.go")
	assert.Contains(t, buf.String(), "Avante")
}
