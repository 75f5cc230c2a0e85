package slack_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"

	"showroom/slack"

	should "github.com/stretchr/testify/assert"
	must "github.com/stretchr/testify/require"
)

type mockDoer struct {
	resp   *http.Response
	err    error
	doFunc func(req *http.Request) (*http.Response, error)
}

func (m *mockDoer) Do(req *http.Request) (*http.Response, error) {
	if m.doFunc != nil {
		return m.doFunc(req)
	}
	return m.resp, m.err
}

func TestNewClient(t *testing.T) {
	webhook := "http://slack.com/webhook"
	client := slack.NewClient(webhook, &mockDoer{})
	must.NotNil(t, client, "expected non-nil client")
}

func TestPostMessage(t *testing.T) {
	tests := []struct {
		name    string
		doFunc  func(req *http.Request) (*http.Response, error)
		wantErr error
	}{
		{
			name: "success",
			doFunc: func(req *http.Request) (*http.Response, error) {
				return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(bytes.NewBufferString("ok"))}, nil
			},
			wantErr: nil,
		},
		{
			name: "failure status",
			doFunc: func(req *http.Request) (*http.Response, error) {
				return &http.Response{StatusCode: http.StatusBadRequest, Status: "400 Bad Request", Body: io.NopCloser(bytes.NewBufferString("bad request"))}, nil
			},
			wantErr: fmt.Errorf("failed to post message: 400 Bad Request: bad request"),
		},
		{
			name: "do error",
			doFunc: func(req *http.Request) (*http.Response, error) {
				return nil, errors.New("network error")
			},
			wantErr: fmt.Errorf("network error"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := slack.NewClient("http://example.com/webhook", &mockDoer{doFunc: tt.doFunc})
			err := client.PostMessage(context.Background(), "#showroom-alerts", "Hello, world!")
			should.Equal(t, tt.wantErr, err)
		})
	}
}

func TestNotifyDegraded(t *testing.T) {
	var posted map[string]string
	doer := &mockDoer{doFunc: func(req *http.Request) (*http.Response, error) {
		must.NoError(t, json.NewDecoder(req.Body).Decode(&posted))
		return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(bytes.NewBufferString("ok"))}, nil
	}}
	notifier := slack.NewNotifier(slack.NewClient("http://example.com/webhook", doer), "#showroom-alerts")

	err := notifier.NotifyDegraded(context.Background(), "가족용 SUV", "timeout", strings.Repeat("x", 400))
	must.NoError(t, err)

	should.Equal(t, "#showroom-alerts", posted["channel"])
	should.Contains(t, posted["text"], "(timeout)")
	should.Contains(t, posted["text"], "가족용 SUV")
	should.Contains(t, posted["text"], strings.Repeat("x", 300)+"...")
	should.NotContains(t, posted["text"], strings.Repeat("x", 301))
}

func TestNotifyDegraded_NoDetail(t *testing.T) {
	var posted map[string]string
	doer := &mockDoer{doFunc: func(req *http.Request) (*http.Response, error) {
		must.NoError(t, json.NewDecoder(req.Body).Decode(&posted))
		return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(bytes.NewBufferString("ok"))}, nil
	}}
	notifier := slack.NewNotifier(slack.NewClient("http://example.com/webhook", doer), "#alerts")

	must.NoError(t, notifier.NotifyDegraded(context.Background(), "q", "serviceError", ""))
	should.NotContains(t, posted["text"], "detail")
}

func TestPostMessage_DefaultChannel(t *testing.T) {
	var posted map[string]any
	doer := &mockDoer{doFunc: func(req *http.Request) (*http.Response, error) {
		must.Equal(t, "application/json", req.Header.Get("Content-Type"))
		must.NoError(t, json.NewDecoder(req.Body).Decode(&posted))
		return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(bytes.NewBufferString("ok"))}, nil
	}}

	must.NoError(t, slack.NewClient("http://example.com/webhook", doer).PostMessage(context.Background(), "", "hi"))
	should.Equal(t, map[string]any{"text": "hi"}, posted)
}

func TestNotifyDegraded_TruncatesRunes(t *testing.T) {
	var posted map[string]string
	doer := &mockDoer{doFunc: func(req *http.Request) (*http.Response, error) {
		must.NoError(t, json.NewDecoder(req.Body).Decode(&posted))
		return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(bytes.NewBufferString("ok"))}, nil
	}}
	notifier := slack.NewNotifier(slack.NewClient("http://example.com/webhook", doer), "")

	must.NoError(t, notifier.NotifyDegraded(context.Background(), "q", "serviceError", strings.Repeat("차", 301)))
	should.Contains(t, posted["text"], strings.Repeat("차", 300)+"...`")
}
