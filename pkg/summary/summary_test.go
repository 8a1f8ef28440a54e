package summary

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autocoder/pkg/taskerr"
)

func messageResponse(text string) string {
	return `{"id":"msg_01","type":"message","role":"assistant","model":"claude-sonnet-4-5",` +
		`"content":[{"type":"text","text":` + jsonString(text) + `}],` +
		`"stop_reason":"end_turn","stop_sequence":null,"usage":{"input_tokens":10,"output_tokens":5}}`
}

func jsonString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func newTestServer(t *testing.T, status int, body string, gotBody *string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if gotBody != nil {
			b, _ := io.ReadAll(r.Body)
			*gotBody = string(b)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestSummarize(t *testing.T) {
	var body string
	srv := newTestServer(t, http.StatusOK, messageResponse("Added a README.\n- docs"), &body)

	s := NewClaudeSummarizer("sk-test", option.WithBaseURL(srv.URL), option.WithMaxRetries(0))
	got, err := s.Summarize(context.Background(), "created README.md\n")

	require.NoError(t, err)
	assert.Equal(t, "Added a README.\n- docs", got)
	assert.Contains(t, body, "created README.md")
	assert.Contains(t, body, `"model":"claude-sonnet-4-5"`)
}

func TestSummarizeEmptyLogSkipsAPI(t *testing.T) {
	var called bool
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true }))
	defer srv.Close()

	got, err := NewClaudeSummarizer("k", option.WithBaseURL(srv.URL)).Summarize(context.Background(), "  \n")
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.False(t, called)
}

func TestSummarizeTruncatesLongLogs(t *testing.T) {
	var body string
	srv := newTestServer(t, http.StatusOK, messageResponse("ok"), &body)

	log := strings.Repeat("early noise line\n", 500) + "the last line"
	s := NewClaudeSummarizer("k", option.WithBaseURL(srv.URL), option.WithMaxRetries(0))
	s.maxInputTokens = 20

	_, err := s.Summarize(context.Background(), log)
	require.NoError(t, err)
	assert.Contains(t, body, "[earlier output omitted]")
	assert.Contains(t, body, "the last line")
	assert.Less(t, strings.Count(body, "early noise line"), 20)
}

func TestSummarizeAPIFailure(t *testing.T) {
	srv := newTestServer(t, http.StatusUnauthorized,
		`{"type":"error","error":{"type":"authentication_error","message":"invalid x-api-key"}}`, nil)

	_, err := NewClaudeSummarizer("bad", option.WithBaseURL(srv.URL), option.WithMaxRetries(0)).
		Summarize(context.Background(), "log")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "Failed to summarize agent log")
	assert.True(t, taskerr.IsKind(err, taskerr.KindExecution))
}

func TestSummarizeEmptyResponse(t *testing.T) {
	srv := newTestServer(t, http.StatusOK, messageResponse("  "), nil)

	_, err := NewClaudeSummarizer("k", option.WithBaseURL(srv.URL), option.WithMaxRetries(0)).
		Summarize(context.Background(), "log")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty response")
}
