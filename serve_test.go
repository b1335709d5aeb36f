package main

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"strcheck/internal/report"
	"strcheck/internal/validator"
)

func testLimits() LimiterConfig {
	var c AppConfig
	c.Init()
	return c.Limiter
}

func TestIsLocalIP(t *testing.T) {
	tests := []struct {
		ip    string
		local bool
	}{
		{"127.0.0.1", true},
		{"::1", true},
		{"192.168.1.1", true},
		{"10.0.0.1", true},
		{"8.8.8.8", false},
		{"2001:4860:4860::8888", false},
		{"invalid", true},
	}
	for _, tt := range tests {
		t.Run(tt.ip, func(t *testing.T) {
			if got := isLocalIP(tt.ip); got != tt.local {
				t.Errorf("isLocalIP() = %v, want %v", got, tt.local)
			}
		})
	}
}

func TestHandleCheck(t *testing.T) {
	tooMany := make([]string, maxInputs+1)
	for i := range tooMany {
		tooMany[i] = "x"
	}

	tests := []struct {
		name        string
		method      string
		query       url.Values
		wantStatus  int
		wantType    string
		wantContain string
	}{
		{
			name:        "text report",
			method:      http.MethodGet,
			query:       url.Values{"s": {"Hello", "98052"}},
			wantStatus:  http.StatusOK,
			wantType:    "text/plain; charset=utf-8",
			wantContain: `"98052" matches "ZIP code".`,
		},
		{
			name:        "json report",
			method:      http.MethodGet,
			query:       url.Values{"s": {"101"}, "format": {"json"}},
			wantStatus:  http.StatusOK,
			wantType:    "application/json; charset=utf-8",
			wantContain: `"validator": "Letters only"`,
		},
		{
			name:        "empty string is a valid input",
			method:      http.MethodGet,
			query:       url.Values{"s": {""}},
			wantStatus:  http.StatusOK,
			wantContain: `"" does not match "Letters only".`,
		},
		{
			name:       "missing input",
			method:     http.MethodGet,
			query:      url.Values{},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown format",
			method:     http.MethodGet,
			query:      url.Values{"s": {"x"}, "format": {"xml"}},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "input too long",
			method:     http.MethodGet,
			query:      url.Values{"s": {strings.Repeat("a", maxInputLength+1)}},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "too many inputs",
			method:     http.MethodGet,
			query:      url.Values{"s": tooMany},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:        "input with NUL byte",
			method:      http.MethodGet,
			query:       url.Values{"s": {"a\x00b"}},
			wantStatus:  http.StatusOK,
			wantContain: `"a\x00b" does not match "Letters only".`,
		},
		{
			name:       "post not allowed",
			method:     http.MethodPost,
			query:      url.Values{"s": {"x"}},
			wantStatus: http.StatusMethodNotAllowed,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newCheckServer(validator.Default(), testLimits())
			req := httptest.NewRequest(tt.method, "/check?"+tt.query.Encode(), nil)
			rec := httptest.NewRecorder()
			srv.routes().ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			if tt.wantType != "" {
				assert.Equal(t, tt.wantType, rec.Header().Get("Content-Type"))
			}
			if tt.wantContain != "" {
				assert.Contains(t, rec.Body.String(), tt.wantContain)
			}
		})
	}
}

func TestQueryKey(t *testing.T) {
	tests := []struct {
		name string
		a, b []string
	}{
		{"NUL inside input vs two inputs", []string{"a\x00b"}, []string{"a", "b"}},
		{"comma inside input vs two inputs", []string{"a,b"}, []string{"a", "b"}},
		{"quoted comma", []string{`a","b`}, []string{"a", "b"}},
		{"empty input vs none", []string{""}, nil},
		{"joined vs split", []string{"ab"}, []string{"a", "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotEqual(t, queryKey("text", tt.a), queryKey("text", tt.b))
		})
	}
	assert.NotEqual(t, queryKey("text", []string{"x"}), queryKey("json", []string{"x"}))
	assert.Equal(t, queryKey("text", []string{"a", "b"}), queryKey("text", []string{"a", "b"}))
}

// Запрос с одной строкой "a\x00b" не должен присоединяться к выполняющемуся запросу ["a", "b"].
func TestHandleCheck_DistinctQueriesAreNotMerged(t *testing.T) {
	srv := newCheckServer(validator.Default(), testLimits())

	started := make(chan struct{})
	release := make(chan struct{})
	defer close(release)
	go srv.group.Do(queryKey(report.FormatText, []string{"a", "b"}), func() (interface{}, error) {
		close(started)
		<-release
		return []byte("other report\n"), nil
	})
	<-started

	rec := httptest.NewRecorder()
	done := make(chan struct{})
	go func() {
		defer close(done)
		srv.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/check?s=a%00b", nil))
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("request waited for an unrelated in-flight query")
	}

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `"a\x00b" does not match "ZIP code".`+"\n"+`"a\x00b" does not match "Letters only".`+"\n", rec.Body.String())
}

func TestHandleCheck_IdenticalQueriesShareResult(t *testing.T) {
	srv := newCheckServer(validator.Default(), testLimits())

	started := make(chan struct{})
	release := make(chan struct{})
	leaderDone := make(chan struct{})
	go func() {
		defer close(leaderDone)
		srv.group.Do(queryKey(report.FormatText, []string{"Hello"}), func() (interface{}, error) {
			close(started)
			<-release
			return []byte("shared report\n"), nil
		})
	}()
	<-started

	rec := httptest.NewRecorder()
	done := make(chan struct{})
	go func() {
		defer close(done)
		srv.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/check?s=Hello", nil))
	}()
	// даём запросу время присоединиться к выполняющемуся вызову
	time.Sleep(100 * time.Millisecond)
	close(release)
	<-leaderDone
	<-done

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "shared report\n", rec.Body.String())
}

func TestHandleCheck_RateLimit(t *testing.T) {
	limits := testLimits()
	limits.Every = time.Hour
	limits.Burst = 2
	srv := newCheckServer(validator.Default(), limits)
	handler := srv.routes()

	do := func(remote string) int {
		req := httptest.NewRequest(http.MethodGet, "/check?s=Hello", nil)
		req.RemoteAddr = remote
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, do("203.0.113.5:1000"))
	assert.Equal(t, http.StatusOK, do("203.0.113.5:1001"))
	assert.Equal(t, http.StatusTooManyRequests, do("203.0.113.5:1002"))
	assert.Equal(t, http.StatusOK, do("203.0.113.6:1000"), "limits are per client")
	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, do("127.0.0.1:1000"), "local clients are not limited")
	}
}

func TestLimiterSet_Sweep(t *testing.T) {
	ls := newLimiterSet(time.Second, 1)
	ls.get("203.0.113.1")
	ls.get("203.0.113.2")
	require.Equal(t, 2, ls.len())

	assert.Equal(t, 0, ls.sweep(time.Now(), time.Minute))
	assert.Equal(t, 2, ls.sweep(time.Now().Add(2*time.Minute), time.Minute))
	assert.Equal(t, 0, ls.len())
}

func TestServe_Lifecycle(t *testing.T) {
	defer goleak.VerifyNone(t)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	var c AppConfig
	c.Init()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- serve(ctx, ln, newCheckServer(validator.Default(), c.Limiter), c.Server)
	}()

	transport := &http.Transport{DisableKeepAlives: true}
	client := &http.Client{Transport: transport, Timeout: 5 * time.Second}
	resp, err := client.Get("http://" + ln.Addr().String() + "/check?s=98052")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, `"98052" matches "ZIP code".`+"\n"+`"98052" does not match "Letters only".`+"\n", string(body))

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("serve did not stop after cancel")
	}
	transport.CloseIdleConnections()
}
