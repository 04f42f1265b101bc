package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// captureLogs redirects the default logger for the duration of the test.
func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

func TestLogger(t *testing.T) {
	tests := []struct {
		name      string
		method    string
		handler   http.HandlerFunc
		wantCode  int
		wantInLog []string
	}{
		{
			name:   "explicit status",
			method: http.MethodPost,
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusCreated)
			},
			wantCode:  http.StatusCreated,
			wantInLog: []string{"level=INFO", "method=POST", "status=201"},
		},
		{
			name:   "implicit 200 counts bytes",
			method: http.MethodGet,
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("hello"))
			},
			wantCode:  http.StatusOK,
			wantInLog: []string{"status=200", "bytes=5"},
		},
		{
			name:   "server error logged at error level",
			method: http.MethodGet,
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			},
			wantCode:  http.StatusBadGateway,
			wantInLog: []string{"level=ERROR", "status=502"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logs := captureLogs(t)

			rr := httptest.NewRecorder()
			Logger(tt.handler).ServeHTTP(rr, httptest.NewRequest(tt.method, "/api/websites", nil))

			if rr.Code != tt.wantCode {
				t.Errorf("status: got %d, want %d", rr.Code, tt.wantCode)
			}
			out := logs.String()
			for _, want := range append(tt.wantInLog, "path=/api/websites") {
				if !strings.Contains(out, want) {
					t.Errorf("log %q missing %q", out, want)
				}
			}
		})
	}
}

func TestLoggerIncludesRequestID(t *testing.T) {
	logs := captureLogs(t)

	handler := chimw.RequestID(Logger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})))
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(chimw.RequestIDHeader, "req-123")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if !strings.Contains(logs.String(), "request_id=req-123") {
		t.Errorf("request id missing from %q", logs.String())
	}
}

func TestResponseWriter(t *testing.T) {
	t.Run("WriteHeader only captures first call", func(t *testing.T) {
		rw := &responseWriter{ResponseWriter: httptest.NewRecorder(), statusCode: http.StatusOK}
		rw.WriteHeader(http.StatusNotFound)
		rw.WriteHeader(http.StatusInternalServerError)

		if rw.statusCode != http.StatusNotFound {
			t.Errorf("statusCode: got %d, want 404", rw.statusCode)
		}
	})

	t.Run("Write does not override explicit WriteHeader", func(t *testing.T) {
		rw := &responseWriter{ResponseWriter: httptest.NewRecorder(), statusCode: http.StatusOK}
		rw.WriteHeader(http.StatusCreated)
		rw.Write([]byte("created"))

		if rw.statusCode != http.StatusCreated {
			t.Errorf("statusCode: got %d, want 201", rw.statusCode)
		}
		if rw.bytes != len("created") {
			t.Errorf("bytes: got %d", rw.bytes)
		}
	})

	t.Run("Unwrap exposes the underlying writer", func(t *testing.T) {
		rr := httptest.NewRecorder()
		rw := &responseWriter{ResponseWriter: rr}
		if rw.Unwrap() != http.ResponseWriter(rr) {
			t.Error("Unwrap returned a different writer")
		}
	})
}
