package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// newHealthServer starts a test server answering the health probes and
// returns its host:port address.
func newHealthServer(t *testing.T, ready bool) string {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz/liveness", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/healthz/readiness", func(w http.ResponseWriter, _ *http.Request) {
		if ready {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return strings.TrimPrefix(srv.URL, "http://")
}

func TestStatus_Properties(t *testing.T) {
	cmd := newStatusCmd()

	if cmd.Use != "status" {
		t.Errorf("Use = %q, want %q", cmd.Use, "status")
	}

	if !strings.Contains(cmd.Short, "status") {
		t.Error("Short description should mention status")
	}

	if !strings.Contains(cmd.Long, "readiness") {
		t.Error("Long description should mention readiness")
	}
}

func TestStatus_Flags(t *testing.T) {
	cmd := newStatusCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--help"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	output := buf.String()

	for _, flag := range []string{"--json", "--metrics-addr"} {
		if !strings.Contains(output, flag) {
			t.Errorf("Help missing %q flag", flag)
		}
	}
}

func TestStatus_ServiceRunning(t *testing.T) {
	addr := newHealthServer(t, true)

	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"status", "--metrics-addr", addr})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "running") {
		t.Errorf("Output should indicate the service is running, got: %s", output)
	}
	if !strings.Contains(output, "yes") {
		t.Errorf("Output should indicate readiness, got: %s", output)
	}
}

func TestStatus_ServiceNotReady(t *testing.T) {
	addr := newHealthServer(t, false)

	status := queryServiceStatus(addr)

	if !status.Live {
		t.Error("Live should be true when the liveness probe answers")
	}
	if status.Ready {
		t.Error("Ready should be false when the readiness probe returns 503")
	}
}

func TestStatus_ServiceUnreachable(t *testing.T) {
	// Reserve a port and close it so nothing is listening.
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := strings.TrimPrefix(srv.URL, "http://")
	srv.Close()

	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"status", "--metrics-addr", addr})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "unreachable") {
		t.Errorf("Output should indicate the service is unreachable, got: %s", output)
	}
}

func TestStatus_JSONOutput(t *testing.T) {
	addr := newHealthServer(t, true)

	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"status", "--metrics-addr", addr, "--json"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	var status ServiceStatus
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &status); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, buf.String())
	}

	if status.Addr != addr {
		t.Errorf("Addr = %q, want %q", status.Addr, addr)
	}
	if !status.Live || !status.Ready {
		t.Errorf("expected live and ready, got %+v", status)
	}
}
