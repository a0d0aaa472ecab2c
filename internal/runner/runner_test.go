package runner

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jacoelho/jscan/internal/config"
	"github.com/jacoelho/jscan/internal/exit"
)

const observations = `{"header":[{"name":"Melbourne"}],"data":[
{"local_date_time_full":"20240101160000","apparent_t":21.5,"wind_spd_kmh":9},
{"local_date_time_full":"20240101153000","apparent_t":null,"wind_spd_kmh":"7"}]}`

func writeDoc(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func newRunner(t *testing.T, args ...string) (*Runner, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	cfg, result := config.Parse(append([]string{"jscan"}, args...))
	if result != nil {
		t.Fatalf("config.Parse() = %q", result.Message)
	}
	r, result := New(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if result != nil {
		t.Fatalf("New() = %q", result.Message)
	}
	var out, errOut bytes.Buffer
	return r.WithOutput(&out, &errOut), &out, &errOut
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	obs := writeDoc(t, dir, "obs.json", observations)
	more := writeDoc(t, dir, "more.json", `{"data":[{"wind_spd_kmh":"7","local_date_time_full":"20240101153000"},{"apparent_t":"-1"}]}`)
	other := writeDoc(t, dir, "other.json", `{"rows":[{"apparent_t":1}]}`)
	wrongType := writeDoc(t, dir, "wrong.json", `{"data":"none","later":{"data":[]}}`)
	broken := writeDoc(t, dir, "broken.json", `{"data":[{"apparent_t":1},`)
	container := writeDoc(t, dir, "container.json", `{"data":[{"apparent_t":[1]}]}`)
	repeated := writeDoc(t, dir, "repeated.json", `{"data":[{"apparent_t":"1","apparent_t":"2"}]}`)

	tests := []struct {
		name       string
		args       []string
		wantCode   int
		wantOut    string
		wantErrOut string
	}{
		{
			name:     "csv",
			args:     []string{"--format", "csv", obs},
			wantCode: exit.CodeOK,
			wantOut:  "local_time,apparent_temp,wind_speed\n20240101160000,21.5,9\n20240101153000,,7\n",
		},
		{
			name:     "sources share one output",
			args:     []string{"--format", "csv", obs, more},
			wantCode: exit.CodeOK,
			wantOut: "local_time,apparent_temp,wind_speed\n20240101160000,21.5,9\n20240101153000,,7\n" +
				"20240101153000,,7\n,-1,\n",
		},
		{
			name:     "dedupe across sources",
			args:     []string{"--format", "csv", "--dedupe", obs, more},
			wantCode: exit.CodeOK,
			wantOut:  "local_time,apparent_temp,wind_speed\n20240101160000,21.5,9\n20240101153000,,7\n,-1,\n",
		},
		{
			name:     "limit",
			args:     []string{"--format", "ndjson", "--limit", "1", obs},
			wantCode: exit.CodeOK,
			wantOut:  `{"local_time":"20240101160000","apparent_temp":"21.5","wind_speed":"9"}` + "\n",
		},
		{
			name:     "custom target and field",
			args:     []string{"--format", "ndjson", "--target", "rows", "--field", "apparent_t=feels_like", other},
			wantCode: exit.CodeOK,
			wantOut:  `{"feels_like":"1"}` + "\n",
		},
		{
			name:       "not found",
			args:       []string{other},
			wantCode:   exit.CodeNotFound,
			wantErrOut: `array "data" not found`,
		},
		{
			name:       "wrong type stops the search",
			args:       []string{wrongType},
			wantCode:   exit.CodeNotFound,
			wantErrOut: "not found",
		},
		{
			name:     "deep search keeps early exit",
			args:     []string{"--deep", "--format", "csv", "--target", "data", wrongType},
			wantCode: exit.CodeNotFound,
		},
		{
			name:       "malformed",
			args:       []string{broken},
			wantCode:   exit.CodeMalformed,
			wantErrOut: "broken.json",
		},
		{
			name:       "mapped container",
			args:       []string{container},
			wantCode:   exit.CodeFailure,
			wantErrOut: "not a scalar",
		},
		{
			name:       "missing file keeps other output",
			args:       []string{"--format", "csv", obs, filepath.Join(dir, "absent.json")},
			wantCode:   exit.CodeFailure,
			wantOut:    "local_time,apparent_temp,wind_speed\n20240101160000,21.5,9\n20240101153000,,7\n",
			wantErrOut: "absent.json",
		},
		{
			name:     "verify",
			args:     []string{"--verify", "--format", "csv", obs, more},
			wantCode: exit.CodeOK,
			wantOut: "local_time,apparent_temp,wind_speed\n20240101160000,21.5,9\n20240101153000,,7\n" +
				"20240101153000,,7\n,-1,\n",
		},
		{
			name:     "verify repeated member",
			args:     []string{"--verify", "--format", "csv", repeated},
			wantCode: exit.CodeOK,
			wantOut:  "local_time,apparent_temp,wind_speed\n,1,\n",
		},
		{
			name:       "summary",
			args:       []string{"--summary", "--limit", "1", "--format", "ndjson", obs, other},
			wantCode:   exit.CodeOK,
			wantOut:    `{"local_time":"20240101160000","apparent_temp":"21.5","wind_speed":"9"}` + "\n",
			wantErrOut: "other.json: not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, out, errOut := newRunner(t, tt.args...)

			code := r.Run(context.Background())
			if code != tt.wantCode {
				t.Errorf("Run() = %d, want %d (stderr %q)", code, tt.wantCode, errOut.String())
			}
			if tt.wantOut != "" && out.String() != tt.wantOut {
				t.Errorf("stdout = %q, want %q", out.String(), tt.wantOut)
			}
			if !strings.Contains(errOut.String(), tt.wantErrOut) {
				t.Errorf("stderr = %q, want it to contain %q", errOut.String(), tt.wantErrOut)
			}
		})
	}
}

func TestRun_DeepFindsNestedArray(t *testing.T) {
	doc := writeDoc(t, t.TempDir(), "nested.json", `{"meta":{"obs":{"data":[{"apparent_t":"4"}]}}}`)
	r, out, _ := newRunner(t, "--deep", "--format", "ndjson", doc)

	if code := r.Run(context.Background()); code != exit.CodeOK {
		t.Fatalf("Run() = %d", code)
	}
	if got := out.String(); got != `{"apparent_temp":"4"}`+"\n" {
		t.Errorf("stdout = %q", got)
	}
}

func TestRun_HTTPSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, observations)
	}))
	defer srv.Close()

	r, out, _ := newRunner(t, "--format", "csv", srv.URL+"/obs.json")
	if code := r.Run(context.Background()); code != exit.CodeOK {
		t.Fatalf("Run() = %d", code)
	}
	if !strings.Contains(out.String(), "20240101160000,21.5,9") {
		t.Errorf("stdout = %q", out.String())
	}
}

func TestRun_Watch(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = io.WriteString(w, observations)
	}))
	defer srv.Close()

	r, out, errOut := newRunner(t, "--watch", "40ms", "--dedupe", "--summary", "--format", "ndjson", srv.URL)

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()

	if code := r.Run(ctx); code != exit.CodeOK {
		t.Fatalf("Run() = %d", code)
	}
	if n := hits.Load(); n < 2 {
		t.Errorf("source fetched %d times, want at least 2", n)
	}
	// Later passes see the same observations and print nothing new.
	if got := strings.Count(out.String(), "\n"); got != 2 {
		t.Errorf("stdout has %d records, want 2:\n%s", got, out.String())
	}
	if !strings.Contains(errOut.String(), "PASSES:") {
		t.Errorf("stderr missing aggregated summary:\n%s", errOut.String())
	}
}

func TestRun_RedactsCredentials(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	r, _, errOut := newRunner(t, "--summary", srv.URL+"/obs.json?token=hunter2")
	if code := r.Run(context.Background()); code != exit.CodeFailure {
		t.Fatalf("Run() = %d, want %d", code, exit.CodeFailure)
	}
	if strings.Contains(errOut.String(), "hunter2") {
		t.Errorf("stderr leaks the token:\n%s", errOut.String())
	}
	if !strings.Contains(errOut.String(), "token=REDACTED") {
		t.Errorf("stderr = %q", errOut.String())
	}
}
