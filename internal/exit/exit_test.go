package exit

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/jacoelho/jscan/internal/scan"
)

func TestFromError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantMsg  string
	}{
		{name: "nil", err: nil, wantCode: CodeOK},
		{name: "malformed", err: fmt.Errorf("doc.json: %w", scan.ErrMalformed), wantCode: CodeMalformed, wantMsg: "Error: doc.json: token: malformed JSON structure\n"},
		{name: "other", err: errors.New("boom"), wantCode: CodeFailure, wantMsg: "Error: boom\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := FromError(tt.err)
			if r.ExitCode != tt.wantCode {
				t.Errorf("ExitCode = %d, want %d", r.ExitCode, tt.wantCode)
			}
			if r.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", r.Message, tt.wantMsg)
			}
		})
	}
}

func TestResults(t *testing.T) {
	tests := []struct {
		name       string
		result     *Result
		wantCode   int
		wantStderr bool
	}{
		{name: "success", result: Success("ok"), wantCode: CodeOK},
		{name: "error", result: Errorf("bad %d", 1), wantCode: CodeFailure, wantStderr: true},
		{name: "usage", result: Usagef("bad flag"), wantCode: CodeUsage, wantStderr: true},
		{name: "not found", result: NotFound("data"), wantCode: CodeNotFound, wantStderr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.result.ExitCode != tt.wantCode {
				t.Errorf("ExitCode = %d, want %d", tt.result.ExitCode, tt.wantCode)
			}
			if got := tt.result.Output == os.Stderr; got != tt.wantStderr {
				t.Errorf("stderr = %t, want %t", got, tt.wantStderr)
			}
		})
	}
}

func TestPrint(t *testing.T) {
	var buf bytes.Buffer
	r := NotFound("data")
	r.Output = &buf
	r.Print()
	if got := buf.String(); got != "array \"data\" not found\n" {
		t.Errorf("Print() wrote %q", got)
	}

	buf.Reset()
	r = Success("")
	r.Output = &buf
	r.Print()
	if buf.Len() != 0 {
		t.Errorf("Print() of empty message wrote %q", buf.String())
	}
}
