package logger

import (
	"bytes"
	"io"
	"os"
	"sync"
	"testing"
)

func capture(t *testing.T, verboseOn bool) *bytes.Buffer {
	t.Helper()
	t.Cleanup(func() {
		SetVerbose(false)
		SetOutput(os.Stderr)
	})
	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(verboseOn)
	return &buf
}

func TestSetVerbose_Toggles(t *testing.T) {
	capture(t, false)
	if IsVerbose() {
		t.Fatal("expected quiet mode")
	}
	SetVerbose(true)
	if !IsVerbose() {
		t.Fatal("expected verbose mode after SetVerbose(true)")
	}
}

func TestLevels_WhenVerbose(t *testing.T) {
	tests := []struct {
		name string
		emit func()
		want string
	}{
		{"debug", func() { Debug("path deep=%v", true) }, "[DEBUG] path deep=true\n"},
		{"info", func() { Info("facts retrieved: %d", 3) }, "[INFO] facts retrieved: 3\n"},
		{"warn", func() { Warn("port %s skipped", "flights") }, "[WARN] port flights skipped\n"},
		{"section", func() { Section("Retrieve") }, "\n=== Retrieve ===\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := capture(t, true)
			tt.emit()
			if buf.String() != tt.want {
				t.Errorf("got %q, want %q", buf.String(), tt.want)
			}
		})
	}
}

func TestLevels_QuietWhenNotVerbose(t *testing.T) {
	buf := capture(t, false)
	Debug("hidden")
	Info("hidden")
	Warn("hidden")
	Section("Hidden")
	if buf.Len() != 0 {
		t.Errorf("expected no output, got %q", buf.String())
	}
}

func TestConcurrentToggleAndWrite(t *testing.T) {
	capture(t, false)
	SetOutput(io.Discard)
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			SetVerbose(n%2 == 0)
			Debug("request %d", n)
			_ = IsVerbose()
		}(i)
	}
	wg.Wait()
}

func TestError_PrintsWhenNotVerbose(t *testing.T) {
	defer func() {
		SetVerbose(false)
		SetOutput(os.Stderr)
	}()

	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(false)

	Error("port %s failed", "stands")

	if buf.String() != "[ERROR] port stands failed\n" {
		t.Errorf("unexpected output: %q", buf.String())
	}
}

func TestStd_RendersKeyValues(t *testing.T) {
	defer func() {
		SetVerbose(false)
		SetOutput(os.Stderr)
	}()

	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(true)

	Std().Info("intent resolved", "requestId", "r-1", "intent", "help_request")
	Std().Warn("odd", "dangling")

	want := "[INFO] intent resolved requestId=r-1 intent=help_request\n[WARN] odd dangling=?\n"
	if buf.String() != want {
		t.Errorf("unexpected output: %q", buf.String())
	}
}

func TestStd_DebugSilentWhenNotVerbose(t *testing.T) {
	defer func() {
		SetVerbose(false)
		SetOutput(os.Stderr)
	}()

	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(false)

	Std().Debug("hidden", "k", 1)
	Nop{}.Error("discarded")

	if buf.Len() != 0 {
		t.Errorf("expected no output, got %q", buf.String())
	}
}
