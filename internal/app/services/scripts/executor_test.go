package scripts

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestExecutorResult(t *testing.T) {
	exec := NewGojaExecutor(time.Second)

	result, logs, err := exec.Execute(context.Background(), `({total: 1 + 2, ok: true})`, nil)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(result, `"total":3`) || !strings.Contains(result, `"ok":true`) {
		t.Fatalf("unexpected result %q", result)
	}
	if len(logs) != 0 {
		t.Fatalf("unexpected logs %v", logs)
	}
}

func TestExecutorInputBinding(t *testing.T) {
	exec := NewGojaExecutor(time.Second)

	result, _, err := exec.Execute(context.Background(), `input.a * input.b`, map[string]any{"a": 6, "b": 7})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if result != "42" {
		t.Fatalf("result %q, want 42", result)
	}
}

func TestExecutorConsoleCapture(t *testing.T) {
	exec := NewGojaExecutor(time.Second)

	_, logs, err := exec.Execute(context.Background(), `console.log("step", 1); console.error("oops"); null`, nil)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if len(logs) != 2 || logs[0] != "step 1" || logs[1] != "oops" {
		t.Fatalf("unexpected logs %v", logs)
	}
}

func TestExecutorUndefinedResult(t *testing.T) {
	exec := NewGojaExecutor(time.Second)

	result, _, err := exec.Execute(context.Background(), `var x = 1;`, nil)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if result != "null" {
		t.Fatalf("result %q, want null", result)
	}
}

func TestExecutorScriptError(t *testing.T) {
	exec := NewGojaExecutor(time.Second)

	_, _, err := exec.Execute(context.Background(), `throw new Error("boom")`, nil)
	if err == nil {
		t.Fatalf("expected error")
	}
	if IsTimeout(err) {
		t.Fatalf("script error misreported as timeout: %v", err)
	}
}

func TestExecutorTimeout(t *testing.T) {
	exec := NewGojaExecutor(50 * time.Millisecond)

	_, _, err := exec.Execute(context.Background(), `for (;;) {}`, nil)
	if err == nil {
		t.Fatalf("expected timeout")
	}
	if !IsTimeout(err) {
		t.Fatalf("expected timeout error, got %v", err)
	}
}
