package scripts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dop251/goja"
)

// Executor runs script source against a payload and returns the script's
// value plus captured console output.
type Executor interface {
	Execute(ctx context.Context, source string, payload map[string]any) (result string, logs []string, err error)
}

// errInterrupted marks a run stopped by the timeout interrupt.
var errInterrupted = fmt.Errorf("script interrupted")

// GojaExecutor runs scripts in an embedded JavaScript interpreter. Each run
// gets a fresh runtime with an `input` binding and a console whose output
// is captured. Long-running scripts are interrupted when the context ends.
type GojaExecutor struct {
	Timeout time.Duration
}

// NewGojaExecutor returns an executor with the given per-run timeout.
func NewGojaExecutor(timeout time.Duration) *GojaExecutor {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &GojaExecutor{Timeout: timeout}
}

// Execute implements Executor.
func (e *GojaExecutor) Execute(ctx context.Context, source string, payload map[string]any) (string, []string, error) {
	vm := goja.New()
	vm.SetFieldNameMapper(goja.TagFieldNameMapper("json", true))

	var logs []string
	console := vm.NewObject()
	logFn := func(call goja.FunctionCall) goja.Value {
		parts := make([]string, 0, len(call.Arguments))
		for _, arg := range call.Arguments {
			parts = append(parts, fmt.Sprintf("%v", arg.Export()))
		}
		logs = append(logs, strings.Join(parts, " "))
		return goja.Undefined()
	}
	_ = console.Set("log", logFn)
	_ = console.Set("error", logFn)
	_ = vm.Set("console", console)

	if payload == nil {
		payload = map[string]any{}
	}
	_ = vm.Set("input", payload)

	runCtx, cancel := context.WithTimeout(ctx, e.Timeout)
	defer cancel()

	done := make(chan struct{})
	go func() {
		select {
		case <-runCtx.Done():
			vm.Interrupt(errInterrupted)
		case <-done:
		}
	}()

	value, err := vm.RunString(source)
	close(done)

	if err != nil {
		var interrupted *goja.InterruptedError
		if errors.As(err, &interrupted) || runCtx.Err() != nil {
			return "", logs, fmt.Errorf("script exceeded %s: %w", e.Timeout, errInterrupted)
		}
		return "", logs, fmt.Errorf("script error: %w", err)
	}

	result, err := marshalResult(value)
	if err != nil {
		return "", logs, err
	}
	return result, logs, nil
}

func marshalResult(value goja.Value) (string, error) {
	if value == nil || goja.IsUndefined(value) || goja.IsNull(value) {
		return "null", nil
	}
	exported := value.Export()
	data, err := json.Marshal(exported)
	if err != nil {
		return "", fmt.Errorf("script result is not serializable: %w", err)
	}
	return string(data), nil
}

// IsTimeout reports whether an execution error was a timeout interrupt.
func IsTimeout(err error) bool {
	return err != nil && strings.Contains(err.Error(), errInterrupted.Error())
}
