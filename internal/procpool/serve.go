package procpool

import (
	"fmt"
	"io"
)

// Handler is the worker-side counterpart of a pool mode. Init runs once
// with the pool's init payload before any task arrives.
type Handler interface {
	Init(payload []byte) error
	Handle(payload []byte) ([]byte, error)
}

// HandlerRegistry resolves a mode name to a fresh handler. The worker
// subcommand owns the registry so every pool mode in the binary is
// reachable from one entry point.
type HandlerRegistry func(mode string) (Handler, error)

// Serve runs the worker side of the protocol on the given streams: read the
// init frame, then answer task frames until stdin closes. Handler errors and
// panics become error results; only protocol failures end the loop early.
func Serve(r io.Reader, w io.Writer, registry HandlerRegistry) error {
	var init initFrame
	if err := readFrame(r, &init); err != nil {
		if err == io.EOF {
			return fmt.Errorf("stdin closed before init frame")
		}
		return fmt.Errorf("failed to read init frame: %w", err)
	}

	handler, err := registry(init.Mode)
	if err != nil {
		return fmt.Errorf("unknown worker mode %q: %w", init.Mode, err)
	}
	if err := handler.Init(init.Payload); err != nil {
		return fmt.Errorf("handler init failed: %w", err)
	}

	for {
		var task Task
		if err := readFrame(r, &task); err != nil {
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("failed to read task frame: %w", err)
		}

		result := handle(handler, &task)
		if err := writeFrame(w, result); err != nil {
			return fmt.Errorf("failed to write result frame: %w", err)
		}
	}
}

// handle runs one task, containing handler panics so a single poisoned task
// cannot kill the worker.
func handle(handler Handler, task *Task) (result *Result) {
	defer func() {
		if r := recover(); r != nil {
			result = &Result{Ordinal: task.Ordinal, Err: fmt.Sprintf("handler panic: %v", r)}
		}
	}()

	payload, err := handler.Handle(task.Payload)
	if err != nil {
		return &Result{Ordinal: task.Ordinal, Err: err.Error()}
	}
	return &Result{Ordinal: task.Ordinal, Payload: payload}
}
