// Package procpool runs benchmark work in child OS processes. The parent
// re-executes its own binary in worker mode and streams length-prefixed
// msgpack frames over the worker's stdin/stdout: one init frame carrying the
// shared dataset, then one frame per task. Workers answer with one result
// frame per task and exit when stdin closes.
package procpool

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"
)

// maxFrameBytes bounds a single frame. Snapshots of large datasets dominate
// frame sizes; 256 MiB leaves generous headroom while still catching a
// corrupted length prefix before it turns into a giant allocation.
const maxFrameBytes = 256 << 20

// Task is one unit of work shipped to a worker process. Payload is an
// opaque msgpack blob owned by the handler for the pool's mode.
type Task struct {
	Ordinal int    `msgpack:"ordinal"`
	Payload []byte `msgpack:"payload"`
}

// Result is a worker's answer to one task. Err is set when the handler
// failed or panicked; Payload is only valid when Err is empty.
type Result struct {
	Ordinal int    `msgpack:"ordinal"`
	Payload []byte `msgpack:"payload,omitempty"`
	Err     string `msgpack:"err,omitempty"`
}

// initFrame is the first frame on a worker's stdin: which handler to run
// and its startup payload.
type initFrame struct {
	Mode    string `msgpack:"mode"`
	Payload []byte `msgpack:"payload"`
}

// WriteInit writes the init frame a worker expects before any task.
func WriteInit(w io.Writer, mode string, payload []byte) error {
	return writeFrame(w, &initFrame{Mode: mode, Payload: payload})
}

// WriteTask writes one task frame.
func WriteTask(w io.Writer, task Task) error {
	return writeFrame(w, &task)
}

// ReadResult reads one result frame. Returns io.EOF on a cleanly exhausted
// stream.
func ReadResult(r io.Reader) (Result, error) {
	var res Result
	err := readFrame(r, &res)
	return res, err
}

// writeFrame encodes v and writes it with a big-endian uint32 length prefix.
func writeFrame(w io.Writer, v interface{}) error {
	data, err := msgpack.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode frame: %w", err)
	}
	if len(data) > maxFrameBytes {
		return fmt.Errorf("frame too large: %d bytes", len(data))
	}

	var prefix [4]byte
	binary.BigEndian.PutUint32(prefix[:], uint32(len(data)))
	if _, err := w.Write(prefix[:]); err != nil {
		return fmt.Errorf("failed to write frame length: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write frame body: %w", err)
	}
	return nil
}

// readFrame reads one length-prefixed frame into v. A clean EOF before any
// prefix byte returns io.EOF; EOF mid-frame is an error.
func readFrame(r io.Reader, v interface{}) error {
	var prefix [4]byte
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		if err == io.EOF {
			return io.EOF
		}
		return fmt.Errorf("failed to read frame length: %w", err)
	}

	n := binary.BigEndian.Uint32(prefix[:])
	if n > maxFrameBytes {
		return fmt.Errorf("frame length %d exceeds limit", n)
	}

	data := make([]byte, n)
	if _, err := io.ReadFull(r, data); err != nil {
		return fmt.Errorf("failed to read frame body: %w", err)
	}

	if err := msgpack.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode frame: %w", err)
	}
	return nil
}
