package portfolio

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/aristath/quantbench/internal/marketdata"
)

// WorkerMode is the process-pool mode identifier for position computation.
const WorkerMode = "portfolio"

// workerInit is the startup payload shipped to each worker process: the
// full market-data snapshot plus the volatility window.
type workerInit struct {
	Snapshot *marketdata.Snapshot `msgpack:"snapshot"`
	Window   int                  `msgpack:"window"`
}

// WorkerHandler computes position tasks inside a worker process.
type WorkerHandler struct {
	calc *Calculator
	log  zerolog.Logger
}

// NewWorkerHandler creates the handler registered for WorkerMode.
func NewWorkerHandler(log zerolog.Logger) *WorkerHandler {
	return &WorkerHandler{log: log.With().Str("worker", WorkerMode).Logger()}
}

// Init rebuilds the price index from the snapshot sent by the parent.
func (h *WorkerHandler) Init(payload []byte) error {
	var init workerInit
	if err := msgpack.Unmarshal(payload, &init); err != nil {
		return fmt.Errorf("failed to decode init payload: %w", err)
	}
	if init.Snapshot == nil {
		return fmt.Errorf("init payload has no market data snapshot")
	}

	idx := marketdata.FromSnapshot(init.Snapshot)
	h.calc = NewCalculator(idx, init.Window, h.log)

	h.log.Debug().
		Int("symbols", len(idx.Symbols())).
		Int("records", idx.NumRecords()).
		Msg("Worker initialized")
	return nil
}

// Handle computes one position task.
func (h *WorkerHandler) Handle(payload []byte) ([]byte, error) {
	if h.calc == nil {
		return nil, fmt.Errorf("worker not initialized")
	}

	var pos Position
	if err := msgpack.Unmarshal(payload, &pos); err != nil {
		return nil, fmt.Errorf("failed to decode position task: %w", err)
	}

	result := h.calc.Compute(pos)

	out, err := msgpack.Marshal(&result)
	if err != nil {
		return nil, fmt.Errorf("failed to encode position result: %w", err)
	}
	return out, nil
}
