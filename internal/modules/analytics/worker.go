package analytics

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
)

// WorkerMode is the process-pool mode identifier for rolling analytics.
const WorkerMode = "analytics"

// workerInit is the startup payload for analytics workers. Unlike portfolio
// workers they carry no shared dataset; each task ships its own column.
type workerInit struct {
	Window int `msgpack:"window"`
}

// symbolTask is one unit of work: a symbol and its ascending price column.
type symbolTask struct {
	Symbol string    `msgpack:"symbol"`
	Prices []float64 `msgpack:"prices"`
}

// WorkerHandler computes symbol tasks inside a worker process.
type WorkerHandler struct {
	kernel Engine
	window int
	log    zerolog.Logger
}

// NewWorkerHandler creates the handler registered for WorkerMode.
func NewWorkerHandler(log zerolog.Logger) *WorkerHandler {
	return &WorkerHandler{log: log.With().Str("worker", WorkerMode).Logger()}
}

// Init records the rolling window sent by the parent.
func (h *WorkerHandler) Init(payload []byte) error {
	var init workerInit
	if err := msgpack.Unmarshal(payload, &init); err != nil {
		return fmt.Errorf("failed to decode init payload: %w", err)
	}
	if init.Window < 1 {
		return fmt.Errorf("invalid rolling window %d", init.Window)
	}

	h.kernel = RowEngine{}
	h.window = init.Window

	h.log.Debug().Int("window", h.window).Msg("Worker initialized")
	return nil
}

// Handle computes one symbol task.
func (h *WorkerHandler) Handle(payload []byte) ([]byte, error) {
	if h.kernel == nil {
		return nil, fmt.Errorf("worker not initialized")
	}

	var task symbolTask
	if err := msgpack.Unmarshal(payload, &task); err != nil {
		return nil, fmt.Errorf("failed to decode symbol task: %w", err)
	}

	m := h.kernel.Compute(task.Prices, h.window)
	m.Symbol = task.Symbol

	out, err := msgpack.Marshal(&m)
	if err != nil {
		return nil, fmt.Errorf("failed to encode symbol result: %w", err)
	}
	return out, nil
}
