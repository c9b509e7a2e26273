package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/quantbench/internal/modules/analytics"
	"github.com/aristath/quantbench/internal/modules/portfolio"
)

// Builder renders the markdown comparison report from a run summary.
type Builder struct {
	log zerolog.Logger
}

// NewBuilder creates a new report builder
func NewBuilder(log zerolog.Logger) *Builder {
	return &Builder{log: log.With().Str("component", "report").Logger()}
}

// Build renders the full report document.
func (b *Builder) Build(s *Summary) string {
	var sb strings.Builder

	sb.WriteString("# Performance Comparison Report\n\n")
	fmt.Fprintf(&sb, "- Run: `%s`\n", s.RunID)
	fmt.Fprintf(&sb, "- Scenario: %s\n", s.Scenario)
	fmt.Fprintf(&sb, "- Dataset: `%s` (%d rows, %d symbols)\n", s.Dataset, s.Rows, s.Symbols)
	fmt.Fprintf(&sb, "- Rolling window: %d | Timed runs: %d | Workers: %d\n", s.Window, s.Runs, s.Workers)
	fmt.Fprintf(&sb, "- Generated: %s\n", s.GeneratedAt.UTC().Format(time.RFC3339))

	sb.WriteString("\n## 1. Performance Summary Table\n\n")
	writeSummaryTable(&sb, s)

	sb.WriteString("\n## 2. Portfolio Aggregate\n\n")
	writeAggregate(&sb, s)

	sb.WriteString("\n## 3. Discussion of Tradeoffs\n\n")
	writeIngestionDiscussion(&sb, s)
	writeRollingDiscussion(&sb, s)
	writeTransformDiscussion(&sb, s)
	writeAggregationDiscussion(&sb, s)

	return sb.String()
}

func writeSummaryTable(sb *strings.Builder, s *Summary) {
	sb.WriteString("| Task | Candidate | Time (ms) | Memory (MiB) |\n")
	sb.WriteString("|------|-----------|----------:|-------------:|\n")
	for _, r := range s.Ingestion {
		fmt.Fprintf(sb, "| 1. Ingestion | %s | %.3f | %.2f |\n", r.Engine, r.AvgLoadMS, r.PeakMiB)
	}
	if s.Rolling != nil {
		for _, r := range s.Rolling.Results {
			fmt.Fprintf(sb, "| 2. Rolling analytics | %s | %.3f | - |\n", r.Engine, r.AvgComputeMS)
		}
	}
	for _, r := range s.Transform {
		fmt.Fprintf(sb, "| 3. Rolling transform | %s | %.3f | %.2f |\n", r.Strategy, r.DurationMS, r.MemoryMiB)
	}
	for _, r := range s.Aggregation {
		fmt.Fprintf(sb, "| 4. Portfolio aggregation | %s | %.3f | %.2f |\n", r.Strategy, r.DurationMS, r.MemoryMiB)
	}
}

func writeAggregate(sb *strings.Builder, s *Summary) {
	fmt.Fprintf(sb, "- Positions: %d\n", s.Positions)
	fmt.Fprintf(sb, "- Total value: %.2f\n", s.TotalValue)
	fmt.Fprintf(sb, "- Aggregate volatility: %.4f\n", s.AggregateVolatility)
	fmt.Fprintf(sb, "- Max drawdown: %.4f\n", s.MaxDrawdown)

	if s.StrategiesAgree {
		sb.WriteString("\nVerification: every strategy produced the same enriched tree.\n")
	} else {
		sb.WriteString("\n**Verification FAILED: strategies disagree. The timings above are not comparable.**\n")
	}
}

func writeIngestionDiscussion(sb *strings.Builder, s *Summary) {
	sb.WriteString("### Ingestion engines (Task 1)\n\n")

	timings := make([]timing, 0, len(s.Ingestion))
	for _, r := range s.Ingestion {
		timings = append(timings, timing{name: r.Engine, ms: r.AvgLoadMS})
	}
	if len(timings) == 0 {
		sb.WriteString("Not measured on this run.\n\n")
		return
	}

	name, ms := fastest(timings)
	fmt.Fprintf(sb, "Fastest loader: **%s** at %.3f ms average (%s).\n\n", name, ms, joinTimings(timings))
	sb.WriteString("The row engine appends parsed records to one slice of structs. " +
		"It is the simplest to write and to debug, but every record carries the full " +
		"struct layout whether or not a consumer needs all fields. " +
		"The columnar engine appends each field to its own typed column, which keeps " +
		"values of the same kind adjacent in memory and is what makes the vectorized " +
		"kernels in Task 2 possible. " +
		"The SQL engine pays for statement execution and transaction bookkeeping on " +
		"the way in and a full table scan on the way out; in exchange the data becomes " +
		"queryable with indexes instead of hand-written loops. For a load-once " +
		"benchmark that overhead is pure cost, and the numbers show it.\n\n")
}

func writeRollingDiscussion(sb *strings.Builder, s *Summary) {
	sb.WriteString("### Rolling analytics kernels (Task 2)\n\n")

	if s.Rolling == nil || len(s.Rolling.Results) == 0 {
		sb.WriteString("Not measured on this run.\n\n")
		return
	}

	timings := make([]timing, 0, len(s.Rolling.Results))
	for _, r := range s.Rolling.Results {
		timings = append(timings, timing{name: r.Engine, ms: r.AvgComputeMS})
	}
	name, ms := fastest(timings)
	fmt.Fprintf(sb, "Fastest kernel: **%s** at %.3f ms average (%s). "+
		"The kernels agreed within %.2g across every series.\n\n",
		name, ms, joinTimings(timings), s.Rolling.MaxDeviation)
	sb.WriteString("The row kernel recomputes each window from scratch, O(n*w) per " +
		"series, but allocates nothing beyond the output slices. The columnar kernel " +
		"computes each statistic as a single running-sum pass over the whole column, " +
		"O(n) regardless of window size. Both finish in milliseconds at this dataset " +
		"size; the gap widens with longer histories and larger windows.\n\n")
}

func writeTransformDiscussion(sb *strings.Builder, s *Summary) {
	sb.WriteString("### Goroutines vs. processes (Task 3)\n\n")

	timings := transformTimings(s.Transform)
	if len(timings) == 0 {
		sb.WriteString("Not measured on this run.\n\n")
		return
	}

	name, _ := fastest(timings)
	fmt.Fprintf(sb, "On this run: %s. The **%s** strategy finished first.\n\n", joinTimings(timings), name)
	sb.WriteString("Goroutines share the price index directly: fanning one goroutine " +
		"out per symbol costs a few microseconds of scheduling and no copying at all, " +
		"so the goroutine pool tracks the sequential baseline even when the per-symbol " +
		"work is too small to parallelize profitably. The process pool must serialize " +
		"every symbol's column with msgpack and ship it through a pipe to a freshly " +
		"spawned worker, then decode the result on the way back. That transfer tax is " +
		"the dominant term at this scale, the same effect that makes process pools a " +
		"last resort in runtimes that need them to escape an interpreter lock. Go does " +
		"not need processes for CPU parallelism; what a separate process still buys is " +
		"isolation, since a crashing worker degrades to an error result for its task " +
		"instead of taking the whole run down.\n\n")
}

func writeAggregationDiscussion(sb *strings.Builder, s *Summary) {
	sb.WriteString("### Portfolio aggregation scaling (Task 4)\n\n")

	timings := aggregationTimings(s.Aggregation)
	if len(timings) == 0 {
		sb.WriteString("Not measured on this run.\n")
		return
	}

	name, _ := fastest(timings)
	fmt.Fprintf(sb, "Over %d positions: %s. The **%s** strategy finished first.\n\n",
		s.Positions, joinTimings(timings), name)
	sb.WriteString("With a small tree the sequential walk often wins outright: each " +
		"position costs a map lookup plus one pass over its price history, which is " +
		"cheaper than coordinating workers. The goroutine pool starts paying off as " +
		"the position count grows. The process strategy re-ships the full market " +
		"snapshot to every worker at startup, so it only becomes competitive when the " +
		"tree is large enough to amortize that transfer.\n")
}

type timing struct {
	name string
	ms   float64
}

func fastest(timings []timing) (string, float64) {
	best := timings[0]
	for _, t := range timings[1:] {
		if t.ms < best.ms {
			best = t
		}
	}
	return best.name, best.ms
}

func joinTimings(timings []timing) string {
	parts := make([]string, 0, len(timings))
	for _, t := range timings {
		parts = append(parts, fmt.Sprintf("%s %.3f ms", t.name, t.ms))
	}
	return strings.Join(parts, ", ")
}

func transformTimings(results []analytics.StrategyResult) []timing {
	timings := make([]timing, 0, len(results))
	for _, r := range results {
		timings = append(timings, timing{name: r.Strategy, ms: r.DurationMS})
	}
	return timings
}

func aggregationTimings(results []portfolio.StrategyResult) []timing {
	timings := make([]timing, 0, len(results))
	for _, r := range results {
		timings = append(timings, timing{name: r.Strategy, ms: r.DurationMS})
	}
	return timings
}
