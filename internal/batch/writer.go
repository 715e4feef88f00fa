package batch

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/povarna/generative-ai-agents/kindfilter/internal/models"
	"github.com/rs/zerolog"
)

const (
	FormatJSONL   = "jsonl"
	FormatSummary = "summary"
)

type Writer interface {
	Write(result Result) error
	Close() error
}

func NewWriter(output io.Writer, format string, logger *zerolog.Logger) (Writer, error) {
	switch format {
	case FormatJSONL:
		return &jsonlWriter{encoder: json.NewEncoder(output), logger: logger}, nil
	case FormatSummary:
		return &summaryWriter{output: output, outcomes: map[models.Outcome]int{}, logger: logger}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// errorLine is written in place of a verdict for lines that could not be moderated.
type errorLine struct {
	RequestID  string `json:"request_id,omitempty"`
	LineNumber int    `json:"line"`
	Error      string `json:"error"`
}

type jsonlWriter struct {
	encoder *json.Encoder
	logger  *zerolog.Logger
}

func (w *jsonlWriter) Write(result Result) error {
	if result.Error != nil {
		return w.encoder.Encode(errorLine{
			RequestID:  result.ID,
			LineNumber: result.LineNumber,
			Error:      result.Error.Error(),
		})
	}
	return w.encoder.Encode(result.Verdict)
}

func (w *jsonlWriter) Close() error {
	return nil
}

// Summary is the aggregate written by the summary format.
type Summary struct {
	Total    int            `json:"total"`
	Accepted int            `json:"accepted"`
	Rejected int            `json:"rejected"`
	Errors   int            `json:"errors"`
	Outcomes map[string]int `json:"outcomes"`
	Lines    []int          `json:"error_lines,omitempty"`
}

type summaryWriter struct {
	output   io.Writer
	total    int
	accepted int
	errors   []int
	outcomes map[models.Outcome]int
	logger   *zerolog.Logger
}

func (w *summaryWriter) Write(result Result) error {
	w.total++
	if result.Error != nil {
		w.errors = append(w.errors, result.LineNumber)
		return nil
	}
	w.outcomes[result.Verdict.Outcome]++
	if result.Verdict.Accepted {
		w.accepted++
	}
	return nil
}

func (w *summaryWriter) Summary() Summary {
	outcomes := make(map[string]int, len(w.outcomes))
	for outcome, count := range w.outcomes {
		outcomes[string(outcome)] = count
	}

	lines := append([]int(nil), w.errors...)
	sort.Ints(lines)

	return Summary{
		Total:    w.total,
		Accepted: w.accepted,
		Rejected: w.total - w.accepted - len(w.errors),
		Errors:   len(w.errors),
		Outcomes: outcomes,
		Lines:    lines,
	}
}

// Close writes the collected counts.
func (w *summaryWriter) Close() error {
	summary := w.Summary()
	body, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode summary: %w", err)
	}

	w.logger.Info().
		Int("total", summary.Total).
		Int("accepted", summary.Accepted).
		Int("rejected", summary.Rejected).
		Int("errors", summary.Errors).
		Msg("Summary")

	_, err = fmt.Fprintln(w.output, string(body))
	return err
}
