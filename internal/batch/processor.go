package batch

import (
	"context"
	"sync"

	"github.com/povarna/generative-ai-agents/kindfilter/internal/metrics"
	"github.com/povarna/generative-ai-agents/kindfilter/internal/models"
	"github.com/rs/zerolog"
)

// Evaluator is satisfied by *gate.Gate.
type Evaluator interface {
	Evaluate(ctx context.Context, text string) models.ModerationVerdict
}

// Result is a verdict for one input line, or the reason the line could not be
// moderated.
type Result struct {
	ID         string
	LineNumber int
	Verdict    *models.ModerationVerdict
	Error      error
}

type Processor struct {
	evaluator Evaluator
	workers   int
	logger    *zerolog.Logger
}

func NewProcessor(evaluator Evaluator, workers int, logger *zerolog.Logger) *Processor {
	if workers < 1 {
		workers = 1
	}
	return &Processor{
		evaluator: evaluator,
		workers:   workers,
		logger:    logger,
	}
}

// Process fans records out to the worker pool. Results arrive in completion
// order; the channel closes once every record is handled or ctx is done.
func (p *Processor) Process(ctx context.Context, records []InputRecord) <-chan Result {
	jobs := make(chan InputRecord)
	results := make(chan Result)

	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for record := range jobs {
				result := p.handle(ctx, record)
				select {
				case results <- result:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, record := range records {
			select {
			case jobs <- record:
			case <-ctx.Done():
				p.logger.Warn().Int("line", record.LineNumber).Msg("Batch cancelled")
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	return results
}

func (p *Processor) handle(ctx context.Context, record InputRecord) Result {
	result := Result{
		ID:         record.Request.RequestID,
		LineNumber: record.LineNumber,
	}
	if record.Error != nil {
		result.Error = record.Error
		return result
	}

	verdict := p.evaluator.Evaluate(ctx, record.Request.Text)
	verdict.RequestID = record.Request.RequestID
	metrics.Record(metrics.SourceBatch, verdict)

	p.logger.Debug().
		Str("id", result.ID).
		Int("line", record.LineNumber).
		Str("outcome", string(verdict.Outcome)).
		Msg("Record moderated")

	result.Verdict = &verdict
	return result
}
