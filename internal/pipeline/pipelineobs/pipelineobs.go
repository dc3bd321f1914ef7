package pipelineobs

import (
	"context"

	"news-impact/internal/logger"
	"news-impact/internal/pipeline"
	"news-impact/internal/trace"
)

// observableRunner wraps a pipeline runner with a root span per run
type observableRunner struct {
	runner pipeline.Runner
}

var _ pipeline.Runner = (*observableRunner)(nil)

// Wrap wraps a runner with observability middleware
func Wrap(runner pipeline.Runner) pipeline.Runner {
	return &observableRunner{runner: runner}
}

// Run executes the pipeline inside a span and logs the outcome counts
func (o *observableRunner) Run(ctx context.Context, req pipeline.Request) (pipeline.Summary, error) {
	ctx, span := trace.StartSpan(ctx, "pipeline.Run")
	defer span.End()

	summary, err := o.runner.Run(ctx, req)
	trace.SetInt(span, "companies_attempted", summary.CompaniesAttempted)
	trace.SetInt(span, "docs_written", summary.DocsWritten)
	trace.SetInt(span, "docs_failed", summary.DocsFailed)
	if err != nil {
		trace.Fail(span, err)
		logger.ErrorWithErr(ctx, "Pipeline run failed", err,
			"run_id", summary.RunID,
			"companies", len(req.Companies),
		)
		return summary, err
	}

	for _, oc := range summary.Outcomes {
		if oc.State == pipeline.StateFailed {
			logger.Warn(ctx, "Company failed", "company", oc.Company, "error", oc.Err)
		}
	}
	return summary, nil
}
