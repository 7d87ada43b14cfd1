package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/leapstack-labs/tdiff/pkg/classify"
	"github.com/leapstack-labs/tdiff/pkg/core"
	"github.com/leapstack-labs/tdiff/pkg/resolve"
	"github.com/leapstack-labs/tdiff/pkg/synth"
)

// Description is a resolved and classified table.
type Description struct {
	Resolution *resolve.Result
	Columns    *classify.Set
}

// Report is a synthesized change report and, unless it ran in debug mode,
// its result set.
type Report struct {
	RunID        string
	Capabilities core.Capabilities
	Description
	Query *synth.Query

	Executed bool
	Columns  []string
	Rows     [][]any
	Duration time.Duration
}

// Generate validates the request, checks the host engine and synthesizes the
// query without executing it.
//
// Validation and the capability check both happen before any metadata is
// read; either failing aborts the call.
func (e *Engine) Generate(ctx context.Context, req core.Request) (*Report, error) {
	runID := uuid.NewString()
	log := e.logger.With(slog.String("run_id", runID))

	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}
	caps, err := e.Check(ctx)
	if err != nil {
		return nil, err
	}

	desc, err := e.describe(ctx, log, req)
	if err != nil {
		return nil, err
	}

	q, err := synth.New(e.dialect).Generate(desc.Resolution, desc.Columns, req)
	if err != nil {
		return nil, fmt.Errorf("synthesize %s: %w", desc.Resolution.Primary().QualifiedName(), err)
	}

	log.Info("query synthesized",
		slog.String("table", desc.Resolution.Primary().QualifiedName()),
		slog.Int("tracked_columns", len(q.Plan.Tracked)),
		slog.Bool("attribution", q.Plan.Attribution != nil),
		slog.Bool("key_filter", q.Plan.HasKey))

	return &Report{
		RunID:        runID,
		Capabilities: caps,
		Description:  *desc,
		Query:        q,
		Columns:      q.Columns,
	}, nil
}

// Run generates the report query and, unless req.Debug is set, executes it.
func (e *Engine) Run(ctx context.Context, req core.Request) (*Report, error) {
	report, err := e.Generate(ctx, req)
	if err != nil {
		return nil, err
	}
	if req.Debug {
		return report, nil
	}

	if err := e.ensureDBConnected(ctx); err != nil {
		return nil, fmt.Errorf("execute report: %w", err)
	}

	log := e.logger.With(slog.String("run_id", report.RunID))
	start := time.Now()

	rows, err := e.db.Query(ctx, report.Query.Text)
	if err != nil {
		return nil, fmt.Errorf("execute report: %w", err)
	}
	defer func() { _ = rows.Close() }()

	columns, data, err := collect(rows)
	if err != nil {
		return nil, fmt.Errorf("read report rows: %w", err)
	}

	report.Executed = true
	report.Columns = columns
	report.Rows = data
	report.Duration = time.Since(start)

	log.Info("report executed",
		slog.Int("rows", len(data)),
		slog.Duration("duration", report.Duration))
	return report, nil
}

// Describe resolves and classifies a table without synthesizing a query.
// Only the table, attribution, ignore, mask and format fields of req are used.
func (e *Engine) Describe(ctx context.Context, req core.Request) (*Description, error) {
	if req.Table == "" {
		return nil, core.ErrEmptyTable
	}
	log := e.logger.With(slog.String("run_id", uuid.NewString()))
	return e.describe(ctx, log, req)
}

func (e *Engine) describe(ctx context.Context, log *slog.Logger, req core.Request) (*Description, error) {
	provider, err := e.metadata(ctx)
	if err != nil {
		return nil, err
	}

	schema, name := e.dialect.SplitQualifiedNameIn(req.Table, e.schema)
	log.Debug("resolving table", slog.String("schema", schema), slog.String("table", name))

	res, err := resolve.New(provider, log).Resolve(ctx, schema, name, req.AttributionColumn)
	if err != nil {
		return nil, err
	}
	if req.AttributionColumn != "" {
		if _, _, ok := res.Attribution(); !ok {
			log.Warn("attribution column has no usable foreign key; attribution omitted",
				slog.String("column", req.AttributionColumn))
		}
	}

	cols, err := classify.New(provider, log).Classify(ctx, res, classify.OptionsFromRequest(req))
	if err != nil {
		return nil, err
	}
	return &Description{Resolution: res, Columns: cols}, nil
}

// collect reads every row. Byte slices become strings.
func collect(rows *core.Rows) ([]string, [][]any, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}

	var data [][]any
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, err
		}
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		data = append(data, values)
	}
	return columns, data, rows.Err()
}
