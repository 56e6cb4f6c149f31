// Package evaluation wires the dataset, predictor, bootstrap and report
// packages into the runnable pipelines behind the CLI.
package evaluation

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/banshee-data/cropaccuracy/internal/bootstrap"
	"github.com/banshee-data/cropaccuracy/internal/config"
	"github.com/banshee-data/cropaccuracy/internal/dataset"
	"github.com/banshee-data/cropaccuracy/internal/fsutil"
	"github.com/banshee-data/cropaccuracy/internal/httputil"
	"github.com/banshee-data/cropaccuracy/internal/metrics"
	"github.com/banshee-data/cropaccuracy/internal/monitoring"
	"github.com/banshee-data/cropaccuracy/internal/predict"
	"github.com/banshee-data/cropaccuracy/internal/report"
	"github.com/banshee-data/cropaccuracy/internal/security"
	"github.com/banshee-data/cropaccuracy/internal/store"
	"github.com/banshee-data/cropaccuracy/internal/timeutil"
)

// ErrNoPredictor is returned when neither a prediction column nor a
// predictor URL is configured.
var ErrNoPredictor = errors.New("no predictor configured")

// Runner executes evaluations for one configuration. Predictor, HTTP and
// Store are optional; when Predictor is nil one is chosen from the
// configuration.
type Runner struct {
	Config    *config.EvalConfig
	FS        fsutil.FileSystem
	Clock     timeutil.Clock
	Predictor predict.Predictor
	HTTP      httputil.HTTPClient
	Store     *store.Store
}

// NewRunner returns a Runner using the OS filesystem and real clock.
func NewRunner(cfg *config.EvalConfig) *Runner {
	if cfg == nil {
		cfg = config.EmptyEvalConfig()
	}
	return &Runner{
		Config: cfg,
		FS:     fsutil.OSFileSystem{},
		Clock:  timeutil.RealClock{},
	}
}

// BootstrapResult summarises a bootstrap run.
type BootstrapResult struct {
	RunID   string
	Table   *bootstrap.ResultTable
	Outputs []string
	Total   int
	Dropped int
	Elapsed time.Duration
}

// input is the cleaned table together with its predictions.
type input struct {
	table     *dataset.Table
	predicted []string
	predictor string
}

// Bootstrap runs the per-crop, per-week bootstrap accuracy evaluation and
// writes its CSV, PNG and optional HTML outputs.
func (r *Runner) Bootstrap(ctx context.Context) (*BootstrapResult, error) {
	cfg := r.Config
	start := r.Clock.Now()

	in, err := r.loadAndPredict(ctx)
	if err != nil {
		return nil, err
	}

	strata, err := bootstrap.PartitionPairs(in.table.Labels(), in.predicted, in.table.Crops(), in.table.Weeks())
	if err != nil {
		return nil, err
	}
	monitoring.Logf("bootstrapping %d strata with %d resamples each", len(strata), cfg.GetNResamples())

	table, err := bootstrap.Aggregate(ctx, strata, cfg.GetNResamples(), bootstrap.AggregateOptions{
		Workers: cfg.GetWorkers(),
		Seeder:  bootstrap.KeyedSeeder(cfg.GetSeed()),
	})
	if err != nil {
		return nil, fmt.Errorf("bootstrap failed: %w", err)
	}

	w := report.NewWriter(r.FS, cfg.GetOutputDir(), cfg.GetDatasetName())
	outputs, err := w.WriteBootstrap(table, report.BootstrapOptions{
		Sigma:      cfg.GetSmoothingSigma(),
		CropColors: cfg.CropColors,
		HTML:       cfg.GetWriteHTML(),
	})
	if err != nil {
		return nil, err
	}

	res := &BootstrapResult{
		Table:   table,
		Outputs: outputs,
		Total:   in.table.Total,
		Dropped: in.table.Dropped,
		Elapsed: r.Clock.Since(start),
	}

	if r.Store != nil {
		run := &store.Run{
			Dataset:       cfg.GetDatasetName(),
			InputFile:     cfg.GetInputFile(),
			Predictor:     in.predictor,
			StartedAt:     start,
			Duration:      res.Elapsed,
			NResamples:    cfg.GetNResamples(),
			Seed:          cfg.GetSeed(),
			NObservations: len(in.table.Rows),
			NDropped:      in.table.Dropped,
			Rows:          table.Rows,
		}
		if err := r.Store.RecordRun(ctx, run); err != nil {
			return nil, err
		}
		res.RunID = run.ID
	}

	monitoring.Logf("wrote %d strata for %s in %v", table.Len(), cfg.GetDatasetName(), res.Elapsed)
	return res, nil
}

// WeekMetrics computes MAE, MSE, R² and accuracy per week and writes
// them to the week metrics CSV, whose path is returned.
func (r *Runner) WeekMetrics(ctx context.Context) ([]metrics.WeekMetrics, string, error) {
	in, err := r.loadAndPredict(ctx)
	if err != nil {
		return nil, "", err
	}
	rows, err := metrics.ByWeek(in.table.Labels(), in.predicted, in.table.Weeks())
	if err != nil {
		return nil, "", err
	}
	w := report.NewWriter(r.FS, r.Config.GetOutputDir(), r.Config.GetDatasetName())
	path, err := w.WriteWeekMetrics(rows)
	if err != nil {
		return nil, "", err
	}
	monitoring.Logf("wrote metrics for %d weeks to %s", len(rows), path)
	return rows, path, nil
}

// ExportInput writes the model-input CSV (identifier columns, week,
// features, label) and returns its path and row count.
func (r *Runner) ExportInput(ctx context.Context) (string, int, error) {
	if err := ctx.Err(); err != nil {
		return "", 0, err
	}
	cfg := r.Config
	features, err := dataset.LoadFeatureList(r.FS, cfg.GetFeaturesFile())
	if err != nil {
		return "", 0, err
	}
	dir := cfg.GetExportDir()
	out, err := security.JoinWithin(dir, security.SanitizeFilename(cfg.GetDatasetName())+report.SuffixModelInput)
	if err != nil {
		return "", 0, err
	}
	if err := r.FS.MkdirAll(dir, 0o755); err != nil {
		return "", 0, fmt.Errorf("failed to create export dir: %w", err)
	}
	cols := dataset.ModelInputColumns(cfg.GetIDColumns(), cfg.GetWeekColumn(), features, cfg.GetLabelColumn())
	n, err := dataset.ExportColumns(r.FS, cfg.GetInputFile(), out, cols)
	if err != nil {
		return "", 0, err
	}
	monitoring.Logf("exported %d rows with %d columns to %s", n, len(cols), out)
	return out, n, nil
}

func (r *Runner) loadAndPredict(ctx context.Context) (*input, error) {
	cfg := r.Config
	features, err := dataset.LoadFeatureList(r.FS, cfg.GetFeaturesFile())
	if err != nil {
		return nil, err
	}
	table, err := dataset.ReadTable(r.FS, cfg.GetInputFile(), dataset.Columns{
		Features:   features,
		Label:      cfg.GetLabelColumn(),
		Crop:       cfg.GetCropColumn(),
		Week:       cfg.GetWeekColumn(),
		Prediction: cfg.GetPredictionColumn(),
	})
	if err != nil {
		return nil, err
	}
	monitoring.Logf("loaded %d of %d rows from %s", len(table.Rows), table.Total, table.Path)

	p, name, err := r.predictor(table)
	if err != nil {
		return nil, err
	}
	predicted, err := p.Predict(ctx, table.FeatureMatrix())
	if err != nil {
		return nil, fmt.Errorf("prediction failed: %w", err)
	}
	return &input{table: table, predicted: predicted, predictor: name}, nil
}

// predictor resolves the Predictor for table: an injected one first, then
// the prediction column, then the remote model server.
func (r *Runner) predictor(table *dataset.Table) (predict.Predictor, string, error) {
	cfg := r.Config
	switch {
	case r.Predictor != nil:
		return r.Predictor, "custom", nil
	case table.HasPredictions:
		return predict.NewPrecomputed(table.Predictions()), "column:" + cfg.GetPredictionColumn(), nil
	case cfg.GetPredictorURL() != "":
		client := r.HTTP
		if client == nil {
			client = httputil.NewStandardClient(&http.Client{})
		}
		p, err := predict.NewRemote(client, predict.RemoteOptions{
			URL:       cfg.GetPredictorURL(),
			Features:  table.Features,
			BatchSize: cfg.GetPredictBatchSize(),
			Timeout:   cfg.GetPredictTimeout(),
		})
		if err != nil {
			return nil, "", err
		}
		return p, "remote:" + cfg.GetPredictorURL(), nil
	}
	return nil, "", fmt.Errorf("%w: set prediction_column or predictor_url", ErrNoPredictor)
}
