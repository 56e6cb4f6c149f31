package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"
)

// DefaultConfigPath is the path to the example evaluation config shipped
// with the repository.
const DefaultConfigPath = "config/evaluation.defaults.json"

// EvalConfig represents the configuration for one accuracy evaluation run.
// Every field is optional; the Get* accessors supply defaults for anything
// omitted so partial configs are safe.
type EvalConfig struct {
	// Dataset and artefact locations
	DatasetName     *string `json:"dataset_name,omitempty"`
	ReductionMethod *string `json:"reduction_method,omitempty"`
	ModelName       *string `json:"model_name,omitempty"`
	InputFile       *string `json:"input_file,omitempty"`
	FeaturesFile    *string `json:"features_file,omitempty"`
	OutputDir       *string `json:"output_dir,omitempty"`
	ExportDir       *string `json:"export_dir,omitempty"`

	// Column contract
	LabelColumn      *string  `json:"label_column,omitempty"`
	CropColumn       *string  `json:"crop_column,omitempty"`
	WeekColumn       *string  `json:"week_column,omitempty"`
	PredictionColumn *string  `json:"prediction_column,omitempty"`
	IDColumns        []string `json:"id_columns,omitempty"`

	// Remote predictor
	PredictorURL     *string `json:"predictor_url,omitempty"`
	PredictBatchSize *int    `json:"predict_batch_size,omitempty"`
	PredictTimeout   *string `json:"predict_timeout,omitempty"` // duration string like "30s"

	// Bootstrap
	NResamples *int    `json:"n_resamples,omitempty"`
	Seed       *uint64 `json:"seed,omitempty"`
	Workers    *int    `json:"workers,omitempty"`

	// Reporting
	SmoothingSigma *float64          `json:"smoothing_sigma,omitempty"`
	CropColors     map[string]string `json:"crop_colors,omitempty"`
	WriteHTML      *bool             `json:"write_html,omitempty"`

	// Run history; empty disables it.
	DBPath *string `json:"db_path,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }
func ptrUint64(v uint64) *uint64    { return &v }

// EmptyEvalConfig returns an EvalConfig with all fields unset.
func EmptyEvalConfig() *EvalConfig {
	return &EvalConfig{}
}

// LoadEvalConfig loads an EvalConfig from a JSON file.
// The file must have a .json extension and be under 1MB.
func LoadEvalConfig(path string) (*EvalConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyEvalConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

var hexColor = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// Validate checks that the configuration values are valid.
func (c *EvalConfig) Validate() error {
	if c.DatasetName != nil && *c.DatasetName == "" {
		return fmt.Errorf("dataset_name must not be empty")
	}
	if c.NResamples != nil && *c.NResamples <= 0 {
		return fmt.Errorf("n_resamples must be positive, got %d", *c.NResamples)
	}
	if c.Workers != nil && *c.Workers < 0 {
		return fmt.Errorf("workers must be non-negative, got %d", *c.Workers)
	}
	if c.PredictBatchSize != nil && *c.PredictBatchSize <= 0 {
		return fmt.Errorf("predict_batch_size must be positive, got %d", *c.PredictBatchSize)
	}
	if c.PredictTimeout != nil && *c.PredictTimeout != "" {
		if _, err := time.ParseDuration(*c.PredictTimeout); err != nil {
			return fmt.Errorf("invalid predict_timeout '%s': %w", *c.PredictTimeout, err)
		}
	}
	if c.SmoothingSigma != nil && *c.SmoothingSigma < 0 {
		return fmt.Errorf("smoothing_sigma must be non-negative, got %f", *c.SmoothingSigma)
	}
	for crop, col := range c.CropColors {
		if !hexColor.MatchString(col) {
			return fmt.Errorf("crop_colors[%s]: %q is not a #rrggbb colour", crop, col)
		}
	}
	return nil
}

// GetDatasetName returns the dataset name or the default.
func (c *EvalConfig) GetDatasetName() string {
	if c.DatasetName == nil {
		return "SB25rAll"
	}
	return *c.DatasetName
}

// GetReductionMethod returns the reduction suffix used in default file names.
func (c *EvalConfig) GetReductionMethod() string {
	if c.ReductionMethod == nil {
		return "_n0.2_process_filt"
	}
	return *c.ReductionMethod
}

// GetModelName returns the model identifier used in the default features path.
func (c *EvalConfig) GetModelName() string {
	if c.ModelName == nil {
		return "xgb200_nf25_noMet_v1"
	}
	return *c.ModelName
}

// GetInputFile returns the input CSV path, derived from the dataset name
// and reduction method when unset.
func (c *EvalConfig) GetInputFile() string {
	if c.InputFile == nil || *c.InputFile == "" {
		return filepath.Join("Data_Preparation", "InputModel", c.GetDatasetName()+c.GetReductionMethod()+".csv")
	}
	return *c.InputFile
}

// GetFeaturesFile returns the feature list path, derived from the dataset,
// reduction method and model name when unset.
func (c *EvalConfig) GetFeaturesFile() string {
	if c.FeaturesFile == nil || *c.FeaturesFile == "" {
		return filepath.Join("Models", c.GetDatasetName()+c.GetReductionMethod()+"_"+c.GetModelName()+".json")
	}
	return *c.FeaturesFile
}

// GetOutputDir returns the output directory or the default.
func (c *EvalConfig) GetOutputDir() string {
	if c.OutputDir == nil || *c.OutputDir == "" {
		return "Output"
	}
	return *c.OutputDir
}

// GetExportDir returns the directory for the model-input export.
func (c *EvalConfig) GetExportDir() string {
	if c.ExportDir == nil || *c.ExportDir == "" {
		return "OutputSimulation"
	}
	return *c.ExportDir
}

// GetLabelColumn returns the true-label column name or the default.
func (c *EvalConfig) GetLabelColumn() string {
	if c.LabelColumn == nil {
		return "Crop_num"
	}
	return *c.LabelColumn
}

// GetCropColumn returns the crop-type column name or the default.
func (c *EvalConfig) GetCropColumn() string {
	if c.CropColumn == nil {
		return "Crop_type"
	}
	return *c.CropColumn
}

// GetWeekColumn returns the week column name or the default.
func (c *EvalConfig) GetWeekColumn() string {
	if c.WeekColumn == nil {
		return "week"
	}
	return *c.WeekColumn
}

// GetPredictionColumn returns the precomputed prediction column, or "" when
// predictions come from the remote predictor.
func (c *EvalConfig) GetPredictionColumn() string {
	if c.PredictionColumn == nil {
		return ""
	}
	return *c.PredictionColumn
}

// GetIDColumns returns the identifier columns kept by export-input.
func (c *EvalConfig) GetIDColumns() []string {
	if c.IDColumns == nil {
		return []string{"FIELDID", "Year"}
	}
	return c.IDColumns
}

// GetPredictorURL returns the model-serving endpoint or "".
func (c *EvalConfig) GetPredictorURL() string {
	if c.PredictorURL == nil {
		return ""
	}
	return *c.PredictorURL
}

// GetPredictBatchSize returns the number of rows sent per predict request.
func (c *EvalConfig) GetPredictBatchSize() int {
	if c.PredictBatchSize == nil {
		return 512
	}
	return *c.PredictBatchSize
}

// GetPredictTimeout parses and returns the PredictTimeout as a time.Duration.
func (c *EvalConfig) GetPredictTimeout() time.Duration {
	if c.PredictTimeout == nil || *c.PredictTimeout == "" {
		return 30 * time.Second
	}
	d, err := time.ParseDuration(*c.PredictTimeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// GetNResamples returns the number of bootstrap resamples per stratum.
func (c *EvalConfig) GetNResamples() int {
	if c.NResamples == nil {
		return 100
	}
	return *c.NResamples
}

// GetSeed returns the base random seed.
func (c *EvalConfig) GetSeed() uint64 {
	if c.Seed == nil {
		return 42
	}
	return *c.Seed
}

// GetWorkers returns the worker count; 0 means one per CPU.
func (c *EvalConfig) GetWorkers() int {
	if c.Workers == nil {
		return 0
	}
	return *c.Workers
}

// GetSmoothingSigma returns the Gaussian smoothing sigma in weeks.
func (c *EvalConfig) GetSmoothingSigma() float64 {
	if c.SmoothingSigma == nil {
		return 2.0
	}
	return *c.SmoothingSigma
}

// GetWriteHTML reports whether the interactive HTML chart is written.
func (c *EvalConfig) GetWriteHTML() bool {
	if c.WriteHTML == nil {
		return true
	}
	return *c.WriteHTML
}

// GetDBPath returns the run history database path, or "" when disabled.
func (c *EvalConfig) GetDBPath() string {
	if c.DBPath == nil {
		return ""
	}
	return *c.DBPath
}

// Resolved returns a copy of c with every field populated from the Get*
// accessors, suitable for printing the effective configuration.
func (c *EvalConfig) Resolved() *EvalConfig {
	colors := make(map[string]string, len(c.CropColors))
	for k, v := range c.CropColors {
		colors[k] = v
	}
	return &EvalConfig{
		DatasetName:      ptrString(c.GetDatasetName()),
		ReductionMethod:  ptrString(c.GetReductionMethod()),
		ModelName:        ptrString(c.GetModelName()),
		InputFile:        ptrString(c.GetInputFile()),
		FeaturesFile:     ptrString(c.GetFeaturesFile()),
		OutputDir:        ptrString(c.GetOutputDir()),
		ExportDir:        ptrString(c.GetExportDir()),
		LabelColumn:      ptrString(c.GetLabelColumn()),
		CropColumn:       ptrString(c.GetCropColumn()),
		WeekColumn:       ptrString(c.GetWeekColumn()),
		PredictionColumn: ptrString(c.GetPredictionColumn()),
		IDColumns:        append([]string(nil), c.GetIDColumns()...),
		PredictorURL:     ptrString(c.GetPredictorURL()),
		PredictBatchSize: ptrInt(c.GetPredictBatchSize()),
		PredictTimeout:   ptrString(c.GetPredictTimeout().String()),
		NResamples:       ptrInt(c.GetNResamples()),
		Seed:             ptrUint64(c.GetSeed()),
		Workers:          ptrInt(c.GetWorkers()),
		SmoothingSigma:   ptrFloat64(c.GetSmoothingSigma()),
		CropColors:       colors,
		WriteHTML:        ptrBool(c.GetWriteHTML()),
		DBPath:           ptrString(c.GetDBPath()),
	}
}

// Merge overlays every field set in o onto c and returns c.
func (c *EvalConfig) Merge(o *EvalConfig) *EvalConfig {
	if o == nil {
		return c
	}
	if o.DatasetName != nil {
		c.DatasetName = o.DatasetName
	}
	if o.ReductionMethod != nil {
		c.ReductionMethod = o.ReductionMethod
	}
	if o.ModelName != nil {
		c.ModelName = o.ModelName
	}
	if o.InputFile != nil {
		c.InputFile = o.InputFile
	}
	if o.FeaturesFile != nil {
		c.FeaturesFile = o.FeaturesFile
	}
	if o.OutputDir != nil {
		c.OutputDir = o.OutputDir
	}
	if o.ExportDir != nil {
		c.ExportDir = o.ExportDir
	}
	if o.LabelColumn != nil {
		c.LabelColumn = o.LabelColumn
	}
	if o.CropColumn != nil {
		c.CropColumn = o.CropColumn
	}
	if o.WeekColumn != nil {
		c.WeekColumn = o.WeekColumn
	}
	if o.PredictionColumn != nil {
		c.PredictionColumn = o.PredictionColumn
	}
	if o.IDColumns != nil {
		c.IDColumns = o.IDColumns
	}
	if o.PredictorURL != nil {
		c.PredictorURL = o.PredictorURL
	}
	if o.PredictBatchSize != nil {
		c.PredictBatchSize = o.PredictBatchSize
	}
	if o.PredictTimeout != nil {
		c.PredictTimeout = o.PredictTimeout
	}
	if o.NResamples != nil {
		c.NResamples = o.NResamples
	}
	if o.Seed != nil {
		c.Seed = o.Seed
	}
	if o.Workers != nil {
		c.Workers = o.Workers
	}
	if o.SmoothingSigma != nil {
		c.SmoothingSigma = o.SmoothingSigma
	}
	if o.CropColors != nil {
		c.CropColors = o.CropColors
	}
	if o.WriteHTML != nil {
		c.WriteHTML = o.WriteHTML
	}
	if o.DBPath != nil {
		c.DBPath = o.DBPath
	}
	return c
}
