package dataset

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/cropaccuracy/internal/fsutil"
	"github.com/banshee-data/cropaccuracy/internal/monitoring"
)

const sampleCSV = `FIELDID,Year,week,B2_mean,NDVI_max,Crop_num,Crop_type,Pred
F1,2024,1,0.12,0.5,0,Maize,0
F2,2024,1,0.10,,0,Maize,1
F3,2024,2,0.20,0.6,1.0,Soy,1
F4,2024,2.0,NaN,0.7,1,Soy,1
F5,2024,3,0.31,0.8,1,Soy,0.0
`

var sampleColumns = Columns{
	Features:   []string{"B2_mean", "NDVI_max"},
	Label:      "Crop_num",
	Crop:       "Crop_type",
	Week:       "week",
	Prediction: "Pred",
}

func TestReadTable_DropsMissingFeatures(t *testing.T) {
	fsys := fsutil.NewMemoryFileSystem()
	fsys.AddFile("in.csv", sampleCSV)

	var logged []string
	orig := monitoring.Logf
	monitoring.SetLogger(func(format string, v ...interface{}) { logged = append(logged, format) })
	defer func() { monitoring.Logf = orig }()

	table, err := ReadTable(fsys, "in.csv", sampleColumns)
	require.NoError(t, err)

	assert.Equal(t, 5, table.Total)
	assert.Equal(t, 2, table.Dropped)
	require.Len(t, table.Rows, 3)
	require.Len(t, logged, 1, "dropped rows must be reported")

	want := []Row{
		{Line: 2, Features: []float64{0.12, 0.5}, Label: "0", Crop: "Maize", Week: 1, Prediction: "0"},
		{Line: 4, Features: []float64{0.20, 0.6}, Label: "1", Crop: "Soy", Week: 2, Prediction: "1"},
		{Line: 6, Features: []float64{0.31, 0.8}, Label: "1", Crop: "Soy", Week: 3, Prediction: "0"},
	}
	if diff := cmp.Diff(want, table.Rows); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t, []string{"0", "1", "1"}, table.Labels())
	assert.Equal(t, []string{"Maize", "Soy", "Soy"}, table.Crops())
	assert.Equal(t, []int{1, 2, 3}, table.Weeks())
	assert.Equal(t, []string{"0", "1", "0"}, table.Predictions())
	assert.Equal(t, [][]float64{{0.12, 0.5}, {0.20, 0.6}, {0.31, 0.8}}, table.FeatureMatrix())
}

func TestReadTable_WithoutPredictionColumn(t *testing.T) {
	fsys := fsutil.NewMemoryFileSystem()
	fsys.AddFile("in.csv", sampleCSV)

	cols := sampleColumns
	cols.Prediction = ""
	table, err := ReadTable(fsys, "in.csv", cols)
	require.NoError(t, err)
	assert.False(t, table.HasPredictions)
	assert.Nil(t, table.Predictions())
}

func TestReadTable_MissingFile(t *testing.T) {
	_, err := ReadTable(fsutil.NewMemoryFileSystem(), "Data_Preparation/InputModel/x.csv", sampleColumns)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingInput))
	assert.Contains(t, err.Error(), "Data_Preparation/InputModel/x.csv")
}

func TestReadTable_Errors(t *testing.T) {
	tests := []struct {
		name    string
		csv     string
		wantErr string
	}{
		{"empty file", "", "empty file"},
		{"missing feature column", "week,B2_mean,Crop_num,Crop_type,Pred\n1,0.1,0,Maize,0\n", `missing column "NDVI_max"`},
		{"missing label column", "week,B2_mean,NDVI_max,Crop_type,Pred\n", `missing column "Crop_num"`},
		{"duplicate column", "week,week,B2_mean,NDVI_max,Crop_num,Crop_type,Pred\n", `duplicate column "week"`},
		{"bad week", "week,B2_mean,NDVI_max,Crop_num,Crop_type,Pred\n54,0.1,0.2,0,Maize,0\n", "line 2: column \"week\": invalid week \"54\""},
		{"fractional week", "week,B2_mean,NDVI_max,Crop_num,Crop_type,Pred\n1.5,0.1,0.2,0,Maize,0\n", "invalid week"},
		{"bad feature", "week,B2_mean,NDVI_max,Crop_num,Crop_type,Pred\n1,abc,0.2,0,Maize,0\n", `column "B2_mean": invalid number "abc"`},
		{"missing label", "week,B2_mean,NDVI_max,Crop_num,Crop_type,Pred\n1,0.1,0.2,,Maize,0\n", `column "Crop_num": missing value`},
		{"missing prediction", "week,B2_mean,NDVI_max,Crop_num,Crop_type,Pred\n1,0.1,0.2,0,Maize,NA\n", `column "Pred": missing value`},
		{"ragged row", "week,B2_mean,NDVI_max,Crop_num,Crop_type,Pred\n1,0.1\n", "line 2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fsys := fsutil.NewMemoryFileSystem()
			fsys.AddFile("in.csv", tt.csv)
			_, err := ReadTable(fsys, "in.csv", sampleColumns)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.True(t, strings.HasPrefix(err.Error(), "in.csv"), "error should name the file: %v", err)
		})
	}
}

func TestReadTable_BOMHeader(t *testing.T) {
	fsys := fsutil.NewMemoryFileSystem()
	fsys.AddFile("in.csv", "\ufeffweek,B2_mean,NDVI_max,Crop_num,Crop_type\n7,0.1,0.2,3,Wheat\n")
	cols := sampleColumns
	cols.Prediction = ""
	table, err := ReadTable(fsys, "in.csv", cols)
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, 7, table.Rows[0].Week)
}

func TestLoadFeatureList(t *testing.T) {
	fsys := fsutil.NewMemoryFileSystem()
	fsys.AddFile("Models/f.json", `{"features": ["B2_mean", " NDVI_max "]}`)

	features, err := LoadFeatureList(fsys, "Models/f.json")
	require.NoError(t, err)
	assert.Equal(t, []string{"B2_mean", "NDVI_max"}, features)
}

func TestLoadFeatureList_Errors(t *testing.T) {
	tests := []struct {
		name        string
		body        *string
		wantErr     string
		wantMissing bool
	}{
		{"missing file", nil, "features file Models/f.json not found", true},
		{"bad json", strPtr("{"), "failed to parse", false},
		{"no features", strPtr(`{"features": []}`), "lists no features", false},
		{"empty name", strPtr(`{"features": ["a", ""]}`), "feature 1 is empty", false},
		{"duplicate", strPtr(`{"features": ["a", "a"]}`), `duplicate feature "a"`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fsys := fsutil.NewMemoryFileSystem()
			if tt.body != nil {
				fsys.AddFile("Models/f.json", *tt.body)
			}
			_, err := LoadFeatureList(fsys, "Models/f.json")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.Equal(t, tt.wantMissing, errors.Is(err, ErrMissingInput))
		})
	}
}

func strPtr(s string) *string { return &s }

func TestCanonicalLabel(t *testing.T) {
	tests := map[string]string{
		"1":     "1",
		"1.0":   "1",
		" 2 ":   "2",
		"-3.00": "-3",
		"0.5":   "0.5",
		"Maize": "Maize",
		" Soy ": "Soy",
		"1e2":   "100",
		"inf":   "inf",
	}
	for in, want := range tests {
		if got := CanonicalLabel(in); got != want {
			t.Errorf("CanonicalLabel(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParseWeek(t *testing.T) {
	tests := []struct {
		in     string
		want   int
		wantOK bool
	}{
		{"1", 1, true},
		{"53", 53, true},
		{"12.0", 12, true},
		{" 7 ", 7, true},
		{"0", 0, false},
		{"54", 0, false},
		{"1.5", 0, false},
		{"abc", 0, false},
		{"", 0, false},
		{"Inf", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseWeek(tt.in)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("ParseWeek(%q) = %d, %v; want %d, %v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestIsMissing(t *testing.T) {
	for _, v := range []string{"", " ", "NA", "NaN", "nan", "null", "None", "N/A"} {
		assert.True(t, IsMissing(v), "%q should be missing", v)
	}
	for _, v := range []string{"0", "0.0", "Maize", "NAN!"} {
		assert.False(t, IsMissing(v), "%q should not be missing", v)
	}
}

func TestExportColumns(t *testing.T) {
	fsys := fsutil.NewMemoryFileSystem()
	fsys.AddFile("in.csv", sampleCSV)

	cols := ModelInputColumns([]string{"FIELDID", "Year"}, "week", []string{"B2_mean", "NDVI_max"}, "Crop_num")
	assert.Equal(t, []string{"FIELDID", "Year", "week", "B2_mean", "NDVI_max", "Crop_num"}, cols)

	n, err := ExportColumns(fsys, "in.csv", "OutputSimulation/SB25rAll_input.csv", cols)
	require.NoError(t, err)
	assert.Equal(t, 5, n, "export keeps rows with missing values")

	data, err := fsys.ReadFile("OutputSimulation/SB25rAll_input.csv")
	require.NoError(t, err)
	want := `FIELDID,Year,week,B2_mean,NDVI_max,Crop_num
F1,2024,1,0.12,0.5,0
F2,2024,1,0.10,,0
F3,2024,2,0.20,0.6,1.0
F4,2024,2.0,NaN,0.7,1
F5,2024,3,0.31,0.8,1
`
	assert.Equal(t, want, string(data))
}

func TestExportColumns_Errors(t *testing.T) {
	fsys := fsutil.NewMemoryFileSystem()
	fsys.AddFile("in.csv", sampleCSV)

	_, err := ExportColumns(fsys, "missing.csv", "out.csv", []string{"week"})
	assert.True(t, errors.Is(err, ErrMissingInput))

	_, err = ExportColumns(fsys, "in.csv", "out.csv", []string{"week", "Elevation"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `missing column "Elevation"`)

	_, err = ExportColumns(fsys, "in.csv", "out.csv", nil)
	require.Error(t, err)
}
