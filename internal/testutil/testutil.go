// Package testutil provides shared test fixtures: CSV builders, a small
// evaluation dataset and a fake model server.
package testutil

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// AssertNoError fails the test if err is not nil.
func AssertNoError(t testing.TB, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t testing.TB, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// CSV renders a header and rows as CSV text.
func CSV(header []string, rows ...[]string) string {
	var b strings.Builder
	w := csv.NewWriter(&b)
	w.Write(header)
	for _, r := range rows {
		w.Write(r)
	}
	w.Flush()
	return b.String()
}

// FixtureFeatures are the feature columns of FixtureRows.
var FixtureFeatures = []string{"B2_mean", "NDVI_max"}

// FixtureRow is one field-week of the fixture dataset.
type FixtureRow struct {
	Crop      string
	CropNum   int
	Week      int
	Predicted int
}

// FixtureRows is a small two-crop, two-week dataset. Maize week 1 is the
// [1,1,0,0] vs [1,0,0,0] pattern with accuracy 0.75.
var FixtureRows = []FixtureRow{
	{"Maize", 1, 1, 1},
	{"Maize", 1, 1, 0},
	{"Maize", 0, 1, 0},
	{"Maize", 0, 1, 0},
	{"Maize", 1, 2, 1},
	{"Maize", 1, 2, 1},
	{"Soy", 2, 1, 2},
	{"Soy", 2, 1, 1},
	{"Soy", 2, 2, 2},
	{"Soy", 2, 2, 2},
	{"Soy", 2, 2, 2},
}

// FixtureCSV renders rows in the model-input layout with FIELDID, Year,
// week, the fixture features, Crop_num, Crop_type and a Pred column.
// Feature values encode the predicted class so a fake model can recover it.
func FixtureCSV(rows []FixtureRow) string {
	header := []string{"FIELDID", "Year", "week", "B2_mean", "NDVI_max", "Crop_num", "Crop_type", "Pred"}
	recs := make([][]string, len(rows))
	for i, r := range rows {
		recs[i] = []string{
			fmt.Sprintf("F%03d", i+1),
			"2024",
			fmt.Sprint(r.Week),
			fmt.Sprint(r.Predicted),
			fmt.Sprintf("0.%d", i%10),
			fmt.Sprint(r.CropNum),
			r.Crop,
			fmt.Sprint(r.Predicted),
		}
	}
	return CSV(header, recs...)
}

// FixtureFeaturesJSON is the feature list file matching FixtureCSV.
func FixtureFeaturesJSON() string {
	data, _ := json.Marshal(map[string][]string{"features": FixtureFeatures})
	return string(data)
}

// NewModelServer starts an HTTP server that answers predict requests by
// returning the first feature of every instance as the class label. It
// is closed when the test ends.
func NewModelServer(t testing.TB) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Instances [][]float64 `json:"instances"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		preds := make([]float64, len(req.Instances))
		for i, inst := range req.Instances {
			if len(inst) == 0 {
				http.Error(w, "empty instance", http.StatusBadRequest)
				return
			}
			preds[i] = inst[0]
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string][]float64{"predictions": preds})
	}))
	t.Cleanup(srv.Close)
	return srv
}
