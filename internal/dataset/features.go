package dataset

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/banshee-data/cropaccuracy/internal/fsutil"
)

// featureFile mirrors the JSON written next to the trained model.
type featureFile struct {
	Features []string `json:"features"`
}

// LoadFeatureList reads the ordered feature column names from a JSON file
// of the form {"features": ["B2_mean", ...]}.
func LoadFeatureList(fsys fsutil.FileSystem, path string) ([]string, error) {
	data, err := fsys.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: features file %s not found", ErrMissingInput, path)
		}
		return nil, fmt.Errorf("failed to read features file %s: %w", path, err)
	}

	var ff featureFile
	if err := json.Unmarshal(data, &ff); err != nil {
		return nil, fmt.Errorf("failed to parse features file %s: %w", path, err)
	}
	if len(ff.Features) == 0 {
		return nil, fmt.Errorf("features file %s lists no features", path)
	}

	seen := make(map[string]bool, len(ff.Features))
	for i, f := range ff.Features {
		f = strings.TrimSpace(f)
		if f == "" {
			return nil, fmt.Errorf("features file %s: feature %d is empty", path, i)
		}
		if seen[f] {
			return nil, fmt.Errorf("features file %s: duplicate feature %q", path, f)
		}
		seen[f] = true
		ff.Features[i] = f
	}
	return ff.Features, nil
}
