package dataset

import "errors"

// ErrMissingInput is returned when a data or feature artefact is absent.
var ErrMissingInput = errors.New("missing input")
