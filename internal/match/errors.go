// Package match implements the trackbank matching engine: scoring, ranking,
// usage filtering, duration allocation and gap analysis.
package match

import "errors"

// ErrConfiguration is returned for invalid engine input that must be fixed before scoring.
var ErrConfiguration = errors.New("configuration error")
