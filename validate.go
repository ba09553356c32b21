// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package r3tess

import (
	"fmt"
	"math"

	"go.uber.org/multierr"
)

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// validate reports every invalid argument at once.
func validate(balls []Ball, probe float64) error {
	var err error
	switch {
	case !finite(probe):
		err = multierr.Append(err, fmt.Errorf("%w: probe %v", ErrNonFinite, probe))
	case probe < 0:
		err = multierr.Append(err, fmt.Errorf("%w: probe %v", ErrNegativeProbe, probe))
	}
	for i, b := range balls {
		if !finite(b.X) || !finite(b.Y) || !finite(b.Z) || !finite(b.R) {
			err = multierr.Append(err, fmt.Errorf("%w: ball %d %+v", ErrNonFinite, i, b))
			continue
		}
		if b.R < 0 {
			err = multierr.Append(err, fmt.Errorf("%w: ball %d radius %v", ErrNegativeRadius, i, b.R))
		}
	}
	return err
}
