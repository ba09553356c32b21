// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package r3tess

import (
	"errors"
	"fmt"

	"github.com/2dChan/r3tess/spatial"
)

var (
	// ErrInvalidInput is wrapped by every error caused by bad arguments.
	ErrInvalidInput = errors.New("r3tess: invalid input")

	ErrNegativeProbe  = fmt.Errorf("%w: negative probe", ErrInvalidInput)
	ErrNegativeRadius = fmt.Errorf("%w: negative radius", ErrInvalidInput)
	ErrNonFinite      = fmt.Errorf("%w: non-finite value", ErrInvalidInput)
	ErrInvalidBox     = fmt.Errorf("%w: periodic box must satisfy lo < hi on every axis", ErrInvalidInput)
	ErrInvalidOption  = fmt.Errorf("%w: invalid option", ErrInvalidInput)

	// Resource limits. Both fail the whole call.
	ErrTooManyImages     = spatial.ErrTooManyImages
	ErrTooManyCandidates = spatial.ErrTooManyCandidates
)
