package analyzer

import (
	"context"
	"errors"
	"fmt"

	"github.com/preciselake/preciselake/pkg/ast"
	"github.com/preciselake/preciselake/pkg/models"
)

// Detector is the interface every pattern detector implements.
// Detectors only read the unit; they may run concurrently on the same tree.
type Detector interface {
	// Name identifies the detector in configuration, logs and skipped entries.
	Name() string

	// Detect inspects the unit and returns findings in pre-order.
	Detect(ctx context.Context, unit *ast.Unit) ([]models.Finding, error)
}

// Detector names, in report order.
const (
	Bindings    = "bindings"
	Calls       = "calls"
	Nesting     = "nesting"
	Termination = "termination"
	Overrides   = "overrides"
	Duplicates  = "duplicates"
	Cost        = "cost"
	Imports     = "imports"
)

// Order is the fixed sequence in which detector output is concatenated.
var Order = []string{Bindings, Calls, Nesting, Termination, Overrides, Duplicates, Cost, Imports}

// ErrUnknownDetector is returned for a detector name outside Order.
var ErrUnknownDetector = errors.New("unknown detector")

// Rank returns the position of name in Order, or -1.
func Rank(name string) int {
	for i, n := range Order {
		if n == name {
			return i
		}
	}
	return -1
}

// ValidateNames checks that every name is a known detector.
func ValidateNames(names []string) error {
	for _, n := range names {
		if Rank(n) < 0 {
			return fmt.Errorf("%w: %q", ErrUnknownDetector, n)
		}
	}
	return nil
}
