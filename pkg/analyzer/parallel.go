package analyzer

import (
	"context"
	"runtime"

	"github.com/sourcegraph/conc/iter"
	"github.com/sourcegraph/conc/panics"

	"github.com/preciselake/preciselake/pkg/ast"
	"github.com/preciselake/preciselake/pkg/models"
)

// Outcome is the result of one detector.
type Outcome struct {
	Detector string
	Findings []models.Finding
	Err      error
	// Panicked is set when Err came from a recovered panic.
	Panicked bool
}

// RunAll runs detectors over unit and returns outcomes in the order of
// detectors. A detector that errors or panics yields an Outcome with Err set
// and does not affect the others. maxWorkers <= 0 defaults to NumCPU;
// maxWorkers == 1 runs sequentially.
func RunAll(ctx context.Context, unit *ast.Unit, detectors []Detector, maxWorkers int) []Outcome {
	if len(detectors) == 0 {
		return nil
	}
	if maxWorkers <= 0 {
		maxWorkers = runtime.NumCPU()
	}

	run := func(d *Detector) Outcome {
		return runOne(ctx, unit, *d)
	}

	if maxWorkers == 1 {
		outcomes := make([]Outcome, len(detectors))
		for i := range detectors {
			outcomes[i] = run(&detectors[i])
		}
		return outcomes
	}

	mapper := iter.Mapper[Detector, Outcome]{MaxGoroutines: maxWorkers}
	return mapper.Map(detectors, run)
}

func runOne(ctx context.Context, unit *ast.Unit, d Detector) Outcome {
	out := Outcome{Detector: d.Name()}
	if err := ctx.Err(); err != nil {
		out.Err = err
		return out
	}

	var catcher panics.Catcher
	catcher.Try(func() {
		out.Findings, out.Err = d.Detect(ctx, unit)
	})
	if r := catcher.Recovered(); r != nil {
		out.Findings = nil
		out.Err = r.AsError()
		out.Panicked = true
	}
	return out
}
