// Package fileproc analyzes many files concurrently.
package fileproc

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"

	"github.com/sourcegraph/conc/pool"

	"github.com/preciselake/preciselake/pkg/parser"
)

// ProcessingError represents an error that occurred while processing a file.
type ProcessingError struct {
	Path string
	Err  error

	index int
}

func (e ProcessingError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e ProcessingError) Unwrap() error {
	return e.Err
}

// ProcessingErrors collects multiple file processing errors.
type ProcessingErrors struct {
	Errors []ProcessingError
	mu     sync.Mutex
}

// Add appends an error to the collection (thread-safe).
func (e *ProcessingErrors) Add(path string, err error) {
	e.add(-1, path, err)
}

func (e *ProcessingErrors) add(index int, path string, err error) {
	e.mu.Lock()
	e.Errors = append(e.Errors, ProcessingError{Path: path, Err: err, index: index})
	e.mu.Unlock()
}

// HasErrors returns true if any errors were collected.
func (e *ProcessingErrors) HasErrors() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.Errors) > 0
}

// Error implements the error interface.
func (e *ProcessingErrors) Error() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.Errors) == 0 {
		return "no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("%d files failed to process (first: %v)", len(e.Errors), e.Errors[0])
}

// Unwrap exposes every collected error to errors.Is and errors.As.
func (e *ProcessingErrors) Unwrap() []error {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]error, len(e.Errors))
	for i, pe := range e.Errors {
		out[i] = pe
	}
	return out
}

// DefaultWorkerMultiplier is the multiplier applied to NumCPU for worker count.
// 2x suits mixed I/O and CGO workloads.
const DefaultWorkerMultiplier = 2

// ProgressFunc is called after each file is processed.
type ProgressFunc func()

// MapFiles processes files in parallel with default worker count. fn gets
// a parser owned by the calling worker.
func MapFiles[T any](ctx context.Context, files []string, fn func(context.Context, *parser.Parser, string) (T, error)) ([]T, *ProcessingErrors) {
	return MapFilesN(ctx, files, 0, fn, nil)
}

// MapFilesN processes files with at most maxWorkers goroutines, each
// holding its own parser. If maxWorkers is <= 0, defaults to 2x NumCPU.
//
// Results are positional: results[i] belongs to files[i] and is the zero
// value when that file failed. Errors are returned in file order; files not
// started before ctx is cancelled fail with the context error.
func MapFilesN[T any](ctx context.Context, files []string, maxWorkers int, fn func(context.Context, *parser.Parser, string) (T, error), onProgress ProgressFunc) ([]T, *ProcessingErrors) {
	if len(files) == 0 {
		return nil, nil
	}
	if maxWorkers <= 0 {
		maxWorkers = runtime.NumCPU() * DefaultWorkerMultiplier
	}
	if maxWorkers > len(files) {
		maxWorkers = len(files)
	}

	results := make([]T, len(files))
	errs := &ProcessingErrors{}

	// Tree-sitter parsers are not safe for concurrent use, so each worker
	// checks one out of this channel for the duration of a task.
	parsers := make(chan *parser.Parser, maxWorkers)
	for i := 0; i < maxWorkers; i++ {
		parsers <- parser.New()
	}

	p := pool.New().WithMaxGoroutines(maxWorkers)
	for i, path := range files {
		p.Go(func() {
			defer func() {
				if onProgress != nil {
					onProgress()
				}
			}()
			if err := ctx.Err(); err != nil {
				errs.add(i, path, err)
				return
			}

			psr := <-parsers
			defer func() { parsers <- psr }()

			result, err := fn(ctx, psr, path)
			if err != nil {
				errs.add(i, path, err)
				return
			}
			results[i] = result
		})
	}
	p.Wait()

	close(parsers)
	for psr := range parsers {
		psr.Close()
	}

	if !errs.HasErrors() {
		return results, nil
	}
	sort.Slice(errs.Errors, func(a, b int) bool {
		return errs.Errors[a].index < errs.Errors[b].index
	})
	return results, errs
}
