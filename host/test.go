package host

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/stof-engine/stof/process"
	"github.com/stof-engine/stof/vm"
)

// TestResult is one `#[test]` function's outcome.
type TestResult struct {
	Path    string
	Passed  bool
	Err     error
	Errored bool // whether the process actually terminated errored, regardless of Passed
}

// TestReport aggregates a RunTests run, reproducing the original
// runtime's textual report shape (SPEC_FULL.md supplemented feature 3):
// a running banner, one line per test, a failures section, and a
// trailing "test result: ok|FAILED. P passed; F failed; finished in Ts"
// summary.
type TestReport struct {
	Results  []TestResult
	Duration time.Duration
}

// Passed returns the number of tests that met their expectation (done
// without error, or errored when `#[errors]`-attributed).
func (r *TestReport) Passed() int {
	n := 0
	for _, res := range r.Results {
		if res.Passed {
			n++
		}
	}
	return n
}

// Failed returns the number of tests that did not meet their expectation.
func (r *TestReport) Failed() int {
	return len(r.Results) - r.Passed()
}

// String renders the report text, matching
// original_source/src/runtime/runtime.rs's Runtime::test format (minus
// ANSI coloring, which the teacher's own CLI never uses either).
func (r *TestReport) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "running %d tests\n", len(r.Results))
	for _, res := range r.Results {
		status := "ok"
		if !res.Passed {
			status = "FAILED"
		}
		fmt.Fprintf(&b, "test %s ... %s\n", res.Path, status)
	}
	if failed := r.Failed(); failed > 0 {
		b.WriteString("\nfailures:\n\n")
		for _, res := range r.Results {
			if res.Passed {
				continue
			}
			msg := "expected an error, but the test completed successfully"
			if res.Err != nil {
				msg = res.Err.Error()
			}
			fmt.Fprintf(&b, "---- %s ----\n%s\n\n", res.Path, msg)
		}
	}
	overall := "ok"
	if r.Failed() > 0 {
		overall = "FAILED"
	}
	fmt.Fprintf(&b, "\ntest result: %s. %d passed; %d failed; finished in %.3fs\n",
		overall, r.Passed(), r.Failed(), r.Duration.Seconds())
	return b.String()
}

// RunTests runs every `#[test]`-attributed function whose path contains
// filter (a substring match; empty filter runs every test) as its own
// root process to completion, honoring `#[errors]`-attributed functions'
// inverted pass condition (spec §4.4 "Callbacks", SPEC_FULL.md
// supplemented feature 2): a test declared `#[errors]` passes only if it
// terminates errored; any other test passes only if it terminates done.
func (d *Document) RunTests(ctx context.Context, filter string) (*TestReport, error) {
	tests := discoverFunctions(d.Graph, isTestAttr)

	expectsError := make(map[string]bool, len(tests))
	prevDone := func(p *process.Process) (process.State, error) { return process.Done, nil }
	prevErr := func(p *process.Process) (process.State, error) { return process.Errored, nil }

	d.Scheduler.SetDoneHook(func(p *process.Process) (process.State, error) {
		if expectsError[p.ID] {
			return process.Errored, fmt.Errorf("test %s expected an error but completed successfully", p.FuncName)
		}
		return process.Done, nil
	})
	d.Scheduler.SetErrorHook(func(p *process.Process) (process.State, error) {
		if expectsError[p.ID] {
			return process.Done, nil
		}
		return process.Errored, p.Err
	})
	defer func() {
		d.Scheduler.SetDoneHook(prevDone)
		d.Scheduler.SetErrorHook(prevErr)
	}()

	start := time.Now()
	report := &TestReport{}
	for _, t := range tests {
		if filter != "" && !strings.Contains(t.path, filter) {
			continue
		}
		body, _ := t.fn.Body.(vm.Instructions)
		pid := d.Scheduler.SpawnRoot(body, t.fn.ReturnType, t.path)
		if attrTrue(t.fn.Attrs, isErrorsAttr) {
			expectsError[pid] = true
		}
		d.Scheduler.RunToCompletion(ctx)

		p, _ := d.Scheduler.Get(pid)
		res := TestResult{Path: t.path, Errored: p.State == process.Errored}
		switch p.State {
		case process.Done:
			res.Passed = true
		case process.Errored:
			res.Passed = false
			res.Err = p.Err
		}
		report.Results = append(report.Results, res)
	}
	report.Duration = time.Since(start)
	return report, nil
}
