// Package wizard is the step navigation controller: it decides whether a
// draft may advance, and keeps the position invariants intact. It talks
// only to the validation rules and the draft itself; persistence and
// submission live in the intake service.
package wizard

import (
	"caseflow/internal/intake/form"
	"caseflow/internal/intake/validation"
	dErrors "caseflow/pkg/domain-errors"
)

// Step bounds for the five-page wizard.
const (
	MinStep = 1
	MaxStep = 5
)

// Next validates the current step against the active subject's effective
// view. On failure the errors are merged into the draft's highlighting
// state and returned; the position does not move. On success the draft
// advances one step, terminal at MaxStep.
func Next(d *form.Draft) form.ErrorSet {
	effective := d.Record.Effective(d.Position.Subject)
	errs := validation.Step(d.Position.Step, d.Record, effective)
	if len(errs) > 0 {
		for k := range errs {
			d.Errors[k] = true
		}
		return errs
	}
	if d.Position.Step < MaxStep {
		d.Position.Step++
	}
	return nil
}

// Prev moves back one step unconditionally, floor MinStep. Backing out of
// step 4 re-opens the step-3 source sub-panel, restoring the sub-view the
// user came through.
func Prev(d *form.Draft) {
	if d.Position.Step > MinStep {
		d.Position.Step--
	}
	if d.Position.Step == 3 {
		d.SourcePanelOpen = true
	}
}

// GoTo jumps straight to a step without forward validation. Used by the
// final-validation summary's remediation action.
func GoTo(d *form.Draft, step int) error {
	if step < MinStep || step > MaxStep {
		return dErrors.New(dErrors.CodeBadRequest, "step out of range")
	}
	d.Position.Step = step
	return nil
}

// Final runs the cross-step validation and, when it fails, merges the
// errors into the draft and repositions it at the offending step.
func Final(d *form.Draft) validation.Result {
	res := validation.Final(d.Record)
	if !res.Valid() {
		for k := range res.Errors {
			d.Errors[k] = true
		}
		d.Position.Step = res.TargetStep
		d.Position.Subject = 1
	}
	return res
}
