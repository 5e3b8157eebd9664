// Package validation holds the intake wizard's field rules as pure
// functions. Nothing here mutates a draft; callers merge the returned
// error sets into the UI highlighting state themselves.
package validation

import (
	"fmt"

	"caseflow/internal/intake/form"
)

// OnBehalfMyself is the self-selection in the on-behalf-of multi-select.
// Every other category means the reporter is filing for someone else and
// must supply that client's contact details.
const OnBehalfMyself = "myself"

// RequiresClientFields reports whether the on-behalf-of selection makes the
// client contact fields mandatory.
func RequiresClientFields(selection []string) bool {
	for _, s := range selection {
		if s != OnBehalfMyself {
			return true
		}
	}
	return false
}

// Step checks one wizard step against the record and the active subject's
// effective (overlay-merged) view. Returns an empty set when the step is
// valid; otherwise the keys are exactly the invalid field names.
func Step(step int, r form.Record, effective form.Values) form.ErrorSet {
	errs := form.ErrorSet{}
	switch step {
	case 1:
		requireField(errs, effective, form.FieldFirstName)
		requireField(errs, effective, form.FieldLastName)
		requireField(errs, effective, form.FieldPhoneNumber)
		if len(r.OnBehalfOf) == 0 {
			errs["onBehalfOf"] = true
		}
		if RequiresClientFields(r.OnBehalfOf) {
			requireField(errs, effective, form.FieldClientFirstName)
			requireField(errs, effective, form.FieldClientLastName)
			requireField(errs, effective, form.FieldClientPhone)
		}
	case 2:
		requireField(errs, effective, form.FieldInvolvedInAuto)
		if effective[form.FieldInvolvedInAuto] == form.Yes {
			requireField(errs, effective, form.FieldDrivingVehicle)
			requireField(errs, effective, form.FieldAccidentDate)
			requireField(errs, effective, form.FieldAccidentLoc)
		}
	case 3:
		// The medical/source step has no required fields.
	case 4:
		requireField(errs, effective, form.FieldAssignedLawyer)
	case 5:
		requireField(errs, effective, form.FieldSignature)
		if effective[form.FieldDisclosure] != form.Yes {
			errs[form.FieldDisclosure] = true
		}
	}
	return errs
}

// Result is the outcome of the cross-step validation run before submission.
// TargetStep is where the wizard should send the user to fix things; zero
// when the record is submittable.
type Result struct {
	Errors     form.ErrorSet
	TargetStep int
	// Messages carries the human-readable summary lines for the surfaced
	// group, e.g. "Person 3 Details" for an unnamed additional person.
	Messages []string
}

// Valid reports whether the record passed.
func (r Result) Valid() bool { return len(r.Errors) == 0 }

// Final re-checks steps 1, 2 (plus per-person completeness), the lawyer
// step, and step 5, surfacing only the highest-priority failing group.
// One group at a time: a user fixing step 1 is not also shown lawyer
// errors until step 1 is clean.
func Final(r form.Record) Result {
	if errs := Step(1, r, r.Fields); len(errs) > 0 {
		return Result{Errors: errs, TargetStep: 1}
	}

	errs := Step(2, r, r.Fields)
	var messages []string
	count := r.NumberOfPersons()
	for s := 2; s <= count; s++ {
		// Names must be on the person's own overlay; a name read through
		// from the root does not count as that person's details.
		overlay := r.Persons[s]
		if overlay[form.FieldFirstName] == "" || overlay[form.FieldLastName] == "" {
			errs[fmt.Sprintf("person%dDetails", s)] = true
			messages = append(messages, fmt.Sprintf("Person %d Details", s))
		}
	}
	if len(errs) > 0 {
		return Result{Errors: errs, TargetStep: 2, Messages: messages}
	}

	if errs := Step(4, r, r.Fields); len(errs) > 0 {
		return Result{Errors: errs, TargetStep: 4}
	}
	if errs := Step(5, r, r.Fields); len(errs) > 0 {
		return Result{Errors: errs, TargetStep: 5}
	}
	return Result{Errors: form.ErrorSet{}}
}

func requireField(errs form.ErrorSet, v form.Values, key string) {
	if v[key] == "" {
		errs[key] = true
	}
}
