package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"caseflow/internal/intake/form"
)

func validStepOneRecord() form.Record {
	r := form.NewRecord()
	r.Fields[form.FieldFirstName] = "Maria"
	r.Fields[form.FieldLastName] = "Lopez"
	r.Fields[form.FieldPhoneNumber] = "555-0100"
	r.OnBehalfOf = []string{OnBehalfMyself}
	return r
}

func TestStepOneValid(t *testing.T) {
	r := validStepOneRecord()
	assert.Empty(t, Step(1, r, r.Fields))
}

func TestStepOneMissingFields(t *testing.T) {
	r := form.NewRecord()
	errs := Step(1, r, r.Fields)

	assert.True(t, errs[form.FieldFirstName])
	assert.True(t, errs[form.FieldLastName])
	assert.True(t, errs[form.FieldPhoneNumber])
	assert.True(t, errs["onBehalfOf"])
	// Client fields only become required once the selection demands them.
	assert.False(t, errs[form.FieldClientFirstName])
}

func TestStepOneOnBehalfOfSomeoneElse(t *testing.T) {
	r := validStepOneRecord()
	r.OnBehalfOf = []string{"family-member"}

	errs := Step(1, r, r.Fields)
	assert.True(t, errs[form.FieldClientFirstName])
	assert.True(t, errs[form.FieldClientLastName])
	assert.True(t, errs[form.FieldClientPhone])

	r.Fields[form.FieldClientFirstName] = "Jose"
	r.Fields[form.FieldClientLastName] = "Lopez"
	r.Fields[form.FieldClientPhone] = "555-0101"
	assert.Empty(t, Step(1, r, r.Fields))
}

func TestStepTwoConditionalRules(t *testing.T) {
	r := form.NewRecord()

	errs := Step(2, r, r.Fields)
	assert.True(t, errs[form.FieldInvolvedInAuto])
	assert.False(t, errs[form.FieldAccidentDate], "accident details gated on involvement answer")

	r.Fields[form.FieldInvolvedInAuto] = form.No
	assert.Empty(t, Step(2, r, r.Fields))

	r.Fields[form.FieldInvolvedInAuto] = form.Yes
	errs = Step(2, r, r.Fields)
	assert.True(t, errs[form.FieldDrivingVehicle])
	assert.True(t, errs[form.FieldAccidentDate])
	assert.True(t, errs[form.FieldAccidentLoc])
}

func TestStepThreeHasNoRules(t *testing.T) {
	r := form.NewRecord()
	assert.Empty(t, Step(3, r, r.Fields))
}

func TestStepValidatesEffectiveView(t *testing.T) {
	r := validStepOneRecord()
	r.Fields[form.FieldNumberOfPersons] = "2"
	r.Persons = map[int]form.Values{2: {form.FieldFirstName: "Jose"}}

	// The overlay shadows the root first name but the last name and phone
	// read through, so subject 2's step-1 view is still complete.
	assert.Empty(t, Step(1, r, r.Effective(2)))
}

func submittableRecord() form.Record {
	r := validStepOneRecord()
	r.Fields[form.FieldInvolvedInAuto] = form.No
	r.Fields[form.FieldAssignedLawyer] = "lawyer-7"
	r.Fields[form.FieldSignature] = "Maria Lopez"
	r.Fields[form.FieldDisclosure] = form.Yes
	return r
}

func TestFinalValid(t *testing.T) {
	res := Final(submittableRecord())
	assert.True(t, res.Valid())
	assert.Zero(t, res.TargetStep)
}

func TestFinalSurfacesOneGroupAtATime(t *testing.T) {
	r := form.NewRecord()
	// Everything is wrong; only the step-1 group is reported.
	res := Final(r)
	require.False(t, res.Valid())
	assert.Equal(t, 1, res.TargetStep)
	assert.True(t, res.Errors[form.FieldFirstName])
	assert.False(t, res.Errors[form.FieldAssignedLawyer])
}

func TestFinalMissingPersonDetails(t *testing.T) {
	r := submittableRecord()
	r.Fields[form.FieldNumberOfPersons] = "3"
	r.Persons = map[int]form.Values{
		2: {form.FieldFirstName: "Jose", form.FieldLastName: "Lopez"},
	}

	res := Final(r)
	require.False(t, res.Valid())
	assert.Equal(t, 2, res.TargetStep)
	assert.True(t, res.Errors["person3Details"])
	assert.Equal(t, []string{"Person 3 Details"}, res.Messages)
}

func TestFinalPersonDetailsIgnoreReadThrough(t *testing.T) {
	r := submittableRecord()
	r.Fields[form.FieldNumberOfPersons] = "2"
	// No overlay for person 2: the root name must not satisfy their check.
	res := Final(r)
	require.False(t, res.Valid())
	assert.Equal(t, 2, res.TargetStep)
	assert.Equal(t, []string{"Person 2 Details"}, res.Messages)
}

func TestFinalLawyerThenStepFive(t *testing.T) {
	r := submittableRecord()
	r.Fields[form.FieldAssignedLawyer] = ""
	r.Fields[form.FieldSignature] = ""

	res := Final(r)
	require.False(t, res.Valid())
	assert.Equal(t, 4, res.TargetStep)
	assert.True(t, res.Errors[form.FieldAssignedLawyer])

	r.Fields[form.FieldAssignedLawyer] = "lawyer-7"
	res = Final(r)
	require.False(t, res.Valid())
	assert.Equal(t, 5, res.TargetStep)
	assert.True(t, res.Errors[form.FieldSignature])
}
