package wizard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"caseflow/internal/intake/form"
	"caseflow/internal/intake/validation"
)

func stepOneCompleteDraft() *form.Draft {
	d := form.NewDraft("d-1", "u-1", time.Now())
	d.SetField(form.FieldFirstName, "Maria")
	d.SetField(form.FieldLastName, "Lopez")
	d.SetField(form.FieldPhoneNumber, "555-0100")
	d.SetOnBehalfOf([]string{validation.OnBehalfMyself})
	return d
}

func TestNextBlockedByValidation(t *testing.T) {
	d := form.NewDraft("d-1", "u-1", time.Now())

	errs := Next(d)

	require.NotEmpty(t, errs)
	assert.Equal(t, 1, d.Position.Step, "position must not move on failure")
	assert.True(t, d.Errors[form.FieldFirstName], "errors merged into highlighting state")
}

func TestNextAdvances(t *testing.T) {
	d := stepOneCompleteDraft()

	errs := Next(d)

	assert.Empty(t, errs)
	assert.Equal(t, 2, d.Position.Step)
}

func TestNextTerminalAtLastStep(t *testing.T) {
	d := stepOneCompleteDraft()
	d.Position.Step = MaxStep
	d.SetField(form.FieldSignature, "Maria Lopez")
	d.SetField(form.FieldDisclosure, form.Yes)

	assert.Empty(t, Next(d))
	assert.Equal(t, MaxStep, d.Position.Step)
}

func TestNextValidatesActiveSubject(t *testing.T) {
	d := stepOneCompleteDraft()
	d.SetField(form.FieldNumberOfPersons, "2")
	require.NoError(t, d.SwitchSubject(2))

	// Subject 2's effective view reads the root's names and phone through,
	// so step 1 passes for them too.
	assert.Empty(t, Next(d))
	assert.Equal(t, 2, d.Position.Step)
}

func TestPrevUnconditional(t *testing.T) {
	d := form.NewDraft("d-1", "u-1", time.Now())
	d.Position.Step = 2

	Prev(d)
	assert.Equal(t, 1, d.Position.Step)

	Prev(d)
	assert.Equal(t, 1, d.Position.Step, "floor at step 1")
}

func TestPrevFromStepFourReopensSourcePanel(t *testing.T) {
	d := form.NewDraft("d-1", "u-1", time.Now())
	d.Position.Step = 4
	d.SourcePanelOpen = false

	Prev(d)

	assert.Equal(t, 3, d.Position.Step)
	assert.True(t, d.SourcePanelOpen)
}

func TestGoToBypassesValidation(t *testing.T) {
	d := form.NewDraft("d-1", "u-1", time.Now())

	require.NoError(t, GoTo(d, 4))
	assert.Equal(t, 4, d.Position.Step)

	assert.Error(t, GoTo(d, 0))
	assert.Error(t, GoTo(d, 6))
	assert.Equal(t, 4, d.Position.Step)
}

func TestFinalRepositionsOnFailure(t *testing.T) {
	d := stepOneCompleteDraft()
	d.Position = form.WizardPosition{Step: 5, Subject: 1}
	// Step 1 is complete but the rest is not: lawyer step should not be
	// surfaced until step 2 is clean.
	d.SetField(form.FieldInvolvedInAuto, form.Yes)

	res := Final(d)

	require.False(t, res.Valid())
	assert.Equal(t, 2, res.TargetStep)
	assert.Equal(t, 2, d.Position.Step)
	assert.True(t, d.Errors[form.FieldAccidentDate])
}
