// Package form holds the wizard's working state: the intake record being
// built, the per-person overlays that shadow it, and the error flags the
// UI highlights. All mutation goes through Draft methods so the shadowing
// and cascade rules stay in one place and stay auditable.
package form

import (
	"strconv"
	"time"

	dErrors "caseflow/pkg/domain-errors"
)

// Values is a flat bag of string-valued form fields. Tri-state yes/no
// questions use "yes", "no", and "" for unanswered.
type Values map[string]string

// Well-known field keys. The record carries more keys than are listed here
// (free-text narrative fields pass through untouched); these are the ones
// rules and cascades reference.
const (
	FieldFirstName       = "firstName"
	FieldLastName        = "lastName"
	FieldPhoneNumber     = "phoneNumber"
	FieldClientFirstName = "clientFirstName"
	FieldClientLastName  = "clientLastName"
	FieldClientPhone     = "clientPhoneNumber"

	FieldNumberOfPersons = "numberOfPersonsInAccident"
	FieldInvolvedInAuto  = "involvedInAutoAccident"
	FieldDrivingVehicle  = "drivingVehicle"
	FieldAccidentDate    = "accidentDate"
	FieldAccidentLoc     = "accidentLocation"
	FieldAccidentType    = "accidentType"
	FieldAccidentState   = "accidentState"
	FieldPolicyType      = "policyType"

	FieldWorkingAtTime = "workingDuringAccident"
	FieldInjuryHead    = "injuryHead"
	FieldInjuryNeck    = "injuryNeck"
	FieldInjuryBack    = "injuryBack"
	FieldLien          = "lien"

	FieldAssignedLawyer = "assignedLawyer"
	FieldSignature      = "signature"
	FieldDisclosure     = "confirmDisclosure"
)

// Answer values for tri-state questions.
const (
	Yes = "yes"
	No  = "no"
)

// MaxSubjects bounds how many people one accident record can carry.
const MaxSubjects = 6

// subjectScoped lists the fields a person overlay may carry. Everything
// else (accident date, location, narrative) is shared and reads through
// to the root record.
var subjectScoped = map[string]bool{
	FieldFirstName:     true,
	FieldLastName:      true,
	FieldPhoneNumber:   true,
	FieldDrivingVehicle: true,
	FieldWorkingAtTime: true,
	FieldInjuryHead:    true,
	FieldInjuryNeck:    true,
	FieldInjuryBack:    true,
	FieldLien:          true,
}

// SubjectScoped reports whether a field may live on a person overlay.
func SubjectScoped(key string) bool { return subjectScoped[key] }

// Record is the root intake entity being built across the wizard.
//
// Invariants:
//   - Subject 1 (the main lead) is the root record itself; Persons never
//     holds a key 1.
//   - Persons holds only keys 2..MaxSubjects. Overlays for subjects beyond
//     NumberOfPersons may persist (lowering the count does not delete
//     them) but are never shown or flattened while out of range.
type Record struct {
	Fields     Values         `json:"fields"`
	OnBehalfOf []string       `json:"onBehalfOf"`
	Persons    map[int]Values `json:"persons,omitempty"`
}

// NewRecord returns a record with documented defaults: empty fields, empty
// on-behalf-of selection, no person overlays.
func NewRecord() Record {
	return Record{
		Fields:     Values{},
		OnBehalfOf: []string{},
		Persons:    map[int]Values{},
	}
}

// NumberOfPersons parses the person count field, clamped to [1, MaxSubjects].
// Unset or unparseable values count as 1.
func (r Record) NumberOfPersons() int {
	n, err := strconv.Atoi(r.Fields[FieldNumberOfPersons])
	if err != nil || n < 1 {
		return 1
	}
	if n > MaxSubjects {
		return MaxSubjects
	}
	return n
}

// Effective resolves the record seen by the given subject. Subject 1 reads
// the root unchanged. Subjects above 1 see their overlay's fields shadowing
// the root's same-named fields; fields never set on the overlay read
// through to root.
func (r Record) Effective(subject int) Values {
	if subject <= 1 {
		return r.Fields
	}
	overlay := r.Persons[subject]
	merged := make(Values, len(r.Fields)+len(overlay))
	for k, v := range r.Fields {
		merged[k] = v
	}
	for k, v := range overlay {
		merged[k] = v
	}
	return merged
}

// Rehydrate shallow-merges saved data over the record's defaults, used when
// reopening a previously saved intake for editing.
func (r *Record) Rehydrate(saved Record) {
	for k, v := range saved.Fields {
		r.Fields[k] = v
	}
	if len(saved.OnBehalfOf) > 0 {
		r.OnBehalfOf = append([]string{}, saved.OnBehalfOf...)
	}
	for idx, overlay := range saved.Persons {
		if idx < 2 || idx > MaxSubjects {
			continue
		}
		dst := r.Persons[idx]
		if dst == nil {
			dst = Values{}
			r.Persons[idx] = dst
		}
		for k, v := range overlay {
			dst[k] = v
		}
	}
}

// WizardPosition tracks where in the wizard the user is.
//
// Invariants: Step in [1,5]; Subject in [1, NumberOfPersons]; selecting a
// subject above 1 forces Step back to 1.
type WizardPosition struct {
	Step    int `json:"step"`
	Subject int `json:"subject"`
}

// ErrorSet flags invalid fields for UI highlighting. Recomputed per step,
// never patched incrementally across steps.
type ErrorSet map[string]bool

// Draft is one wizard session's full state. Drafts are persisted by a
// DraftStore between requests; all mutation happens through methods here.
type Draft struct {
	ID      string   `json:"id"`
	OwnerID string   `json:"ownerId"`
	Record  Record   `json:"record"`
	Position WizardPosition `json:"position"`
	Errors  ErrorSet `json:"errors,omitempty"`
	// SourcePanelOpen tracks the step-3 sub-view toggle. Backing out of
	// step 4 re-opens it.
	SourcePanelOpen bool `json:"sourcePanelOpen"`
	// EditOf holds the backend intake ID when rehydrated for editing;
	// empty for new intakes.
	EditOf    string    `json:"editOf,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewDraft starts a wizard session at step 1, subject 1, with an empty record.
func NewDraft(id, ownerID string, now time.Time) *Draft {
	return &Draft{
		ID:        id,
		OwnerID:   ownerID,
		Record:    NewRecord(),
		Position:  WizardPosition{Step: 1, Subject: 1},
		Errors:    ErrorSet{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// SetField overwrites a root-level field for the active subject 1. The only
// side effects are the edit-to-clear error policy and the driver cascade;
// no validation runs on write.
func (d *Draft) SetField(key, value string) {
	d.Record.Fields[key] = value
	d.clearError(key)
	if key == FieldDrivingVehicle && value == Yes {
		d.cascadeDriver()
	}
}

// SetOnBehalfOf replaces the multi-select on-behalf-of set.
func (d *Draft) SetOnBehalfOf(selection []string) {
	d.Record.OnBehalfOf = append([]string{}, selection...)
	d.clearError("onBehalfOf")
}

// SetSubjectField writes a field for the given subject. Subject 1 stores on
// the root record; higher subjects write into their overlay, creating it if
// absent. Only subject-scoped fields may land on an overlay.
func (d *Draft) SetSubjectField(subject int, key, value string) error {
	if subject < 1 || subject > MaxSubjects {
		return dErrors.New(dErrors.CodeBadRequest, "subject index out of range")
	}
	if subject == 1 {
		d.SetField(key, value)
		return nil
	}
	if !SubjectScoped(key) {
		return dErrors.New(dErrors.CodeBadRequest, "field is not person-scoped")
	}
	overlay := d.Record.Persons[subject]
	if overlay == nil {
		overlay = Values{}
		d.Record.Persons[subject] = overlay
	}
	overlay[key] = value
	d.clearError(key)
	return nil
}

// Reset restores all fields to defaults. Used after successful submission.
func (d *Draft) Reset(now time.Time) {
	d.Record = NewRecord()
	d.Position = WizardPosition{Step: 1, Subject: 1}
	d.Errors = ErrorSet{}
	d.SourcePanelOpen = false
	d.EditOf = ""
	d.UpdatedAt = now
}

// Clone deep-copies the draft so stores can hand out snapshots without
// aliasing the caller's maps.
func (d *Draft) Clone() *Draft {
	cp := *d
	cp.Record = Record{
		Fields:     make(Values, len(d.Record.Fields)),
		OnBehalfOf: append([]string{}, d.Record.OnBehalfOf...),
		Persons:    make(map[int]Values, len(d.Record.Persons)),
	}
	for k, v := range d.Record.Fields {
		cp.Record.Fields[k] = v
	}
	for idx, overlay := range d.Record.Persons {
		dup := make(Values, len(overlay))
		for k, v := range overlay {
			dup[k] = v
		}
		cp.Record.Persons[idx] = dup
	}
	cp.Errors = make(ErrorSet, len(d.Errors))
	for k, v := range d.Errors {
		cp.Errors[k] = v
	}
	return &cp
}

// SubjectLabel is one entry of the person navigation strip.
type SubjectLabel struct {
	Index int    `json:"index"`
	Label string `json:"label"`
}

// VisibleSubjects lists subjects 1..NumberOfPersons with display labels.
// Returns nil when the accident has a single person: single-subject
// accidents never show subject navigation.
func (d *Draft) VisibleSubjects() []SubjectLabel {
	count := d.Record.NumberOfPersons()
	if count < 2 {
		return nil
	}
	labels := make([]SubjectLabel, 0, count)
	for i := 1; i <= count; i++ {
		eff := d.Record.Effective(i)
		label := ""
		if i > 1 {
			// Subjects above 1 are labeled only by their own overlay
			// names, not names read through from the root.
			overlay := d.Record.Persons[i]
			label = joinName(overlay[FieldFirstName], overlay[FieldLastName])
		} else {
			label = joinName(eff[FieldFirstName], eff[FieldLastName])
		}
		if label == "" {
			label = "Person " + strconv.Itoa(i)
		}
		labels = append(labels, SubjectLabel{Index: i, Label: label})
	}
	return labels
}

// SwitchSubject moves the wizard to another person's record. Indexes above
// the current person count are rejected with no state change. Subjects
// above 1 always restart data entry at step 1.
func (d *Draft) SwitchSubject(index int) error {
	if index < 1 || index > d.Record.NumberOfPersons() {
		return dErrors.New(dErrors.CodeBadRequest, "person index out of range")
	}
	d.Position.Subject = index
	if index > 1 {
		d.Position.Step = 1
	}
	return nil
}

// ClearError removes the error flag for one field; issued alongside every
// field write regardless of whether the new value is valid.
func (d *Draft) clearError(key string) {
	delete(d.Errors, key)
}

// cascadeDriver enforces that only one person can be the driver: marking
// subject 1 as driving forces "no" onto every existing overlay within the
// current person count.
func (d *Draft) cascadeDriver() {
	count := d.Record.NumberOfPersons()
	for idx := 2; idx <= count; idx++ {
		if overlay, ok := d.Record.Persons[idx]; ok {
			overlay[FieldDrivingVehicle] = No
		}
	}
}

func joinName(first, last string) string {
	switch {
	case first == "" && last == "":
		return ""
	case first == "":
		return last
	case last == "":
		return first
	default:
		return first + " " + last
	}
}
