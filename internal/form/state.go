// Package form holds the in-progress values of a CV while the user edits it.
//
// The HTTP handlers only load, replace and submit a State. The row mutators
// and the pending-submit callback serve clients that embed the form and
// drive it edit by edit.
package form

import (
	"context"
	"errors"
	"fmt"

	"github.com/cvbuilder/backend/internal/models"
)

var (
	ErrUnknownField = errors.New("unknown field")
	ErrNoSuchRow    = errors.New("row out of range")
	ErrFirstRow     = errors.New("the first row cannot be removed")
)

// SubmitFunc receives the validated, normalised values.
type SubmitFunc func(ctx context.Context, values models.CVForm) error

// State is a single editing session over one CV. It is not safe for
// concurrent use.
type State struct {
	values   models.CVForm
	baseline *models.CVForm
	errs     models.FieldErrors

	submitted bool
	pending   func() error
}

// Defaults are the values of a brand new CV.
func Defaults() models.CVForm {
	return models.CVForm{
		ProjectName: "untitled",
		Skills:      []models.Skill{{}},
		Jobs:        []models.Job{{}},
		Projects:    []models.Project{{}},
	}
}

func New() *State {
	return &State{values: Defaults(), errs: make(models.FieldErrors)}
}

// FromDocument starts an edit of doc. A CV saved without jobs gets one empty
// job row to type into.
func FromDocument(doc *models.CVDocument) *State {
	v := doc.CVForm.Clone()
	if len(v.Jobs) == 0 {
		v.Jobs = []models.Job{{}}
	}
	base := v.Clone()
	return &State{values: v, baseline: &base, errs: make(models.FieldErrors)}
}

func (s *State) Values() models.CVForm {
	return s.values.Clone()
}

func (s *State) Errors() models.FieldErrors {
	out := make(models.FieldErrors, len(s.errs))
	for k, v := range s.errs {
		out[k] = v
	}
	return out
}

// Pending reports whether a failed submit is waiting for the lists to become
// valid.
func (s *State) Pending() bool {
	return s.pending != nil
}

// Reset drops all edits, errors and any pending submit.
func (s *State) Reset() {
	if s.baseline != nil {
		s.values = s.baseline.Clone()
	} else {
		s.values = Defaults()
	}
	s.errs = make(models.FieldErrors)
	s.submitted = false
	s.pending = nil
}

// Replace overwrites every value at once, as when a client posts the form.
func (s *State) Replace(values models.CVForm) {
	s.values = values.Clone()
	if s.submitted {
		s.errs = s.values.Validate()
	}
}

// Set assigns a scalar field. After the first submit the field is
// re-validated on every change.
func (s *State) Set(key, value string) error {
	if !s.values.SetScalar(key, value) {
		return fmt.Errorf("%w: %s", ErrUnknownField, key)
	}
	if s.submitted {
		delete(s.errs, key)
		if msg, ok := s.values.ScalarErrors()[key]; ok {
			s.errs[key] = msg
		}
	}
	return nil
}

func (s *State) AddSkill() error {
	s.values.Skills = append(s.values.Skills, models.Skill{})
	return s.listChanged()
}

func (s *State) SetSkill(i int, skill string) error {
	if i < 0 || i >= len(s.values.Skills) {
		return ErrNoSuchRow
	}
	s.values.Skills[i].Skill = skill
	return s.listChanged()
}

func (s *State) RemoveSkill(i int) error {
	if err := checkRemovable(i, len(s.values.Skills)); err != nil {
		return err
	}
	s.values.Skills = append(s.values.Skills[:i:i], s.values.Skills[i+1:]...)
	return s.listChanged()
}

func (s *State) AddJob() error {
	s.values.Jobs = append(s.values.Jobs, models.Job{})
	return s.listChanged()
}

func (s *State) SetJob(i int, job string) error {
	if i < 0 || i >= len(s.values.Jobs) {
		return ErrNoSuchRow
	}
	s.values.Jobs[i].Job = job
	return s.listChanged()
}

func (s *State) RemoveJob(i int) error {
	if err := checkRemovable(i, len(s.values.Jobs)); err != nil {
		return err
	}
	s.values.Jobs = append(s.values.Jobs[:i:i], s.values.Jobs[i+1:]...)
	return s.listChanged()
}

func (s *State) AddProject() error {
	s.values.Projects = append(s.values.Projects, models.Project{})
	return s.listChanged()
}

func (s *State) SetProject(i int, p models.Project) error {
	if i < 0 || i >= len(s.values.Projects) {
		return ErrNoSuchRow
	}
	s.values.Projects[i] = p
	return s.listChanged()
}

func (s *State) RemoveProject(i int) error {
	if err := checkRemovable(i, len(s.values.Projects)); err != nil {
		return err
	}
	s.values.Projects = append(s.values.Projects[:i:i], s.values.Projects[i+1:]...)
	return s.listChanged()
}

// Submit validates the form. Valid values are normalised and handed to fn.
// Otherwise the errors are returned and the submit stays pending: the next
// list edit that makes the form valid runs fn once.
func (s *State) Submit(ctx context.Context, fn SubmitFunc) (models.FieldErrors, error) {
	s.submitted = true
	s.errs = s.values.Validate()
	if len(s.errs) > 0 {
		s.pending = func() error { return fn(ctx, s.normalized()) }
		return s.Errors(), nil
	}
	s.pending = nil
	return nil, fn(ctx, s.normalized())
}

func (s *State) normalized() models.CVForm {
	v := s.values.Clone()
	v.Normalize()
	return v
}

// listChanged sets or clears the skills and projects errors, then fires a
// pending submit if nothing else is wrong.
func (s *State) listChanged() error {
	list := s.values.ListErrors()
	for _, key := range []string{models.FieldSkills, models.FieldProjects} {
		if msg, ok := list[key]; ok {
			s.errs[key] = msg
		} else {
			delete(s.errs, key)
		}
	}

	if s.pending == nil || len(s.values.Validate()) > 0 {
		return nil
	}
	run := s.pending
	s.pending = nil
	s.errs = make(models.FieldErrors)
	return run()
}

func checkRemovable(i, n int) error {
	if i == 0 {
		return ErrFirstRow
	}
	if i < 0 || i >= n {
		return ErrNoSuchRow
	}
	return nil
}
