package services

import (
	"errors"

	"github.com/cvbuilder/backend/internal/models"
	"github.com/cvbuilder/backend/internal/storage"
)

// ErrNoChanges aborts an edit whose values match the stored CV.
var ErrNoChanges = errors.New("make some changes on your info before save it")

type FieldKind int

const (
	ScalarField FieldKind = iota
	ListField
)

// DiffField is one row of the change-detection table.
type DiffField struct {
	Key  string
	Kind FieldKind
	// present reports whether the baseline holds a value to compare against.
	present func(base *models.CVForm) bool
	changed func(base, next *models.CVForm) bool
	value   func(next *models.CVForm) any
}

// DiffFields is scanned in order by Diff.
var DiffFields = buildDiffFields()

func buildDiffFields() []DiffField {
	fields := make([]DiffField, 0, len(models.ScalarKeys)+3)
	for _, key := range models.ScalarKeys {
		fields = append(fields, scalarField(key))
	}
	return append(fields,
		DiffField{
			Key:     models.FieldSkills,
			Kind:    ListField,
			present: func(b *models.CVForm) bool { return b.Skills != nil },
			changed: func(b, n *models.CVForm) bool { return !skillsEqual(b.Skills, n.Skills) },
			value:   func(n *models.CVForm) any { return n.Skills },
		},
		DiffField{
			Key:     models.FieldJobs,
			Kind:    ListField,
			present: func(b *models.CVForm) bool { return b.Jobs != nil },
			changed: func(b, n *models.CVForm) bool { return !jobsEqual(b.Jobs, n.Jobs) },
			value:   func(n *models.CVForm) any { return n.Jobs },
		},
		DiffField{
			Key:     models.FieldProjects,
			Kind:    ListField,
			present: func(b *models.CVForm) bool { return b.Projects != nil },
			changed: func(b, n *models.CVForm) bool { return !projectsEqual(b.Projects, n.Projects) },
			value:   func(n *models.CVForm) any { return n.Projects },
		},
	)
}

func scalarField(key string) DiffField {
	return DiffField{
		Key:  key,
		Kind: ScalarField,
		present: func(b *models.CVForm) bool {
			v, _ := b.Scalar(key)
			return v != ""
		},
		changed: func(b, n *models.CVForm) bool {
			bv, _ := b.Scalar(key)
			nv, _ := n.Scalar(key)
			return bv != nv
		},
		value: func(n *models.CVForm) any {
			v, _ := n.Scalar(key)
			return v
		},
	}
}

// Diff returns the fields of next that differ from base. Fields base never
// had are left alone. templateIndex is included whenever the selected
// template differs from the stored one. The timestamp is not part of the
// result.
func Diff(base *models.CVDocument, next models.CVForm, templateIndex int) storage.Fields {
	out := make(storage.Fields)
	for _, f := range DiffFields {
		if !f.present(&base.CVForm) {
			continue
		}
		if f.changed(&base.CVForm, &next) {
			out[f.Key] = f.value(&next)
		}
	}
	if templateIndex != base.TemplateIndex {
		out[models.FieldTemplateIndex] = templateIndex
	}
	return out
}

func skillsEqual(a, b []models.Skill) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Skill != b[i].Skill {
			return false
		}
	}
	return true
}

func jobsEqual(a, b []models.Job) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Job != b[i].Job {
			return false
		}
	}
	return true
}

// projectsEqual treats a row as unchanged when either its name or its
// description matches.
func projectsEqual(a, b []models.Project) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Name != b[i].Name && a[i].Description != b[i].Description {
			return false
		}
	}
	return true
}
