package form

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cvbuilder/backend/internal/models"
)

func validValues() models.CVForm {
	return models.CVForm{
		ProjectName:  "backend",
		Name:         "Ada Lovelace",
		JobTitle:     "Engineer",
		PhoneNumber:  "+44 20 7946 0958",
		Location:     "London",
		LinkedinLink: "https://www.linkedin.com/in/ada",
		About:        "about",
		Education:    "education",
		Email:        "ada@example.com",
		Skills:       []models.Skill{{Skill: "go"}},
		Jobs:         []models.Job{{Job: "analyst"}, {}},
		Projects:     []models.Project{{Name: "engine", Description: "analytical"}},
	}
}

func TestNew_Defaults(t *testing.T) {
	s := New()
	v := s.Values()
	assert.Equal(t, "untitled", v.ProjectName)
	assert.Len(t, v.Skills, 1)
	assert.Len(t, v.Jobs, 1)
	assert.Len(t, v.Projects, 1)
	assert.False(t, s.Pending())
	assert.Empty(t, s.Errors())
}

func TestFromDocument_EmptyJobsGetOneRow(t *testing.T) {
	doc := &models.CVDocument{CVForm: validValues()}
	doc.Jobs = nil

	s := FromDocument(doc)
	assert.Equal(t, []models.Job{{}}, s.Values().Jobs)
}

func TestReset(t *testing.T) {
	doc := &models.CVDocument{CVForm: validValues()}
	s := FromDocument(doc)
	require.NoError(t, s.Set(models.FieldName, "Grace"))
	require.NoError(t, s.AddSkill())

	s.Reset()
	assert.Equal(t, "Ada Lovelace", s.Values().Name)
	assert.Len(t, s.Values().Skills, 1)

	fresh := New()
	require.NoError(t, fresh.Set(models.FieldName, "x"))
	fresh.Reset()
	assert.Equal(t, Defaults(), fresh.Values())
}

func TestSet_UnknownField(t *testing.T) {
	s := New()
	assert.ErrorIs(t, s.Set("nope", "x"), ErrUnknownField)
}

func TestRemove_FirstRowAndRange(t *testing.T) {
	s := New()
	assert.ErrorIs(t, s.RemoveSkill(0), ErrFirstRow)
	assert.ErrorIs(t, s.RemoveJob(0), ErrFirstRow)
	assert.ErrorIs(t, s.RemoveProject(0), ErrFirstRow)
	assert.ErrorIs(t, s.RemoveSkill(3), ErrNoSuchRow)
	assert.ErrorIs(t, s.SetSkill(-1, "x"), ErrNoSuchRow)

	require.NoError(t, s.AddSkill())
	require.NoError(t, s.SetSkill(1, "go"))
	require.NoError(t, s.RemoveSkill(1))
	assert.Len(t, s.Values().Skills, 1)
}

func TestListChanged_SetsAndClearsErrors(t *testing.T) {
	s := New()
	require.NoError(t, s.AddSkill())
	assert.Equal(t, models.MsgFillAllSkills, s.Errors()[models.FieldSkills])
	assert.Equal(t, models.MsgAtLeastOneProject, s.Errors()[models.FieldProjects])

	require.NoError(t, s.SetSkill(0, "go"))
	require.NoError(t, s.SetSkill(1, "sql"))
	require.NoError(t, s.SetProject(0, models.Project{Name: "a", Description: "b"}))
	assert.NotContains(t, s.Errors(), models.FieldSkills)
	assert.NotContains(t, s.Errors(), models.FieldProjects)
}

func TestSubmit_ValidNormalisesJobs(t *testing.T) {
	s := New()
	s.Replace(validValues())

	var got models.CVForm
	calls := 0
	errs, err := s.Submit(context.Background(), func(ctx context.Context, v models.CVForm) error {
		calls++
		got = v
		return nil
	})
	require.NoError(t, err)
	assert.Empty(t, errs)
	assert.Equal(t, 1, calls)
	assert.Equal(t, []models.Job{{Job: "analyst"}}, got.Jobs)
	assert.False(t, s.Pending())
}

func TestSubmit_PendingFiresOnceWhenListsBecomeValid(t *testing.T) {
	v := validValues()
	v.Skills = []models.Skill{{Skill: "go"}, {}}
	s := New()
	s.Replace(v)

	calls := 0
	fn := func(ctx context.Context, v models.CVForm) error {
		calls++
		return nil
	}

	errs, err := s.Submit(context.Background(), fn)
	require.NoError(t, err)
	assert.Equal(t, models.MsgFillAllSkills, errs[models.FieldSkills])
	assert.True(t, s.Pending())
	assert.Equal(t, 0, calls)

	// still invalid, nothing fires
	require.NoError(t, s.AddJob())
	assert.Equal(t, 0, calls)

	require.NoError(t, s.RemoveSkill(1))
	assert.Equal(t, 1, calls)
	assert.False(t, s.Pending())
	assert.Empty(t, s.Errors())

	require.NoError(t, s.AddJob())
	assert.Equal(t, 1, calls)
}

func TestSubmit_PendingWaitsForScalarFixes(t *testing.T) {
	v := validValues()
	v.Name = ""
	v.Skills = []models.Skill{{}}
	s := New()
	s.Replace(v)

	calls := 0
	_, err := s.Submit(context.Background(), func(ctx context.Context, v models.CVForm) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "name is required", s.Errors()[models.FieldName])

	require.NoError(t, s.SetSkill(0, "go"))
	assert.Equal(t, 0, calls)
	assert.True(t, s.Pending())

	require.NoError(t, s.Set(models.FieldName, "Ada"))
	assert.NotContains(t, s.Errors(), models.FieldName)
	assert.Equal(t, 0, calls)

	require.NoError(t, s.AddJob())
	assert.Equal(t, 1, calls)
}
