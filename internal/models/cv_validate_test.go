package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validCV() CVForm {
	return CVForm{
		ProjectName:  "backend",
		Name:         "Ada Lovelace",
		JobTitle:     "Engineer",
		PhoneNumber:  "+44 20-7946-0000",
		Location:     "London",
		LinkedinLink: "https://www.linkedin.com/in/ada",
		About:        "about",
		Education:    "education",
		Email:        "ada@example.com",
		Skills:       []Skill{{Skill: "Go"}},
		Jobs:         []Job{{Job: "analyst"}},
		Projects:     []Project{{Name: "X", Description: "Y"}},
	}
}

func TestValidate_ValidFormHasNoErrors(t *testing.T) {
	f := validCV()
	assert.Empty(t, f.Validate())

	// Optional links are fine when left empty.
	f.GithubLink, f.WebsiteLink, f.BehanceLink = "", "", ""
	assert.Empty(t, f.Validate())

	f.GithubLink = "https://github.com/ada"
	f.WebsiteLink = "ada.dev/about"
	f.BehanceLink = "https://www.behance.net/ada"
	assert.Empty(t, f.Validate())
}

func TestValidate_FieldRules(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
		want  string
	}{
		{"missing project name", FieldProjectName, "", "You must provide a name for this project"},
		{"missing name", FieldName, "  ", "name is required"},
		{"missing job title", FieldJobTitle, "", "job title is required"},
		{"missing phone", FieldPhoneNumber, "", "phone number is required"},
		{"letters in phone", FieldPhoneNumber, "call me", "please enter a valid phone number"},
		{"missing location", FieldLocation, "", "location is required"},
		{"missing email", FieldEmail, "", "email is required"},
		{"bad email", FieldEmail, "ada@", "please enter a valid email"},
		{"missing linkedin", FieldLinkedinLink, "", "linkedin profile Link is required"},
		{"bad linkedin", FieldLinkedinLink, "https://twitter.com/ada", "please enter a valid linkedin profile url"},
		{"bad website", FieldWebsiteLink, "not a url", "please enter a valid url"},
		{"bad github", FieldGithubLink, "github.com/ada", "please enter a valid github profile url"},
		{"bad behance", FieldBehanceLink, "https://dribbble.com/ada", "please enter a valid behance profile url"},
		{"missing about", FieldAbout, "", "you need to type something about yourself"},
		{"missing education", FieldEducation, "", "you need to type something about your education"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := validCV()
			assert.True(t, f.SetScalar(tt.key, tt.value))
			errs := f.Validate()
			assert.Equal(t, FieldErrors{tt.key: tt.want}, errs)
		})
	}
}

func TestListErrors(t *testing.T) {
	tests := []struct {
		name     string
		skills   []Skill
		projects []Project
		want     FieldErrors
	}{
		{
			name:     "valid",
			skills:   []Skill{{Skill: "Go"}, {Skill: "SQL"}},
			projects: []Project{{Name: "a", Description: "b"}},
			want:     FieldErrors{},
		},
		{
			name:     "empty lists",
			skills:   nil,
			projects: []Project{},
			want:     FieldErrors{FieldSkills: MsgAtLeastOneSkill, FieldProjects: MsgAtLeastOneProject},
		},
		{
			name:     "single empty rows",
			skills:   []Skill{{}},
			projects: []Project{{}},
			want:     FieldErrors{FieldSkills: MsgAtLeastOneSkill, FieldProjects: MsgAtLeastOneProject},
		},
		{
			name:     "blank row among filled ones",
			skills:   []Skill{{Skill: "Go"}, {}},
			projects: []Project{{Name: "a", Description: "b"}, {Name: "c"}},
			want:     FieldErrors{FieldSkills: MsgFillAllSkills, FieldProjects: MsgFillAllProjects},
		},
		{
			name:     "single half-filled project",
			skills:   []Skill{{Skill: "Go"}},
			projects: []Project{{Description: "b"}},
			want:     FieldErrors{FieldProjects: MsgFillAllProjects},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := validCV()
			f.Skills, f.Projects = tt.skills, tt.projects
			assert.Equal(t, tt.want, f.ListErrors())
		})
	}
}

func TestClone_KeepsEmptyListsApartFromNil(t *testing.T) {
	f := CVForm{Skills: []Skill{{Skill: "Go"}}, Jobs: []Job{}}
	out := f.Clone()

	assert.NotNil(t, out.Jobs)
	assert.Empty(t, out.Jobs)
	assert.Nil(t, out.Projects)

	out.Skills[0].Skill = "Rust"
	assert.Equal(t, "Go", f.Skills[0].Skill)
}
