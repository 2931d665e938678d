package models

import (
	"regexp"
	"strings"
)

// FieldErrors maps a field key to a human readable message.
type FieldErrors map[string]string

const (
	MsgAtLeastOneSkill   = "you must have at least one skill"
	MsgFillAllSkills     = "you must fill in all skills you have added, or remove empty ones"
	MsgAtLeastOneProject = "you must have at least one project"
	MsgFillAllProjects   = "you must fill all properties for each project, or remove unneccessery ones"
)

var (
	emailPattern    = regexp.MustCompile(`^[a-zA-Z0-9.!#$%&'*+/=?^_` + "`" + `{|}~-]+@[a-zA-Z0-9-]+(?:\.[a-zA-Z0-9-]+)*$`)
	websitePattern  = regexp.MustCompile(`(?i)^(?:(?:https?|ftp)://)?(?:www\.)?[a-z0-9-]+(?:\.[a-z0-9-]+)+[^\s]*$`)
	linkedinPattern = regexp.MustCompile(`^(http(s)?://)?([\w]+\.)?linkedin\.com/(pub|in|profile)`)
	githubPattern   = regexp.MustCompile(`^https?://github.com/([a-zA-Z0-9._-]+)`)
	behancePattern  = regexp.MustCompile(`(http(s?)://)?(www\.)?behance\.([a-z])+/([A-Za-z0-9]{1,})`)
	phonePattern    = regexp.MustCompile(`^\+?[0-9][0-9 -]*$`)
)

type fieldRule struct {
	key      string
	required string
	pattern  *regexp.Regexp
	invalid  string
}

var fieldRules = []fieldRule{
	{key: FieldProjectName, required: "You must provide a name for this project"},
	{key: FieldName, required: "name is required"},
	{key: FieldJobTitle, required: "job title is required"},
	{key: FieldPhoneNumber, required: "phone number is required", pattern: phonePattern, invalid: "please enter a valid phone number"},
	{key: FieldLocation, required: "location is required"},
	{key: FieldWebsiteLink, pattern: websitePattern, invalid: "please enter a valid url"},
	{key: FieldEmail, required: "email is required", pattern: emailPattern, invalid: "please enter a valid email"},
	{key: FieldLinkedinLink, required: "linkedin profile Link is required", pattern: linkedinPattern, invalid: "please enter a valid linkedin profile url"},
	{key: FieldGithubLink, pattern: githubPattern, invalid: "please enter a valid github profile url"},
	{key: FieldBehanceLink, pattern: behancePattern, invalid: "please enter a valid behance profile url"},
	{key: FieldAbout, required: "you need to type something about yourself"},
	{key: FieldEducation, required: "you need to type something about your education"},
}

// ScalarErrors runs the per-field required and format rules. Optional fields
// are valid when empty.
func (f *CVForm) ScalarErrors() FieldErrors {
	errors := make(FieldErrors)

	for _, rule := range fieldRules {
		val, _ := f.Scalar(rule.key)
		if strings.TrimSpace(val) == "" {
			if rule.required != "" {
				errors[rule.key] = rule.required
			}
			continue
		}
		if rule.pattern != nil && !rule.pattern.MatchString(val) {
			errors[rule.key] = rule.invalid
		}
	}

	return errors
}

// ListErrors evaluates the cross-field rules for skills and projects. They
// are checked separately from the per-field pass so list edits can set and
// clear them on their own.
func (f *CVForm) ListErrors() FieldErrors {
	errors := make(FieldErrors)

	if msg := skillsError(f.Skills); msg != "" {
		errors[FieldSkills] = msg
	}
	if msg := projectsError(f.Projects); msg != "" {
		errors[FieldProjects] = msg
	}

	return errors
}

// Validate merges the per-field and list rules.
func (f *CVForm) Validate() FieldErrors {
	errors := f.ScalarErrors()
	for k, v := range f.ListErrors() {
		errors[k] = v
	}
	return errors
}

func skillsError(skills []Skill) string {
	if len(skills) == 0 {
		return MsgAtLeastOneSkill
	}
	if len(skills) == 1 && skills[0].Skill == "" {
		return MsgAtLeastOneSkill
	}
	for _, s := range skills {
		if s.Skill == "" {
			return MsgFillAllSkills
		}
	}
	return ""
}

func projectsError(projects []Project) string {
	if len(projects) == 0 {
		return MsgAtLeastOneProject
	}
	if len(projects) == 1 && projects[0].Name == "" && projects[0].Description == "" {
		return MsgAtLeastOneProject
	}
	for _, p := range projects {
		if p.Name == "" || p.Description == "" {
			return MsgFillAllProjects
		}
	}
	return ""
}
