package models

import (
	"strconv"
	"strings"
	"time"
)

// Field keys as stored in every document backend and sent over the wire.
const (
	FieldProjectName   = "projectName"
	FieldName          = "name"
	FieldJobTitle      = "jobTitle"
	FieldPhoneNumber   = "phoneNumber"
	FieldLocation      = "location"
	FieldLinkedinLink  = "linkedinLink"
	FieldAbout         = "about"
	FieldEducation     = "education"
	FieldEmail         = "email"
	FieldGithubLink    = "githubLink"
	FieldWebsiteLink   = "websiteLink"
	FieldBehanceLink   = "behanceLink"
	FieldSkills        = "skills"
	FieldJobs          = "jobs"
	FieldProjects      = "projects"
	FieldTemplateIndex = "templateIndex"
	FieldUserID        = "userId"
	FieldImgSrc        = "imgSrc"
	FieldImgID         = "imgId"
	FieldCreatedAt     = "createdAt"
)

const untitledProject = "untitled"

type Skill struct {
	Skill string `json:"skill" firestore:"skill" bson:"skill"`
}

type Job struct {
	Job string `json:"job" firestore:"job" bson:"job"`
}

type Project struct {
	Name        string `json:"name" firestore:"name" bson:"name"`
	Description string `json:"description" firestore:"description" bson:"description"`
}

// CVForm is the user-editable part of a CV.
type CVForm struct {
	ProjectName  string    `json:"projectName"`
	Name         string    `json:"name"`
	JobTitle     string    `json:"jobTitle"`
	PhoneNumber  string    `json:"phoneNumber"`
	Location     string    `json:"location"`
	LinkedinLink string    `json:"linkedinLink"`
	About        string    `json:"about"`
	Education    string    `json:"education"`
	Email        string    `json:"email"`
	GithubLink   string    `json:"githubLink,omitempty"`
	WebsiteLink  string    `json:"websiteLink,omitempty"`
	BehanceLink  string    `json:"behanceLink,omitempty"`
	Skills       []Skill   `json:"skills"`
	Jobs         []Job     `json:"jobs"`
	Projects     []Project `json:"projects"`
}

// CVDocument is a persisted CV. CreatedAt is rewritten on every save, so it
// reads as "last modified".
type CVDocument struct {
	CVForm
	ID            string    `json:"id"`
	UserID        string    `json:"userId"`
	TemplateIndex int       `json:"templateIndex"`
	ImgSrc        string    `json:"imgSrc,omitempty"`
	ImgID         string    `json:"imgId,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

// HasImage reports whether both image fields are present.
func (d *CVDocument) HasImage() bool {
	return d.ImgSrc != "" && d.ImgID != ""
}

// DisplayName is the label shown in CV lists.
func (f *CVForm) DisplayName() string {
	if strings.TrimSpace(f.ProjectName) == "" {
		return untitledProject
	}
	return f.ProjectName
}

// Normalize drops empty job rows. The result may have no jobs at all.
func (f *CVForm) Normalize() {
	jobs := make([]Job, 0, len(f.Jobs))
	for _, j := range f.Jobs {
		if j.Job != "" {
			jobs = append(jobs, j)
		}
	}
	f.Jobs = jobs
}

// Clone returns a deep copy so list edits never alias a baseline. Empty
// lists stay empty rather than becoming nil.
func (f CVForm) Clone() CVForm {
	out := f
	out.Skills = cloneList(f.Skills)
	out.Jobs = cloneList(f.Jobs)
	out.Projects = cloneList(f.Projects)
	return out
}

// cloneList keeps nil and empty apart: an empty list is a stored value the
// diff compares against, nil means the field was never stored.
func cloneList[T any](in []T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	copy(out, in)
	return out
}

// Scalar returns the value of a scalar field by key.
func (f *CVForm) Scalar(key string) (string, bool) {
	p := f.scalarPtr(key)
	if p == nil {
		return "", false
	}
	return *p, true
}

// SetScalar assigns a scalar field by key. It reports false for unknown keys.
func (f *CVForm) SetScalar(key, value string) bool {
	p := f.scalarPtr(key)
	if p == nil {
		return false
	}
	*p = value
	return true
}

func (f *CVForm) scalarPtr(key string) *string {
	switch key {
	case FieldProjectName:
		return &f.ProjectName
	case FieldName:
		return &f.Name
	case FieldJobTitle:
		return &f.JobTitle
	case FieldPhoneNumber:
		return &f.PhoneNumber
	case FieldLocation:
		return &f.Location
	case FieldLinkedinLink:
		return &f.LinkedinLink
	case FieldAbout:
		return &f.About
	case FieldEducation:
		return &f.Education
	case FieldEmail:
		return &f.Email
	case FieldGithubLink:
		return &f.GithubLink
	case FieldWebsiteLink:
		return &f.WebsiteLink
	case FieldBehanceLink:
		return &f.BehanceLink
	}
	return nil
}

// ScalarKeys lists the scalar form fields in display order.
var ScalarKeys = []string{
	FieldProjectName,
	FieldName,
	FieldJobTitle,
	FieldPhoneNumber,
	FieldLocation,
	FieldWebsiteLink,
	FieldEmail,
	FieldLinkedinLink,
	FieldGithubLink,
	FieldBehanceLink,
	FieldAbout,
	FieldEducation,
}

// SetField applies one stored field value to the document. Values come from
// store adapters, so numbers may arrive as any numeric type.
func (d *CVDocument) SetField(key string, v any) {
	switch key {
	case FieldSkills:
		d.Skills, _ = v.([]Skill)
	case FieldJobs:
		d.Jobs, _ = v.([]Job)
	case FieldProjects:
		d.Projects, _ = v.([]Project)
	case FieldTemplateIndex:
		d.TemplateIndex = ParseTemplateIndex(v)
	case FieldUserID:
		d.UserID, _ = v.(string)
	case FieldImgSrc:
		d.ImgSrc, _ = v.(string)
	case FieldImgID:
		d.ImgID, _ = v.(string)
	case FieldCreatedAt:
		d.CreatedAt, _ = v.(time.Time)
	case FieldPhoneNumber:
		d.PhoneNumber = LooseString(v)
	default:
		if s, ok := v.(string); ok {
			d.SetScalar(key, s)
		}
	}
}

// ClearField removes a stored field from the document.
func (d *CVDocument) ClearField(key string) {
	switch key {
	case FieldSkills:
		d.Skills = nil
	case FieldJobs:
		d.Jobs = nil
	case FieldProjects:
		d.Projects = nil
	case FieldTemplateIndex:
		d.TemplateIndex = 0
	case FieldUserID:
		d.UserID = ""
	case FieldImgSrc:
		d.ImgSrc = ""
	case FieldImgID:
		d.ImgID = ""
	case FieldCreatedAt:
		d.CreatedAt = time.Time{}
	default:
		d.SetScalar(key, "")
	}
}

// ParseTemplateIndex accepts the shapes templateIndex has been stored as
// (int, float, numeric string). Anything else yields 0.
func ParseTemplateIndex(v any) int {
	switch t := v.(type) {
	case int:
		return t
	case int32:
		return int(t)
	case int64:
		return int(t)
	case float64:
		return int(t)
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil {
			return 0
		}
		return n
	}
	return 0
}

// LooseString renders strings and numbers as a string. Old clients stored
// phone numbers as numbers.
func LooseString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case int:
		return strconv.Itoa(t)
	case int32:
		return strconv.FormatInt(int64(t), 10)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	}
	return ""
}
