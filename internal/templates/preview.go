package templates

import (
	"embed"
	"html/template"
	"strings"

	"github.com/cvbuilder/backend/internal/models"
)

//go:embed html/*.html
var previewFS embed.FS

var previews = map[string]*template.Template{
	"1": parsePreview("html/sidebar.html"),
	"2": parsePreview("html/classic.html"),
	"3": parsePreview("html/columns.html"),
}

func parsePreview(name string) *template.Template {
	return template.Must(template.New("").Funcs(template.FuncMap{
		"upper": strings.ToUpper,
	}).ParseFS(previewFS, "html/base.html", name))
}

type contactLine struct {
	Label string
	Value string
	Href  string
}

type previewView struct {
	*Data
	Contacts   []contactLine
	Experience []string
}

func (t *Template) view(data *Data) previewView {
	d := t.withoutImage(data)
	v := previewView{Data: d, Contacts: contacts(&d.CVForm)}
	for _, j := range d.CVForm.Jobs {
		if j.Job != "" {
			v.Experience = append(v.Experience, j.Job)
		}
	}
	return v
}

func contacts(f *models.CVForm) []contactLine {
	var out []contactLine
	add := func(label, value, href string) {
		if value != "" {
			out = append(out, contactLine{Label: label, Value: value, Href: href})
		}
	}
	add("Phone", f.PhoneNumber, "")
	add("Email", f.Email, "mailto:"+f.Email)
	add("Location", f.Location, "")
	add("LinkedIn", f.LinkedinLink, withScheme(f.LinkedinLink))
	add("GitHub", f.GithubLink, withScheme(f.GithubLink))
	add("Website", f.WebsiteLink, withScheme(f.WebsiteLink))
	add("Behance", f.BehanceLink, withScheme(f.BehanceLink))
	return out
}

func withScheme(link string) string {
	if link == "" || strings.Contains(link, "://") {
		return link
	}
	return "https://" + link
}
