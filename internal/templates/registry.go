// Package templates maps template keys to their HTML preview and PDF export
// renderers.
package templates

import (
	"fmt"
	"html/template"
	"io"
	"sort"
	"strconv"

	"github.com/cvbuilder/backend/internal/models"
)

// DefaultKey is used whenever a stored key is not registered.
const DefaultKey = "1"

// Data is everything a renderer draws. Image holds the photo bytes for PDF
// export; previews link to ImgSrc instead.
type Data struct {
	models.CVForm
	ImgSrc    string
	Image     []byte
	ImageType string // "PNG" or "JPG"
}

type layoutFunc func(d *document, data *Data)

type Template struct {
	Key          string
	Name         string
	AcceptsImage bool

	preview *template.Template
	layout  layoutFunc
}

// Index is the key as stored in templateIndex.
func (t *Template) Index() int {
	n, _ := strconv.Atoi(t.Key)
	return n
}

func (t *Template) Info() models.TemplateInfo {
	return models.TemplateInfo{Key: t.Key, Name: t.Name, AcceptsImage: t.AcceptsImage}
}

// Preview writes the HTML rendition of data.
func (t *Template) Preview(w io.Writer, data *Data) error {
	if err := t.preview.ExecuteTemplate(w, "page", t.view(data)); err != nil {
		return fmt.Errorf("preview template %s: %w", t.Key, err)
	}
	return nil
}

// Export writes data as a PDF.
func (t *Template) Export(w io.Writer, data *Data) error {
	d := newDocument()
	t.layout(d, t.withoutImage(data))
	if err := d.pdf.Output(w); err != nil {
		return fmt.Errorf("export template %s: %w", t.Key, err)
	}
	return nil
}

func (t *Template) withoutImage(data *Data) *Data {
	if t.AcceptsImage {
		return data
	}
	out := *data
	out.ImgSrc, out.Image, out.ImageType = "", nil, ""
	return &out
}

// Registry is the fixed set of templates. It is read-only after construction.
type Registry struct {
	byKey map[string]*Template
}

func NewRegistry() *Registry {
	r := &Registry{byKey: make(map[string]*Template)}
	r.add(&Template{Key: "1", Name: "Sidebar", AcceptsImage: true, layout: sidebarLayout})
	r.add(&Template{Key: "2", Name: "Classic", layout: classicLayout})
	r.add(&Template{Key: "3", Name: "Two columns", layout: columnsLayout})
	return r
}

func (r *Registry) add(t *Template) {
	t.preview = previews[t.Key]
	r.byKey[t.Key] = t
}

// Lookup reports whether key is registered.
func (r *Registry) Lookup(key string) (*Template, bool) {
	t, ok := r.byKey[key]
	return t, ok
}

// Resolve returns the template for key, or the default one.
func (r *Registry) Resolve(key string) *Template {
	if t, ok := r.byKey[key]; ok {
		return t
	}
	return r.byKey[DefaultKey]
}

func (r *Registry) ResolveIndex(index int) *Template {
	return r.Resolve(strconv.Itoa(index))
}

// List returns the templates ordered by key.
func (r *Registry) List() []*Template {
	out := make([]*Template, 0, len(r.byKey))
	for _, t := range r.byKey {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index() < out[j].Index() })
	return out
}
