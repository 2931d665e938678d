package templates

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/ledongthuc/pdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cvbuilder/backend/internal/models"
)

func sampleData() *Data {
	return &Data{CVForm: models.CVForm{
		ProjectName:  "backend",
		Name:         "Zoë Ångström",
		JobTitle:     "Engineer",
		PhoneNumber:  "+44 20 7946 0958",
		Location:     "London",
		LinkedinLink: "linkedin.com/in/zoe",
		GithubLink:   "https://github.com/zoe",
		About:        strings.Repeat("Builds things. ", 40),
		Education:    "BSc Mathematics",
		Email:        "zoe@example.com",
		Skills:       []models.Skill{{Skill: "Go"}, {Skill: "SQL"}},
		Jobs:         []models.Job{{Job: "Analyst at Engine Co"}},
		Projects:     []models.Project{{Name: "X", Description: "Y"}},
	}}
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for x := 0; x < 8; x++ {
		for y := 0; y < 8; y++ {
			img.Set(x, y, color.RGBA{R: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestRegistry_Resolve(t *testing.T) {
	r := NewRegistry()

	assert.Equal(t, "2", r.Resolve("2").Key)
	assert.Equal(t, DefaultKey, r.Resolve("9").Key)
	assert.Equal(t, DefaultKey, r.Resolve("").Key)
	assert.Equal(t, "3", r.ResolveIndex(3).Key)
	assert.Equal(t, DefaultKey, r.ResolveIndex(0).Key)

	_, ok := r.Lookup("9")
	assert.False(t, ok)
	tpl, ok := r.Lookup("1")
	require.True(t, ok)
	assert.True(t, tpl.AcceptsImage)
	assert.Equal(t, 1, tpl.Index())
}

func TestRegistry_List(t *testing.T) {
	list := NewRegistry().List()
	require.Len(t, list, 3)
	assert.Equal(t, []string{"1", "2", "3"}, []string{list[0].Key, list[1].Key, list[2].Key})
	assert.True(t, list[0].Info().AcceptsImage)
	assert.False(t, list[1].Info().AcceptsImage)
	assert.False(t, list[2].Info().AcceptsImage)
}

func TestExport_ProducesPDF(t *testing.T) {
	r := NewRegistry()
	for _, tpl := range r.List() {
		t.Run(tpl.Name, func(t *testing.T) {
			data := sampleData()
			data.Image = pngBytes(t)
			data.ImageType = "PNG"

			var buf bytes.Buffer
			require.NoError(t, tpl.Export(&buf, data))

			b := buf.Bytes()
			require.True(t, bytes.HasPrefix(b, []byte("%PDF-")))
			reader, err := pdf.NewReader(bytes.NewReader(b), int64(len(b)))
			require.NoError(t, err)
			assert.GreaterOrEqual(t, reader.NumPage(), 1)
		})
	}
}

func TestExport_BadImageIsSkipped(t *testing.T) {
	data := sampleData()
	data.Image = []byte("not an image")
	data.ImageType = "PNG"

	var buf bytes.Buffer
	require.NoError(t, NewRegistry().Resolve("1").Export(&buf, data))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

func TestPreview(t *testing.T) {
	r := NewRegistry()

	data := sampleData()
	data.ImgSrc = "https://cdn.example.com/photo.png"
	data.GithubLink = `https://github.com/zoe"><script>`

	var withImage bytes.Buffer
	require.NoError(t, r.Resolve("1").Preview(&withImage, data))
	html := withImage.String()
	assert.Contains(t, html, "Zoë Ångström")
	assert.Contains(t, html, `src="https://cdn.example.com/photo.png"`)
	assert.Contains(t, html, "template-1")
	assert.NotContains(t, html, "<script>")

	var noImage bytes.Buffer
	require.NoError(t, r.Resolve("2").Preview(&noImage, data))
	assert.NotContains(t, noImage.String(), "photo.png")
	assert.Contains(t, noImage.String(), "template-2")
}

func TestPreview_UnknownKeyUsesDefault(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewRegistry().Resolve("42").Preview(&buf, sampleData()))
	assert.Contains(t, buf.String(), "template-1")
}
