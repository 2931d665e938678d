package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cvbuilder/backend/internal/models"
	"github.com/cvbuilder/backend/internal/session"
	"github.com/cvbuilder/backend/internal/storage"
	"github.com/cvbuilder/backend/internal/templates"
)

var (
	ErrCVNotFound      = errors.New("cv not found")
	ErrForbidden       = errors.New("cv belongs to another user")
	ErrUnauthenticated = errors.New("sign in required")
	ErrSaveInProgress  = errors.New("a save is already in progress")
	ErrImageUpload     = errors.New("failed to upload image")
	ErrImageDelete     = errors.New("failed to delete image")
)

const MsgUnknownTemplate = "please choose one of the available templates"

// ValidationError carries the per-field messages of a rejected save.
type ValidationError struct {
	Fields models.FieldErrors
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %d field(s)", len(e.Fields))
}

type SaveMode int

const (
	ModeCreate SaveMode = iota
	ModeEdit
)

type ImageAction int

const (
	ImageUnchanged ImageAction = iota
	ImageAttached
	ImageRemoved
)

// ImageIntent is what the user did with the photo widget.
type ImageIntent struct {
	Action      ImageAction
	Reader      io.Reader
	ContentType string
}

type SaveRequest struct {
	Mode     SaveMode
	ID       string // edit only
	Values   models.CVForm
	Template string
	Image    ImageIntent
}

// Rendered is a finished preview or export.
type Rendered struct {
	Filename    string
	ContentType string
	Body        []byte
}

// CVService validates, diffs and persists CVs and renders them through the
// template registry.
type CVService struct {
	docs     storage.DocumentStore
	blobs    storage.BlobStore
	registry *templates.Registry
	logger   *zap.SugaredLogger

	mu   sync.Mutex
	busy map[string]struct{} // userID -> save in flight
}

func NewCVService(docs storage.DocumentStore, blobs storage.BlobStore, registry *templates.Registry, logger *zap.SugaredLogger) *CVService {
	return &CVService{
		docs:     docs,
		blobs:    blobs,
		registry: registry,
		logger:   logger,
		busy:     make(map[string]struct{}),
	}
}

func (s *CVService) Templates() *templates.Registry {
	return s.registry
}

// Save runs one create or edit and returns the document id. Nothing is
// written when validation fails, the edit changes nothing, or an image side
// effect fails.
func (s *CVService) Save(ctx context.Context, p *session.Principal, req SaveRequest) (string, error) {
	if p == nil || p.ID == "" {
		return "", ErrUnauthenticated
	}
	release, err := s.acquire(p.ID)
	if err != nil {
		return "", err
	}
	defer release()

	errs := req.Values.Validate()
	if req.Template != "" {
		if _, ok := s.registry.Lookup(req.Template); !ok {
			errs[models.FieldTemplateIndex] = MsgUnknownTemplate
		}
	}
	if len(errs) > 0 {
		return "", &ValidationError{Fields: errs}
	}
	values := req.Values.Clone()
	values.Normalize()

	var base *models.CVDocument
	var fields storage.Fields
	var tpl *templates.Template
	switch req.Mode {
	case ModeEdit:
		base, err = s.owned(ctx, p, req.ID)
		if err != nil {
			return "", err
		}
		// An edit without a template keeps the stored index as is, even one
		// that is no longer registered.
		index := base.TemplateIndex
		tpl = s.registry.ResolveIndex(index)
		if req.Template != "" {
			tpl = s.registry.Resolve(req.Template)
			index = tpl.Index()
		}
		fields = Diff(base, values, index)
		if len(fields) == 0 {
			return "", ErrNoChanges
		}
	default:
		key := req.Template
		if key == "" {
			key = templates.DefaultKey
		}
		tpl = s.registry.Resolve(key)
		fields = createFields(values, tpl.Index(), p.ID)
	}
	fields[models.FieldCreatedAt] = storage.ServerTimestamp

	if err := s.applyImage(ctx, tpl, base, req.Image, fields); err != nil {
		return "", err
	}

	if base == nil {
		id, err := s.docs.Insert(ctx, fields)
		if err != nil {
			s.logger.Errorw("Save: insert failed", "user_id", p.ID, "error", err)
			return "", fmt.Errorf("insert cv: %w", err)
		}
		s.logger.Infow("CV created", "user_id", p.ID, "cv_id", id, "template", tpl.Key)
		return id, nil
	}

	if err := s.docs.Update(ctx, base.ID, fields); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", ErrCVNotFound
		}
		s.logger.Errorw("Save: update failed", "user_id", p.ID, "cv_id", base.ID, "error", err)
		return "", fmt.Errorf("update cv: %w", err)
	}
	s.logger.Infow("CV updated", "user_id", p.ID, "cv_id", base.ID, "fields", fields.Keys())
	return base.ID, nil
}

func createFields(v models.CVForm, templateIndex int, userID string) storage.Fields {
	fields := make(storage.Fields, len(models.ScalarKeys)+6)
	for _, key := range models.ScalarKeys {
		val, _ := v.Scalar(key)
		fields[key] = val
	}
	fields[models.FieldSkills] = v.Skills
	fields[models.FieldJobs] = v.Jobs
	fields[models.FieldProjects] = v.Projects
	fields[models.FieldTemplateIndex] = templateIndex
	fields[models.FieldUserID] = userID
	return fields
}

// applyImage stages image fields. An upload wins over a removal; a removal
// without a stored image does nothing.
func (s *CVService) applyImage(ctx context.Context, tpl *templates.Template, base *models.CVDocument, img ImageIntent, fields storage.Fields) error {
	switch {
	case tpl.AcceptsImage && img.Action == ImageAttached && img.Reader != nil:
		key := uuid.New().String()
		if base != nil && base.ImgID != "" {
			key = base.ImgID
		}
		url, err := s.blobs.Put(ctx, key, img.Reader, img.ContentType)
		if err != nil {
			s.logger.Errorw("Save: image upload failed", "img_id", key, "error", err)
			return fmt.Errorf("%w: %v", ErrImageUpload, err)
		}
		fields[models.FieldImgSrc] = url
		fields[models.FieldImgID] = key

	case base != nil && img.Action == ImageRemoved && base.ImgID != "":
		if err := s.blobs.Delete(ctx, base.ImgID); err != nil {
			s.logger.Errorw("Save: image delete failed", "img_id", base.ImgID, "error", err)
			return fmt.Errorf("%w: %v", ErrImageDelete, err)
		}
		fields[models.FieldImgSrc] = storage.DeleteField
		fields[models.FieldImgID] = storage.DeleteField
	}
	return nil
}

func (s *CVService) acquire(userID string) (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.busy[userID]; ok {
		return nil, ErrSaveInProgress
	}
	s.busy[userID] = struct{}{}
	return func() {
		s.mu.Lock()
		delete(s.busy, userID)
		s.mu.Unlock()
	}, nil
}

// Get loads any CV by id. Downloads are public, so there is no owner check.
func (s *CVService) Get(ctx context.Context, id string) (*models.CVDocument, error) {
	if id == "" {
		return nil, ErrCVNotFound
	}
	doc, err := s.docs.Get(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrCVNotFound
		}
		return nil, fmt.Errorf("get cv: %w", err)
	}
	return doc, nil
}

// GetOwned loads a CV for editing. Only its owner may edit it.
func (s *CVService) GetOwned(ctx context.Context, p *session.Principal, id string) (*models.CVDocument, error) {
	if p == nil || p.ID == "" {
		return nil, ErrUnauthenticated
	}
	return s.owned(ctx, p, id)
}

func (s *CVService) owned(ctx context.Context, p *session.Principal, id string) (*models.CVDocument, error) {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc.UserID != p.ID {
		return nil, ErrForbidden
	}
	return doc, nil
}

func (s *CVService) List(ctx context.Context, p *session.Principal) ([]*models.CVDocument, error) {
	if p == nil || p.ID == "" {
		return nil, ErrUnauthenticated
	}
	docs, err := s.docs.ListByOwner(ctx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("list cvs: %w", err)
	}
	return docs, nil
}

// Subscribe streams the owner's full CV list until ctx ends.
func (s *CVService) Subscribe(ctx context.Context, p *session.Principal) (<-chan []*models.CVDocument, error) {
	if p == nil || p.ID == "" {
		return nil, ErrUnauthenticated
	}
	ch, err := s.docs.Subscribe(ctx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("subscribe cvs: %w", err)
	}
	return ch, nil
}

// Delete removes the document, then its image. A failed image delete only
// leaves an orphaned blob and is logged.
func (s *CVService) Delete(ctx context.Context, p *session.Principal, id string) error {
	doc, err := s.GetOwned(ctx, p, id)
	if err != nil {
		return err
	}
	if err := s.docs.Delete(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrCVNotFound
		}
		return fmt.Errorf("delete cv: %w", err)
	}
	if doc.ImgID != "" {
		if err := s.blobs.Delete(ctx, doc.ImgID); err != nil {
			s.logger.Warnw("Delete: image delete failed", "cv_id", id, "img_id", doc.ImgID, "error", err)
		}
	}
	s.logger.Infow("CV deleted", "user_id", p.ID, "cv_id", id)
	return nil
}

// Export renders the stored CV as a PDF with its stored template.
func (s *CVService) Export(ctx context.Context, id string) (*Rendered, error) {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	tpl := s.registry.ResolveIndex(doc.TemplateIndex)
	data := s.renderData(ctx, doc, tpl, true)

	var buf bytes.Buffer
	if err := tpl.Export(&buf, data); err != nil {
		return nil, err
	}
	return &Rendered{
		Filename:    pdfFilename(doc.DisplayName()),
		ContentType: "application/pdf",
		Body:        buf.Bytes(),
	}, nil
}

// Preview renders the stored CV as HTML.
func (s *CVService) Preview(ctx context.Context, id string) (*Rendered, error) {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	tpl := s.registry.ResolveIndex(doc.TemplateIndex)
	return renderPreview(tpl, s.renderData(ctx, doc, tpl, false))
}

// PreviewDraft renders unsaved values, so the form can show the result
// before the first save.
func (s *CVService) PreviewDraft(values models.CVForm, templateKey, imgSrc string) (*Rendered, error) {
	tpl := s.registry.Resolve(templateKey)
	return renderPreview(tpl, &templates.Data{CVForm: values, ImgSrc: imgSrc})
}

func renderPreview(tpl *templates.Template, data *templates.Data) (*Rendered, error) {
	var buf bytes.Buffer
	if err := tpl.Preview(&buf, data); err != nil {
		return nil, err
	}
	return &Rendered{ContentType: "text/html; charset=utf-8", Body: buf.Bytes()}, nil
}

// renderData reads the photo bytes for PDF export. A missing or unreadable
// photo leaves the CV without one.
func (s *CVService) renderData(ctx context.Context, doc *models.CVDocument, tpl *templates.Template, withBytes bool) *templates.Data {
	data := &templates.Data{CVForm: doc.CVForm, ImgSrc: doc.ImgSrc}
	if !withBytes || !tpl.AcceptsImage || doc.ImgID == "" {
		return data
	}

	rc, err := s.blobs.Open(ctx, doc.ImgID)
	if err != nil {
		s.logger.Warnw("Export: image unavailable", "cv_id", doc.ID, "img_id", doc.ImgID, "error", err)
		return data
	}
	defer rc.Close()

	b, err := io.ReadAll(io.LimitReader(rc, maxExportImageBytes))
	if err != nil {
		s.logger.Warnw("Export: image read failed", "cv_id", doc.ID, "img_id", doc.ImgID, "error", err)
		return data
	}
	switch http.DetectContentType(b) {
	case "image/png":
		data.Image, data.ImageType = b, "PNG"
	case "image/jpeg":
		data.Image, data.ImageType = b, "JPG"
	}
	return data
}

const maxExportImageBytes = 10 << 20

func pdfFilename(name string) string {
	clean := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		case r == ' ':
			return '_'
		}
		return -1
	}, name)
	if clean == "" {
		clean = "cv"
	}
	return clean + ".pdf"
}
