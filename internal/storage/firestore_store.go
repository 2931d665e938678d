package storage

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/cvbuilder/backend/internal/models"
)

// FirestoreStore keeps CVs in the Firestore collection used by the web client.
type FirestoreStore struct {
	client *firestore.Client
	col    *firestore.CollectionRef
	logger *zap.SugaredLogger
}

// firestoreCV tolerates the shapes older clients wrote: templateIndex as a
// string, phoneNumber as a number, and the capitalised BehanceLink key.
type firestoreCV struct {
	ProjectName       string           `firestore:"projectName"`
	Name              string           `firestore:"name"`
	JobTitle          string           `firestore:"jobTitle"`
	PhoneNumber       interface{}      `firestore:"phoneNumber"`
	Location          string           `firestore:"location"`
	LinkedinLink      string           `firestore:"linkedinLink"`
	About             string           `firestore:"about"`
	Education         string           `firestore:"education"`
	Email             string           `firestore:"email"`
	GithubLink        string           `firestore:"githubLink"`
	WebsiteLink       string           `firestore:"websiteLink"`
	BehanceLink       string           `firestore:"behanceLink"`
	LegacyBehanceLink string           `firestore:"BehanceLink"`
	Skills            []models.Skill   `firestore:"skills"`
	Jobs              []models.Job     `firestore:"jobs"`
	Projects          []models.Project `firestore:"projects"`
	TemplateIndex     interface{}      `firestore:"templateIndex"`
	UserID            string           `firestore:"userId"`
	ImgSrc            string           `firestore:"imgSrc"`
	ImgID             string           `firestore:"imgId"`
	CreatedAt         time.Time        `firestore:"createdAt"`
}

func (r *firestoreCV) toModel(id string) *models.CVDocument {
	behance := r.BehanceLink
	if behance == "" {
		behance = r.LegacyBehanceLink
	}
	return &models.CVDocument{
		CVForm: models.CVForm{
			ProjectName:  r.ProjectName,
			Name:         r.Name,
			JobTitle:     r.JobTitle,
			PhoneNumber:  models.LooseString(r.PhoneNumber),
			Location:     r.Location,
			LinkedinLink: r.LinkedinLink,
			About:        r.About,
			Education:    r.Education,
			Email:        r.Email,
			GithubLink:   r.GithubLink,
			WebsiteLink:  r.WebsiteLink,
			BehanceLink:  behance,
			Skills:       r.Skills,
			Jobs:         r.Jobs,
			Projects:     r.Projects,
		},
		ID:            id,
		UserID:        r.UserID,
		TemplateIndex: models.ParseTemplateIndex(r.TemplateIndex),
		ImgSrc:        r.ImgSrc,
		ImgID:         r.ImgID,
		CreatedAt:     r.CreatedAt,
	}
}

func NewFirestoreStore(ctx context.Context, app *firebase.App, logger *zap.SugaredLogger) (*FirestoreStore, error) {
	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("firestore: client: %w", err)
	}
	return &FirestoreStore{
		client: client,
		col:    client.Collection(CVCollection),
		logger: logger,
	}, nil
}

func (s *FirestoreStore) Close(ctx context.Context) error {
	return s.client.Close()
}

func (s *FirestoreStore) Get(ctx context.Context, id string) (*models.CVDocument, error) {
	snap, err := s.col.Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return decodeFirestoreCV(snap)
}

func (s *FirestoreStore) Insert(ctx context.Context, fields Fields) (string, error) {
	data := make(map[string]interface{}, len(fields))
	for _, k := range fields.Keys() {
		v := fields[k]
		if IsDeleteField(v) {
			continue
		}
		data[k] = firestoreValue(v)
	}
	ref, _, err := s.col.Add(ctx, data)
	if err != nil {
		return "", err
	}
	return ref.ID, nil
}

func (s *FirestoreStore) Update(ctx context.Context, id string, fields Fields) error {
	updates := make([]firestore.Update, 0, len(fields))
	for _, k := range fields.Keys() {
		updates = append(updates, firestore.Update{Path: k, Value: firestoreValue(fields[k])})
	}
	if _, err := s.col.Doc(id).Update(ctx, updates); err != nil {
		if status.Code(err) == codes.NotFound {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func (s *FirestoreStore) Delete(ctx context.Context, id string) error {
	_, err := s.col.Doc(id).Delete(ctx)
	return err
}

func (s *FirestoreStore) ListByOwner(ctx context.Context, userID string) ([]*models.CVDocument, error) {
	snaps, err := s.ownerQuery(userID).Documents(ctx).GetAll()
	if err != nil {
		return nil, err
	}
	return decodeFirestoreCVs(snaps)
}

// Subscribe follows the owner query with Firestore realtime snapshots.
func (s *FirestoreStore) Subscribe(ctx context.Context, userID string) (<-chan []*models.CVDocument, error) {
	it := s.ownerQuery(userID).Snapshots(ctx)
	out := make(chan []*models.CVDocument, 1)

	go func() {
		defer close(out)
		defer it.Stop()
		for {
			qs, err := it.Next()
			if err != nil {
				if err != iterator.Done && ctx.Err() == nil {
					s.logger.Warnw("firestore: snapshot feed ended", "user_id", userID, "error", err)
				}
				return
			}
			snaps, err := qs.Documents.GetAll()
			if err != nil {
				s.logger.Warnw("firestore: read snapshot", "user_id", userID, "error", err)
				return
			}
			docs, err := decodeFirestoreCVs(snaps)
			if err != nil {
				s.logger.Warnw("firestore: decode snapshot", "user_id", userID, "error", err)
				return
			}
			select {
			case out <- docs:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}

func (s *FirestoreStore) ownerQuery(userID string) firestore.Query {
	return s.col.Where(models.FieldUserID, "==", userID)
}

func decodeFirestoreCV(snap *firestore.DocumentSnapshot) (*models.CVDocument, error) {
	var rec firestoreCV
	if err := snap.DataTo(&rec); err != nil {
		return nil, fmt.Errorf("firestore: decode %s: %w", snap.Ref.ID, err)
	}
	return rec.toModel(snap.Ref.ID), nil
}

func decodeFirestoreCVs(snaps []*firestore.DocumentSnapshot) ([]*models.CVDocument, error) {
	out := make([]*models.CVDocument, 0, len(snaps))
	for _, snap := range snaps {
		d, err := decodeFirestoreCV(snap)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	// Ordering in the query would need a composite index on userId and
	// createdAt, so results are sorted here.
	sortNewestFirst(out)
	return out, nil
}

func firestoreValue(v any) any {
	switch {
	case IsDeleteField(v):
		return firestore.Delete
	case IsServerTimestamp(v):
		return firestore.ServerTimestamp
	}
	return v
}
