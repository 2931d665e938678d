package storage

import (
	"context"
	"crypto/tls"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/cvbuilder/backend/internal/models"
)

// MongoStore keeps CVs in a MongoDB collection. Subscribe relies on change
// streams, so the server must run as a replica set.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
	cvsCol *mongo.Collection
	logger *zap.SugaredLogger
}

type mongoCVDoc struct {
	ID            string           `bson:"_id"`
	ProjectName   string           `bson:"projectName"`
	Name          string           `bson:"name"`
	JobTitle      string           `bson:"jobTitle"`
	PhoneNumber   interface{}      `bson:"phoneNumber"`
	Location      string           `bson:"location"`
	LinkedinLink  string           `bson:"linkedinLink"`
	About         string           `bson:"about"`
	Education     string           `bson:"education"`
	Email         string           `bson:"email"`
	GithubLink    string           `bson:"githubLink,omitempty"`
	WebsiteLink   string           `bson:"websiteLink,omitempty"`
	BehanceLink   string           `bson:"behanceLink,omitempty"`
	Skills        []models.Skill   `bson:"skills"`
	Jobs          []models.Job     `bson:"jobs"`
	Projects      []models.Project `bson:"projects"`
	TemplateIndex interface{}      `bson:"templateIndex"`
	UserID        string           `bson:"userId"`
	ImgSrc        string           `bson:"imgSrc,omitempty"`
	ImgID         string           `bson:"imgId,omitempty"`
	CreatedAt     time.Time        `bson:"createdAt"`
}

func cvDocToModel(d mongoCVDoc) *models.CVDocument {
	return &models.CVDocument{
		CVForm: models.CVForm{
			ProjectName:  d.ProjectName,
			Name:         d.Name,
			JobTitle:     d.JobTitle,
			PhoneNumber:  models.LooseString(d.PhoneNumber),
			Location:     d.Location,
			LinkedinLink: d.LinkedinLink,
			About:        d.About,
			Education:    d.Education,
			Email:        d.Email,
			GithubLink:   d.GithubLink,
			WebsiteLink:  d.WebsiteLink,
			BehanceLink:  d.BehanceLink,
			Skills:       d.Skills,
			Jobs:         d.Jobs,
			Projects:     d.Projects,
		},
		ID:            d.ID,
		UserID:        d.UserID,
		TemplateIndex: models.ParseTemplateIndex(d.TemplateIndex),
		ImgSrc:        d.ImgSrc,
		ImgID:         d.ImgID,
		CreatedAt:     d.CreatedAt,
	}
}

func NewMongoStore(ctx context.Context, mongoURI, dbName string, logger *zap.SugaredLogger) (*MongoStore, error) {
	// Atlas rejects some TLS negotiations unless pinned to 1.2.
	tlsCfg := &tls.Config{
		MinVersion: tls.VersionTLS12,
		MaxVersion: tls.VersionTLS12,
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI).SetTLSConfig(tlsCfg))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}

	db := client.Database(dbName)
	col := db.Collection(CVCollection)

	// Best-effort indexes.
	_, _ = col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: models.FieldUserID, Value: 1}}},
		{Keys: bson.D{{Key: models.FieldCreatedAt, Value: -1}}},
	})

	logger.Infow("MongoDB connected", "db", dbName)
	return &MongoStore{
		client: client,
		db:     db,
		cvsCol: col,
		logger: logger,
	}, nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *MongoStore) Get(ctx context.Context, id string) (*models.CVDocument, error) {
	var d mongoCVDoc
	if err := s.cvsCol.FindOne(ctx, bson.M{"_id": id}).Decode(&d); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return cvDocToModel(d), nil
}

func (s *MongoStore) Insert(ctx context.Context, fields Fields) (string, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	doc := bson.M{"_id": id}
	for _, k := range fields.Keys() {
		v := fields[k]
		switch {
		case IsDeleteField(v):
			// nothing to remove on a new document
		case IsServerTimestamp(v):
			doc[k] = now
		default:
			doc[k] = v
		}
	}

	if _, err := s.cvsCol.InsertOne(ctx, doc); err != nil {
		return "", err
	}
	return id, nil
}

func (s *MongoStore) Update(ctx context.Context, id string, fields Fields) error {
	set := bson.M{}
	unset := bson.M{}
	stamp := bson.M{}
	for _, k := range fields.Keys() {
		v := fields[k]
		switch {
		case IsDeleteField(v):
			unset[k] = ""
		case IsServerTimestamp(v):
			stamp[k] = true
		default:
			set[k] = v
		}
	}

	// MongoDB rejects empty operator documents.
	update := bson.M{}
	if len(set) > 0 {
		update["$set"] = set
	}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	if len(stamp) > 0 {
		update["$currentDate"] = stamp
	}
	if len(update) == 0 {
		return nil
	}

	res, err := s.cvsCol.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) Delete(ctx context.Context, id string) error {
	res, err := s.cvsCol.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) ListByOwner(ctx context.Context, userID string) ([]*models.CVDocument, error) {
	cur, err := s.cvsCol.Find(
		ctx,
		bson.M{models.FieldUserID: userID},
		options.Find().SetSort(bson.D{{Key: models.FieldCreatedAt, Value: -1}}),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	results := make([]*models.CVDocument, 0)
	for cur.Next(ctx) {
		var d mongoCVDoc
		if err := cur.Decode(&d); err != nil {
			return nil, err
		}
		results = append(results, cvDocToModel(d))
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// Subscribe re-reads the owner's list whenever the change stream reports a
// write that could touch it. Deletes carry no document, so every delete
// triggers a re-read.
func (s *MongoStore) Subscribe(ctx context.Context, userID string) (<-chan []*models.CVDocument, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"$or": bson.A{
			bson.M{"fullDocument." + models.FieldUserID: userID},
			bson.M{"operationType": "delete"},
		}}}},
	}
	cs, err := s.cvsCol.Watch(ctx, pipeline, options.ChangeStream().SetFullDocument(options.UpdateLookup))
	if err != nil {
		return nil, err
	}

	initial, err := s.ListByOwner(ctx, userID)
	if err != nil {
		cs.Close(ctx)
		return nil, err
	}

	out := make(chan []*models.CVDocument, 1)
	out <- initial

	go func() {
		defer close(out)
		defer cs.Close(context.Background())
		for cs.Next(ctx) {
			docs, err := s.ListByOwner(ctx, userID)
			if err != nil {
				s.logger.Warnw("mongo: re-read after change", "user_id", userID, "error", err)
				return
			}
			select {
			case out <- docs:
			case <-ctx.Done():
				return
			}
		}
		if err := cs.Err(); err != nil && ctx.Err() == nil {
			s.logger.Warnw("mongo: change stream ended", "user_id", userID, "error", err)
		}
	}()

	return out, nil
}
