package store

import (
	"context"
	"errors"
	"time"

	"github.com/farellandr/eventshots/internal/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gorm.io/datatypes"
)

const (
	eventsCollection = "events"
	photosCollection = "photos"
	usersCollection  = "users"
)

// MongoStore keeps events, photos and users as documents keyed by the
// string form of their UUID.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

type eventDoc struct {
	ID            string    `bson:"_id"`
	Name          string    `bson:"name"`
	Code          string    `bson:"code"`
	CreatedBy     string    `bson:"created_by,omitempty"`
	AllowedEmails []string  `bson:"allowed_emails"`
	CreatedAt     time.Time `bson:"created_at"`
}

type photoDoc struct {
	ID          string    `bson:"_id"`
	EventID     string    `bson:"event_id"`
	ImageURL    string    `bson:"image_url"`
	SourceType  string    `bson:"source_type"`
	StoragePath string    `bson:"storage_path,omitempty"`
	CreatedAt   time.Time `bson:"created_at"`
}

type userDoc struct {
	ID        string    `bson:"_id"`
	Email     string    `bson:"email"`
	Password  string    `bson:"password"`
	FullName  string    `bson:"full_name,omitempty"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func NewMongoStore(client *mongo.Client, dbName string) *MongoStore {
	return &MongoStore{client: client, db: client.Database(dbName)}
}

// EnsureIndexes creates the unique and ordering indexes the services rely on.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		eventsCollection: {
			{Keys: bson.D{{Key: "code", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "created_at", Value: -1}}},
		},
		photosCollection: {
			{Keys: bson.D{{Key: "event_id", Value: 1}, {Key: "created_at", Value: -1}}},
		},
		usersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
	}
	for name, idx := range indexes {
		if _, err := s.db.Collection(name).Indexes().CreateMany(ctx, idx); err != nil {
			return err
		}
	}
	return nil
}

func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func (s *MongoStore) CreateEvent(ctx context.Context, event *models.Event) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.AllowedEmails == nil {
		event.AllowedEmails = datatypes.JSONSlice[string]{}
	}
	event.CreatedAt = time.Now().UTC()

	doc := eventDoc{
		ID:            event.ID.String(),
		Name:          event.Name,
		Code:          event.Code,
		AllowedEmails: []string(event.AllowedEmails),
		CreatedAt:     event.CreatedAt,
	}
	if event.CreatedBy != nil {
		doc.CreatedBy = event.CreatedBy.String()
	}
	_, err := s.db.Collection(eventsCollection).InsertOne(ctx, doc)
	return translateMongo(err)
}

func (s *MongoStore) ListEvents(ctx context.Context) ([]models.Event, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := s.db.Collection(eventsCollection).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	var docs []eventDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	events := make([]models.Event, 0, len(docs))
	for _, doc := range docs {
		events = append(events, doc.toModel())
	}
	return events, nil
}

func (s *MongoStore) GetEvent(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	return s.findEvent(ctx, bson.M{"_id": id.String()})
}

func (s *MongoStore) FindEventByCode(ctx context.Context, code string) (*models.Event, error) {
	return s.findEvent(ctx, bson.M{"code": code})
}

func (s *MongoStore) findEvent(ctx context.Context, filter bson.M) (*models.Event, error) {
	var doc eventDoc
	if err := s.db.Collection(eventsCollection).FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, translateMongo(err)
	}
	event := doc.toModel()
	return &event, nil
}

func (s *MongoStore) CreatePhoto(ctx context.Context, photo *models.Photo) error {
	if photo.ID == uuid.Nil {
		photo.ID = uuid.New()
	}
	photo.CreatedAt = time.Now().UTC()

	doc := photoDoc{
		ID:          photo.ID.String(),
		EventID:     photo.EventID.String(),
		ImageURL:    photo.ImageURL,
		SourceType:  string(photo.SourceType),
		StoragePath: photo.StoragePath,
		CreatedAt:   photo.CreatedAt,
	}
	_, err := s.db.Collection(photosCollection).InsertOne(ctx, doc)
	return translateMongo(err)
}

func (s *MongoStore) ListPhotos(ctx context.Context, eventID uuid.UUID) ([]models.Photo, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := s.db.Collection(photosCollection).Find(ctx, bson.M{"event_id": eventID.String()}, opts)
	if err != nil {
		return nil, err
	}
	var docs []photoDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	photos := make([]models.Photo, 0, len(docs))
	for _, doc := range docs {
		photos = append(photos, doc.toModel())
	}
	return photos, nil
}

func (s *MongoStore) GetPhoto(ctx context.Context, id uuid.UUID) (*models.Photo, error) {
	var doc photoDoc
	err := s.db.Collection(photosCollection).FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc)
	if err != nil {
		return nil, translateMongo(err)
	}
	photo := doc.toModel()
	return &photo, nil
}

func (s *MongoStore) DeletePhoto(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.Collection(photosCollection).DeleteOne(ctx, bson.M{"_id": id.String()})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) CreateUser(ctx context.Context, user *models.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	now := time.Now().UTC()
	user.CreatedAt, user.UpdatedAt = now, now

	doc := userDoc{
		ID:        user.ID.String(),
		Email:     user.Email,
		Password:  user.Password,
		FullName:  user.FullName,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err := s.db.Collection(usersCollection).InsertOne(ctx, doc)
	return translateMongo(err)
}

func (s *MongoStore) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findUser(ctx, bson.M{"email": email})
}

func (s *MongoStore) FindUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.findUser(ctx, bson.M{"_id": id.String()})
}

func (s *MongoStore) findUser(ctx context.Context, filter bson.M) (*models.User, error) {
	var doc userDoc
	if err := s.db.Collection(usersCollection).FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, translateMongo(err)
	}
	return &models.User{
		ID:        uuid.MustParse(doc.ID),
		Email:     doc.Email,
		Password:  doc.Password,
		FullName:  doc.FullName,
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}, nil
}

func (doc eventDoc) toModel() models.Event {
	event := models.Event{
		ID:            uuid.MustParse(doc.ID),
		Name:          doc.Name,
		Code:          doc.Code,
		AllowedEmails: datatypes.JSONSlice[string](doc.AllowedEmails),
		CreatedAt:     doc.CreatedAt,
	}
	if event.AllowedEmails == nil {
		event.AllowedEmails = datatypes.JSONSlice[string]{}
	}
	if createdBy, err := uuid.Parse(doc.CreatedBy); err == nil {
		event.CreatedBy = &createdBy
	}
	return event
}

func (doc photoDoc) toModel() models.Photo {
	return models.Photo{
		ID:          uuid.MustParse(doc.ID),
		EventID:     uuid.MustParse(doc.EventID),
		ImageURL:    doc.ImageURL,
		SourceType:  models.SourceType(doc.SourceType),
		StoragePath: doc.StoragePath,
		CreatedAt:   doc.CreatedAt,
	}
}

func translateMongo(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	if mongo.IsDuplicateKeyError(err) {
		return errors.Join(ErrDuplicate, err)
	}
	return err
}
