package aggregates

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	types "github.com/yungbote/neurobridge-assessment/internal/domain/assessment"
	"github.com/yungbote/neurobridge-assessment/internal/platform/logger"
)

const MongoSessionCollection = "assessment_sessions"

// MongoSessionStore keeps each session as one document keyed by _id, guarded by its version field.
type MongoSessionStore struct {
	coll  *mongo.Collection
	log   *logger.Logger
	hooks Hooks
}

func NewMongoSessionStore(db *mongo.Database, baseLog *logger.Logger, hooks Hooks) *MongoSessionStore {
	if hooks == nil {
		hooks = noopHooks{}
	}
	return &MongoSessionStore{
		coll:  db.Collection(MongoSessionCollection),
		log:   baseLog.With("repo", "MongoSessionStore"),
		hooks: hooks,
	}
}

func (s *MongoSessionStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "student_id", Value: 1}, {Key: "start_time", Value: -1}},
		Options: options.Index().SetName("idx_student_start"),
	})
	return MapError("assessment.session.mongo.indexes", err)
}

func (s *MongoSessionStore) Create(ctx context.Context, sess *types.Session) error {
	const op = "assessment.session.create"
	start := time.Now()
	if sess == nil || sess.ID == "" {
		return observe(s.hooks, op, start, ValidationError("session id is required"))
	}
	_, err := s.coll.InsertOne(ctx, sess)
	return observe(s.hooks, op, start, err)
}

func (s *MongoSessionStore) Load(ctx context.Context, id string) (*types.Session, error) {
	const op = "assessment.session.load"
	start := time.Now()
	var out types.Session
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, observe(s.hooks, op, start, types.SessionNotFound(op, id))
	}
	if err != nil {
		return nil, observe(s.hooks, op, start, err)
	}
	normalizeDecoded(&out)
	return &out, observe(s.hooks, op, start, nil)
}

func (s *MongoSessionStore) Save(ctx context.Context, sess *types.Session, expectedVersion int) error {
	const op = "assessment.session.save"
	start := time.Now()
	if sess == nil || sess.ID == "" {
		return observe(s.hooks, op, start, ValidationError("session id is required"))
	}
	doc := sess.Clone()
	doc.Version = expectedVersion + 1
	res, err := s.coll.ReplaceOne(ctx, bson.M{"_id": sess.ID, "version": expectedVersion}, doc)
	if err != nil {
		return observe(s.hooks, op, start, err)
	}
	if res.MatchedCount == 0 {
		n, err := s.coll.CountDocuments(ctx, bson.M{"_id": sess.ID})
		if err != nil {
			return observe(s.hooks, op, start, err)
		}
		if n == 0 {
			return observe(s.hooks, op, start, types.SessionNotFound(op, sess.ID))
		}
		return observe(s.hooks, op, start, RequireCASSuccess(false, "session version changed since load"))
	}
	sess.Version = doc.Version
	return observe(s.hooks, op, start, nil)
}

func (s *MongoSessionStore) LatestForStudent(ctx context.Context, studentID string) (*types.Session, error) {
	const op = "assessment.session.latest"
	start := time.Now()
	var out types.Session
	opts := options.FindOne().SetSort(bson.D{{Key: "start_time", Value: -1}, {Key: "_id", Value: -1}})
	if err := s.coll.FindOne(ctx, bson.M{"student_id": studentID}, opts).Decode(&out); err != nil {
		return nil, observe(s.hooks, op, start, err)
	}
	normalizeDecoded(&out)
	return &out, observe(s.hooks, op, start, nil)
}

func (s *MongoSessionStore) ListLatestPerStudent(ctx context.Context) ([]*types.Session, error) {
	const op = "assessment.session.list_latest"
	start := time.Now()
	pipeline := mongo.Pipeline{
		{{Key: "$sort", Value: bson.D{{Key: "start_time", Value: -1}, {Key: "_id", Value: -1}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$student_id"},
			{Key: "doc", Value: bson.D{{Key: "$first", Value: "$$ROOT"}}},
		}}},
		{{Key: "$replaceRoot", Value: bson.D{{Key: "newRoot", Value: "$doc"}}}},
		{{Key: "$sort", Value: bson.D{{Key: "student_id", Value: 1}}}},
	}
	cur, err := s.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, observe(s.hooks, op, start, err)
	}
	defer cur.Close(ctx)
	var docs []types.Session
	if err := cur.All(ctx, &docs); err != nil {
		return nil, observe(s.hooks, op, start, err)
	}
	out := make([]*types.Session, 0, len(docs))
	for i := range docs {
		normalizeDecoded(&docs[i])
		out = append(out, &docs[i])
	}
	return out, observe(s.hooks, op, start, nil)
}

// normalizeDecoded restores empty collections and UTC times that BSON round trips drop.
func normalizeDecoded(s *types.Session) {
	if s.Mastery.ConceptMastery == nil {
		s.Mastery.ConceptMastery = map[string]float64{}
	}
	if s.History == nil {
		s.History = []types.StudentResponse{}
	}
	if s.SeenQuestionIDs == nil {
		s.SeenQuestionIDs = []string{}
	}
	s.StartTime = s.StartTime.UTC()
	if s.EndTime != nil {
		t := s.EndTime.UTC()
		s.EndTime = &t
	}
}
