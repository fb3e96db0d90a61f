package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/fieldops/tracker/internal/core/domain"
)

// MissionStepRepository persists mission steps. Find results carry the
// owning mission attached; deletions cascade to the step's reports.
type MissionStepRepository struct {
	db  *mongo.Database
	col *mongo.Collection
}

func NewMissionStepRepository(db *mongo.Database) *MissionStepRepository {
	return &MissionStepRepository{db: db, col: db.Collection(collectionSteps)}
}

type stepDoc struct {
	ID            int64      `bson:"_id"`
	Description   string     `bson:"description"`
	Status        string     `bson:"statut"`
	AssignedAgent string     `bson:"agent_assigne"`
	Location      string     `bson:"localisation,omitempty"`
	StartDate     *time.Time `bson:"date_debut"`
	EndDate       *time.Time `bson:"date_fin"`
	CreatedAt     time.Time  `bson:"date_creation"`
	UpdatedAt     time.Time  `bson:"date_modification"`
	MissionID     int64      `bson:"mission_id"`
}

func toStepDoc(s *domain.MissionStep) stepDoc {
	return stepDoc{
		ID:            s.ID,
		Description:   s.Description,
		Status:        string(s.Status),
		AssignedAgent: s.AssignedAgent,
		Location:      s.Location,
		StartDate:     s.StartDate,
		EndDate:       s.EndDate,
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
		MissionID:     s.MissionID,
	}
}

func (d stepDoc) toDomain() *domain.MissionStep {
	return &domain.MissionStep{
		ID:            d.ID,
		Description:   d.Description,
		Status:        domain.Status(d.Status),
		AssignedAgent: d.AssignedAgent,
		Location:      d.Location,
		StartDate:     d.StartDate,
		EndDate:       d.EndDate,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
		MissionID:     d.MissionID,
	}
}

func (r *MissionStepRepository) Create(ctx context.Context, s *domain.MissionStep) (*domain.MissionStep, error) {
	id, err := nextSequence(ctx, r.db, collectionSteps)
	if err != nil {
		return nil, err
	}

	created := *s
	created.ID = id
	if _, err := r.col.InsertOne(ctx, toStepDoc(&created)); err != nil {
		return nil, fmt.Errorf("insert mission step: %w", err)
	}
	return &created, nil
}

func (r *MissionStepRepository) FindAll(ctx context.Context) ([]*domain.MissionStep, error) {
	cursor, err := r.col.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("find mission steps: %w", err)
	}
	defer cursor.Close(ctx)

	steps := make([]*domain.MissionStep, 0)
	for cursor.Next(ctx) {
		var doc stepDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode mission step: %w", err)
		}
		steps = append(steps, doc.toDomain())
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}

	if err := r.attachMissions(ctx, steps); err != nil {
		return nil, err
	}
	return steps, nil
}

func (r *MissionStepRepository) FindByID(ctx context.Context, id int64) (*domain.MissionStep, error) {
	var doc stepDoc
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.NotFound("MissionStep", id)
		}
		return nil, fmt.Errorf("find mission step: %w", err)
	}

	step := doc.toDomain()
	if err := r.attachMissions(ctx, []*domain.MissionStep{step}); err != nil {
		return nil, err
	}
	return step, nil
}

func (r *MissionStepRepository) Update(ctx context.Context, s *domain.MissionStep) (*domain.MissionStep, error) {
	res, err := r.col.ReplaceOne(ctx, bson.M{"_id": s.ID}, toStepDoc(s))
	if err != nil {
		return nil, fmt.Errorf("update mission step: %w", err)
	}
	if res.MatchedCount == 0 {
		return nil, domain.NotFound("MissionStep", s.ID)
	}
	clone := *s
	return &clone, nil
}

func (r *MissionStepRepository) DeleteByID(ctx context.Context, id int64) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete mission step: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.NotFound("MissionStep", id)
	}

	if _, err := r.db.Collection(collectionReports).DeleteMany(ctx, bson.M{"mission_step_id": id}); err != nil {
		return fmt.Errorf("cascade reports: %w", err)
	}
	return nil
}

func (r *MissionStepRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.Collection(collectionReports).DeleteMany(ctx, bson.M{}); err != nil {
		return fmt.Errorf("clear reports: %w", err)
	}
	if _, err := r.col.DeleteMany(ctx, bson.M{}); err != nil {
		return fmt.Errorf("clear mission steps: %w", err)
	}
	return nil
}

func (r *MissionStepRepository) Count(ctx context.Context) (int64, error) {
	return r.col.CountDocuments(ctx, bson.M{})
}

// attachMissions resolves the owning mission of each step in one query.
// A step whose mission vanished keeps a nil Mission rather than failing
// the whole read.
func (r *MissionStepRepository) attachMissions(ctx context.Context, steps []*domain.MissionStep) error {
	if len(steps) == 0 {
		return nil
	}

	ids := bson.A{}
	seen := make(map[int64]struct{}, len(steps))
	for _, s := range steps {
		if _, ok := seen[s.MissionID]; !ok {
			seen[s.MissionID] = struct{}{}
			ids = append(ids, s.MissionID)
		}
	}

	cursor, err := r.db.Collection(collectionMissions).Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return fmt.Errorf("attach missions: %w", err)
	}
	defer cursor.Close(ctx)

	missions := make(map[int64]*domain.Mission, len(ids))
	for cursor.Next(ctx) {
		var doc missionDoc
		if err := cursor.Decode(&doc); err != nil {
			return fmt.Errorf("attach missions: %w", err)
		}
		missions[doc.ID] = doc.toDomain()
	}
	if err := cursor.Err(); err != nil {
		return err
	}

	for _, s := range steps {
		s.Mission = missions[s.MissionID]
	}
	return nil
}

// EnsureIndexes creates the index backing the cascade and attach queries.
func (r *MissionStepRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "mission_id", Value: 1}},
	})
	return err
}
