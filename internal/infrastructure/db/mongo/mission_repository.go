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

// MissionRepository persists missions. Deletions cascade to the
// mission's steps and to the reports of those steps; MongoDB has no
// foreign-key cascade, so the fan-out is issued explicitly here.
type MissionRepository struct {
	db  *mongo.Database
	col *mongo.Collection
}

func NewMissionRepository(db *mongo.Database) *MissionRepository {
	return &MissionRepository{db: db, col: db.Collection(collectionMissions)}
}

type missionDoc struct {
	ID            int64      `bson:"_id"`
	Title         string     `bson:"titre"`
	Status        string     `bson:"statut"`
	ReferentAgent string     `bson:"agent_referent"`
	StartDate     *time.Time `bson:"date_debut"`
	EndDate       *time.Time `bson:"date_fin"`
	CreatedAt     time.Time  `bson:"date_creation"`
	UpdatedAt     time.Time  `bson:"date_modification"`
}

func toMissionDoc(m *domain.Mission) missionDoc {
	return missionDoc{
		ID:            m.ID,
		Title:         m.Title,
		Status:        string(m.Status),
		ReferentAgent: m.ReferentAgent,
		StartDate:     m.StartDate,
		EndDate:       m.EndDate,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

func (d missionDoc) toDomain() *domain.Mission {
	return &domain.Mission{
		ID:            d.ID,
		Title:         d.Title,
		Status:        domain.Status(d.Status),
		ReferentAgent: d.ReferentAgent,
		StartDate:     d.StartDate,
		EndDate:       d.EndDate,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}

func (r *MissionRepository) Create(ctx context.Context, m *domain.Mission) (*domain.Mission, error) {
	id, err := nextSequence(ctx, r.db, collectionMissions)
	if err != nil {
		return nil, err
	}

	created := *m
	created.ID = id
	if _, err := r.col.InsertOne(ctx, toMissionDoc(&created)); err != nil {
		return nil, fmt.Errorf("insert mission: %w", err)
	}
	return &created, nil
}

func (r *MissionRepository) FindAll(ctx context.Context) ([]*domain.Mission, error) {
	cursor, err := r.col.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("find missions: %w", err)
	}
	defer cursor.Close(ctx)

	missions := make([]*domain.Mission, 0)
	for cursor.Next(ctx) {
		var doc missionDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode mission: %w", err)
		}
		missions = append(missions, doc.toDomain())
	}
	return missions, cursor.Err()
}

func (r *MissionRepository) FindByID(ctx context.Context, id int64) (*domain.Mission, error) {
	var doc missionDoc
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.NotFound("Mission", id)
		}
		return nil, fmt.Errorf("find mission: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *MissionRepository) Update(ctx context.Context, m *domain.Mission) (*domain.Mission, error) {
	res, err := r.col.ReplaceOne(ctx, bson.M{"_id": m.ID}, toMissionDoc(m))
	if err != nil {
		return nil, fmt.Errorf("update mission: %w", err)
	}
	if res.MatchedCount == 0 {
		return nil, domain.NotFound("Mission", m.ID)
	}
	clone := *m
	return &clone, nil
}

func (r *MissionRepository) DeleteByID(ctx context.Context, id int64) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete mission: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.NotFound("Mission", id)
	}
	return r.cascadeSteps(ctx, bson.M{"mission_id": id})
}

func (r *MissionRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.Collection(collectionReports).DeleteMany(ctx, bson.M{}); err != nil {
		return fmt.Errorf("clear reports: %w", err)
	}
	if _, err := r.db.Collection(collectionSteps).DeleteMany(ctx, bson.M{}); err != nil {
		return fmt.Errorf("clear steps: %w", err)
	}
	if _, err := r.col.DeleteMany(ctx, bson.M{}); err != nil {
		return fmt.Errorf("clear missions: %w", err)
	}
	return nil
}

func (r *MissionRepository) Count(ctx context.Context) (int64, error) {
	return r.col.CountDocuments(ctx, bson.M{})
}

// DeleteTerminalEndedBefore removes ANNULE/TERMINE missions whose end
// date is set and strictly before cutoff, cascading to children, and
// returns how many missions were removed.
func (r *MissionRepository) DeleteTerminalEndedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	filter := bson.M{
		"statut":   bson.M{"$in": bson.A{string(domain.StatusAnnule), string(domain.StatusTermine)}},
		"date_fin": bson.M{"$ne": nil, "$lt": cutoff},
	}

	ids, err := r.collectIDs(ctx, r.col, filter)
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}

	res, err := r.col.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return 0, fmt.Errorf("cleanup missions: %w", err)
	}
	if err := r.cascadeSteps(ctx, bson.M{"mission_id": bson.M{"$in": ids}}); err != nil {
		return res.DeletedCount, err
	}
	return res.DeletedCount, nil
}

// FindOverdue returns non-terminal missions whose end date has passed now.
func (r *MissionRepository) FindOverdue(ctx context.Context, now time.Time) ([]*domain.Mission, error) {
	filter := bson.M{
		"statut":   bson.M{"$nin": bson.A{string(domain.StatusAnnule), string(domain.StatusTermine)}},
		"date_fin": bson.M{"$ne": nil, "$lt": now},
	}

	cursor, err := r.col.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("find overdue missions: %w", err)
	}
	defer cursor.Close(ctx)

	missions := make([]*domain.Mission, 0)
	for cursor.Next(ctx) {
		var doc missionDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode mission: %w", err)
		}
		missions = append(missions, doc.toDomain())
	}
	return missions, cursor.Err()
}

// cascadeSteps deletes the steps matching filter along with their reports.
func (r *MissionRepository) cascadeSteps(ctx context.Context, stepFilter bson.M) error {
	steps := r.db.Collection(collectionSteps)
	stepIDs, err := r.collectIDs(ctx, steps, stepFilter)
	if err != nil {
		return err
	}
	if len(stepIDs) == 0 {
		return nil
	}

	if _, err := r.db.Collection(collectionReports).DeleteMany(ctx, bson.M{"mission_step_id": bson.M{"$in": stepIDs}}); err != nil {
		return fmt.Errorf("cascade reports: %w", err)
	}
	if _, err := steps.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": stepIDs}}); err != nil {
		return fmt.Errorf("cascade steps: %w", err)
	}
	return nil
}

func (r *MissionRepository) collectIDs(ctx context.Context, col *mongo.Collection, filter bson.M) (bson.A, error) {
	cursor, err := col.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("collect ids: %w", err)
	}
	defer cursor.Close(ctx)

	ids := bson.A{}
	for cursor.Next(ctx) {
		var doc struct {
			ID int64 `bson:"_id"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("collect ids: %w", err)
		}
		ids = append(ids, doc.ID)
	}
	return ids, cursor.Err()
}

// EnsureIndexes creates the indexes the mission queries rely on.
func (r *MissionRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "statut", Value: 1}, {Key: "date_fin", Value: 1}}},
	}
	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
