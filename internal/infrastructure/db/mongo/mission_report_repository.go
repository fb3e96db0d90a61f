package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/fieldops/tracker/internal/core/domain"
	"github.com/fieldops/tracker/internal/pkg/fieldcrypt"
)

// MissionReportRepository persists mission reports. The details field
// crosses this boundary encrypted: plaintext in, AES-GCM sealed in the
// collection, plaintext out. Find results carry the owning step
// attached.
type MissionReportRepository struct {
	db    *mongo.Database
	col   *mongo.Collection
	codec *fieldcrypt.Codec
}

func NewMissionReportRepository(db *mongo.Database, codec *fieldcrypt.Codec) *MissionReportRepository {
	return &MissionReportRepository{db: db, col: db.Collection(collectionReports), codec: codec}
}

type reportDoc struct {
	ID            int64     `bson:"_id"`
	Details       string    `bson:"details"`
	AuthorAgent   string    `bson:"agent_redacteur"`
	CreatedAt     time.Time `bson:"date_creation"`
	UpdatedAt     time.Time `bson:"date_modification"`
	MissionStepID int64     `bson:"mission_step_id"`
}

func (r *MissionReportRepository) toDoc(rep *domain.MissionReport) (reportDoc, error) {
	sealed, err := r.codec.Encrypt(rep.Details)
	if err != nil {
		return reportDoc{}, err
	}
	return reportDoc{
		ID:            rep.ID,
		Details:       sealed,
		AuthorAgent:   rep.AuthorAgent,
		CreatedAt:     rep.CreatedAt,
		UpdatedAt:     rep.UpdatedAt,
		MissionStepID: rep.MissionStepID,
	}, nil
}

func (r *MissionReportRepository) toDomain(d reportDoc) (*domain.MissionReport, error) {
	plain, err := r.codec.Decrypt(d.Details)
	if err != nil {
		return nil, err
	}
	return &domain.MissionReport{
		ID:            d.ID,
		Details:       plain,
		AuthorAgent:   d.AuthorAgent,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
		MissionStepID: d.MissionStepID,
	}, nil
}

func (r *MissionReportRepository) Create(ctx context.Context, rep *domain.MissionReport) (*domain.MissionReport, error) {
	id, err := nextSequence(ctx, r.db, collectionReports)
	if err != nil {
		return nil, err
	}

	created := *rep
	created.ID = id
	doc, err := r.toDoc(&created)
	if err != nil {
		return nil, err
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("insert mission report: %w", err)
	}
	return &created, nil
}

func (r *MissionReportRepository) FindAll(ctx context.Context) ([]*domain.MissionReport, error) {
	cursor, err := r.col.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("find mission reports: %w", err)
	}
	defer cursor.Close(ctx)

	reports := make([]*domain.MissionReport, 0)
	for cursor.Next(ctx) {
		var doc reportDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode mission report: %w", err)
		}
		rep, err := r.toDomain(doc)
		if err != nil {
			return nil, err
		}
		reports = append(reports, rep)
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}

	if err := r.attachSteps(ctx, reports); err != nil {
		return nil, err
	}
	return reports, nil
}

func (r *MissionReportRepository) FindByID(ctx context.Context, id int64) (*domain.MissionReport, error) {
	var doc reportDoc
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.NotFound("MissionReport", id)
		}
		return nil, fmt.Errorf("find mission report: %w", err)
	}

	rep, err := r.toDomain(doc)
	if err != nil {
		return nil, err
	}
	if err := r.attachSteps(ctx, []*domain.MissionReport{rep}); err != nil {
		return nil, err
	}
	return rep, nil
}

func (r *MissionReportRepository) Update(ctx context.Context, rep *domain.MissionReport) (*domain.MissionReport, error) {
	doc, err := r.toDoc(rep)
	if err != nil {
		return nil, err
	}

	res, err := r.col.ReplaceOne(ctx, bson.M{"_id": rep.ID}, doc)
	if err != nil {
		return nil, fmt.Errorf("update mission report: %w", err)
	}
	if res.MatchedCount == 0 {
		return nil, domain.NotFound("MissionReport", rep.ID)
	}
	clone := *rep
	return &clone, nil
}

func (r *MissionReportRepository) DeleteByID(ctx context.Context, id int64) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete mission report: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.NotFound("MissionReport", id)
	}
	return nil
}

func (r *MissionReportRepository) DeleteAll(ctx context.Context) error {
	_, err := r.col.DeleteMany(ctx, bson.M{})
	return err
}

func (r *MissionReportRepository) Count(ctx context.Context) (int64, error) {
	return r.col.CountDocuments(ctx, bson.M{})
}

// attachSteps resolves the owning step of each report in one query.
func (r *MissionReportRepository) attachSteps(ctx context.Context, reports []*domain.MissionReport) error {
	if len(reports) == 0 {
		return nil
	}

	ids := bson.A{}
	seen := make(map[int64]struct{}, len(reports))
	for _, rep := range reports {
		if _, ok := seen[rep.MissionStepID]; !ok {
			seen[rep.MissionStepID] = struct{}{}
			ids = append(ids, rep.MissionStepID)
		}
	}

	cursor, err := r.db.Collection(collectionSteps).Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return fmt.Errorf("attach steps: %w", err)
	}
	defer cursor.Close(ctx)

	steps := make(map[int64]*domain.MissionStep, len(ids))
	for cursor.Next(ctx) {
		var doc stepDoc
		if err := cursor.Decode(&doc); err != nil {
			return fmt.Errorf("attach steps: %w", err)
		}
		steps[doc.ID] = doc.toDomain()
	}
	if err := cursor.Err(); err != nil {
		return err
	}

	for _, rep := range reports {
		rep.MissionStep = steps[rep.MissionStepID]
	}
	return nil
}

// EnsureIndexes creates the index backing the cascade and attach queries.
func (r *MissionReportRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "mission_step_id", Value: 1}},
	})
	return err
}
