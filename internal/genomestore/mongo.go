package genomestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/starford/subtaste/internal/apperr"
	"github.com/starford/subtaste/internal/archetype"
	"github.com/starford/subtaste/internal/genome"
)

// mongoDoc keeps the genome as its JSON text so signal payloads keep their
// wire shape; the indexed fields are copied out for queries.
type mongoDoc struct {
	OwnerID   string    `bson:"_id"`
	GenomeID  string    `bson:"genome_id"`
	Version   int       `bson:"version"`
	Primary   string    `bson:"primary"`
	UpdatedAt time.Time `bson:"updated_at"`
	Body      string    `bson:"body,omitempty"`
}

// Mongo stores one document per owner.
type Mongo struct {
	client     *mongo.Client
	collection *mongo.Collection
}

var _ Store = (*Mongo)(nil)

// OpenMongo connects, pings and ensures indexes.
func OpenMongo(ctx context.Context, cfg MongoConfig) (*Mongo, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("genomestore: mongo connect: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("genomestore: mongo ping: %w", err)
	}

	db, coll := cfg.Database, cfg.Collection
	if db == "" {
		db = "subtaste"
	}
	if coll == "" {
		coll = "genomes"
	}
	m := &Mongo{client: client, collection: client.Database(db).Collection(coll)}
	_, err = m.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "updated_at", Value: -1}},
	})
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("genomestore: mongo index: %w", err)
	}
	return m, nil
}

func toDoc(g genome.Genome) (mongoDoc, error) {
	body, err := genome.Serialize(g)
	if err != nil {
		return mongoDoc{}, err
	}
	return mongoDoc{
		OwnerID:   g.OwnerID,
		GenomeID:  g.ID,
		Version:   g.Version,
		Primary:   string(g.Archetype.Primary.ID),
		UpdatedAt: g.UpdatedAt.UTC(),
		Body:      string(body),
	}, nil
}

func (m *Mongo) Get(ctx context.Context, ownerID string) (genome.Genome, error) {
	var doc mongoDoc
	err := m.collection.FindOne(ctx, bson.M{"_id": ownerID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return genome.Genome{}, apperr.ErrNotFound
	}
	if err != nil {
		return genome.Genome{}, fmt.Errorf("genomestore: mongo get: %w", err)
	}
	return genome.Deserialize([]byte(doc.Body))
}

func (m *Mongo) Create(ctx context.Context, g genome.Genome) error {
	doc, err := toDoc(g)
	if err != nil {
		return err
	}
	_, err = m.collection.InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return apperr.ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("genomestore: mongo create: %w", err)
	}
	return nil
}

// Update filters on the expected version so a concurrent writer matches
// nothing.
func (m *Mongo) Update(ctx context.Context, g genome.Genome, expectedVersion int) error {
	doc, err := toDoc(g)
	if err != nil {
		return err
	}
	res, err := m.collection.ReplaceOne(ctx, bson.M{"_id": g.OwnerID, "version": expectedVersion}, doc)
	if err != nil {
		return fmt.Errorf("genomestore: mongo update: %w", err)
	}
	if res.MatchedCount > 0 {
		return nil
	}
	n, err := m.collection.CountDocuments(ctx, bson.M{"_id": g.OwnerID})
	if err != nil {
		return fmt.Errorf("genomestore: mongo update lookup: %w", err)
	}
	if n == 0 {
		return apperr.ErrNotFound
	}
	return apperr.ErrConflict
}

func (m *Mongo) Delete(ctx context.Context, ownerID string) error {
	res, err := m.collection.DeleteOne(ctx, bson.M{"_id": ownerID})
	if err != nil {
		return fmt.Errorf("genomestore: mongo delete: %w", err)
	}
	if res.DeletedCount == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func (m *Mongo) List(ctx context.Context, limit, offset int) ([]Summary, int, error) {
	limit, offset = normalizePage(limit, offset)
	total, err := m.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, fmt.Errorf("genomestore: mongo count: %w", err)
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "updated_at", Value: -1}, {Key: "_id", Value: 1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit)).
		SetProjection(bson.M{"body": 0})
	cur, err := m.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("genomestore: mongo list: %w", err)
	}
	defer cur.Close(ctx)

	out := []Summary{}
	for cur.Next(ctx) {
		var doc mongoDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, 0, err
		}
		out = append(out, Summary{
			OwnerID:   doc.OwnerID,
			GenomeID:  doc.GenomeID,
			Version:   doc.Version,
			Primary:   archetype.ID(doc.Primary),
			UpdatedAt: doc.UpdatedAt,
		})
	}
	return out, int(total), cur.Err()
}

func (m *Mongo) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}
