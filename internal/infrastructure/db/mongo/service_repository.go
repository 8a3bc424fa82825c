package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/homeinfo/his/internal/core/domain"
)

// ServiceRepository stores services and their dependency edges.
type ServiceRepository struct {
	services     *mongo.Collection
	dependencies *mongo.Collection
}

func NewServiceRepository(db *mongo.Database) *ServiceRepository {
	return &ServiceRepository{
		services:     db.Collection(collectionServices),
		dependencies: db.Collection(collectionServiceDependencies),
	}
}

type serviceDocument struct {
	ID          string `bson:"_id"`
	Name        string `bson:"name"`
	Description string `bson:"description,omitempty"`
	Promote     bool   `bson:"promote"`
	Locked      bool   `bson:"locked"`
}

type dependencyDocument struct {
	Service    string `bson:"service"`
	Dependency string `bson:"dependency"`
}

func (r *ServiceRepository) FindByID(ctx context.Context, id string) (*domain.Service, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *ServiceRepository) FindByName(ctx context.Context, name string) (*domain.Service, error) {
	return r.findOne(ctx, bson.M{"name": name})
}

func (r *ServiceRepository) Dependencies(ctx context.Context) ([]domain.ServiceDependency, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.dependencies.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("find service dependencies: %w", err)
	}
	defer cur.Close(ctx)

	var docs []dependencyDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode service dependencies: %w", err)
	}
	edges := make([]domain.ServiceDependency, 0, len(docs))
	for _, d := range docs {
		edges = append(edges, domain.ServiceDependency{ServiceID: d.Service, DependencyID: d.Dependency})
	}
	return edges, nil
}

func (r *ServiceRepository) findOne(ctx context.Context, filter bson.M) (*domain.Service, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc serviceDocument
	if err := r.services.FindOne(ctx, filter).Decode(&doc); err != nil {
		if notFound(err) {
			return nil, domain.ErrNoSuchService
		}
		return nil, fmt.Errorf("find service: %w", err)
	}
	return &domain.Service{
		ID:          doc.ID,
		Name:        doc.Name,
		Description: doc.Description,
		Promote:     doc.Promote,
		Locked:      doc.Locked,
	}, nil
}
