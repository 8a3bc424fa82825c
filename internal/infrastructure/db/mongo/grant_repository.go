package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/homeinfo/his/internal/core/domain"
)

// GrantRepository stores the customer_services and account_services relations.
type GrantRepository struct {
	customers *mongo.Collection
	accounts  *mongo.Collection
}

func NewGrantRepository(db *mongo.Database) *GrantRepository {
	return &GrantRepository{
		customers: db.Collection(collectionCustomerServices),
		accounts:  db.Collection(collectionAccountServices),
	}
}

type customerServiceDocument struct {
	Customer string     `bson:"customer"`
	Service  string     `bson:"service"`
	Begin    *time.Time `bson:"begin"`
	End      *time.Time `bson:"end"`
}

type accountServiceDocument struct {
	Account string `bson:"account"`
	Service string `bson:"service"`
}

func (r *GrantRepository) CustomerServices(ctx context.Context, customerID string) ([]domain.CustomerService, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.customers.Find(ctx, bson.M{"customer": customerID})
	if err != nil {
		return nil, fmt.Errorf("find customer services: %w", err)
	}
	defer cur.Close(ctx)

	var docs []customerServiceDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode customer services: %w", err)
	}
	out := make([]domain.CustomerService, 0, len(docs))
	for _, d := range docs {
		out = append(out, domain.CustomerService{CustomerID: d.Customer, ServiceID: d.Service, Begin: d.Begin, End: d.End})
	}
	return out, nil
}

func (r *GrantRepository) AccountServices(ctx context.Context, accountID string) ([]domain.AccountService, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.accounts.Find(ctx, bson.M{"account": accountID})
	if err != nil {
		return nil, fmt.Errorf("find account services: %w", err)
	}
	defer cur.Close(ctx)

	var docs []accountServiceDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode account services: %w", err)
	}
	out := make([]domain.AccountService, 0, len(docs))
	for _, d := range docs {
		out = append(out, domain.AccountService{AccountID: d.Account, ServiceID: d.Service})
	}
	return out, nil
}

// AddCustomerService upserts the grant; an existing window is replaced.
func (r *GrantRepository) AddCustomerService(ctx context.Context, g domain.CustomerService) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.customers.UpdateOne(ctx,
		bson.M{"customer": g.CustomerID, "service": g.ServiceID},
		bson.M{"$set": bson.M{"begin": g.Begin, "end": g.End}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("upsert customer service: %w", err)
	}
	return nil
}

func (r *GrantRepository) AddAccountService(ctx context.Context, g domain.AccountService) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"account": g.AccountID, "service": g.ServiceID}
	_, err := r.accounts.UpdateOne(ctx, filter, bson.M{"$setOnInsert": filter}, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("upsert account service: %w", err)
	}
	return nil
}

func (r *GrantRepository) RemoveAccountService(ctx context.Context, accountID, serviceID string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.accounts.DeleteOne(ctx, bson.M{"account": accountID, "service": serviceID}); err != nil {
		return fmt.Errorf("delete account service: %w", err)
	}
	return nil
}
