package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/homeinfo/his/internal/core/domain"
)

// AccountRepository stores accounts and answers customer lookups.
type AccountRepository struct {
	accounts  *mongo.Collection
	customers *mongo.Collection
}

func NewAccountRepository(db *mongo.Database) *AccountRepository {
	return &AccountRepository{
		accounts:  db.Collection(collectionAccounts),
		customers: db.Collection(collectionCustomers),
	}
}

type accountDocument struct {
	ID           string     `bson:"_id"`
	Customer     string     `bson:"customer"`
	Name         string     `bson:"name"`
	FullName     string     `bson:"full_name,omitempty"`
	Email        string     `bson:"email,omitempty"`
	PasswordHash string     `bson:"passwd"`
	Admin        bool       `bson:"admin"`
	Root         bool       `bson:"root"`
	Disabled     bool       `bson:"disabled"`
	Deleted      *time.Time `bson:"deleted,omitempty"`
	LockedUntil  *time.Time `bson:"locked_until,omitempty"`
	FailedLogins int        `bson:"failed_logins"`
	LastLogin    *time.Time `bson:"last_login,omitempty"`
	Created      time.Time  `bson:"created"`
}

func (d accountDocument) toDomain() *domain.Account {
	return &domain.Account{
		ID:           d.ID,
		CustomerID:   d.Customer,
		Name:         d.Name,
		FullName:     d.FullName,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		Admin:        d.Admin,
		Root:         d.Root,
		Disabled:     d.Disabled,
		Deleted:      d.Deleted,
		LockedUntil:  d.LockedUntil,
		FailedLogins: d.FailedLogins,
		LastLogin:    d.LastLogin,
		CreatedAt:    d.Created,
	}
}

type customerDocument struct {
	ID   string `bson:"_id"`
	Name string `bson:"name"`
}

func (r *AccountRepository) FindByID(ctx context.Context, id string) (*domain.Account, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *AccountRepository) FindByName(ctx context.Context, name string) (*domain.Account, error) {
	return r.findOne(ctx, bson.M{"name": name})
}

func (r *AccountRepository) ListByCustomer(ctx context.Context, customerID string) ([]*domain.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.accounts.Find(ctx, bson.M{"customer": customerID})
	if err != nil {
		return nil, fmt.Errorf("find accounts: %w", err)
	}
	defer cur.Close(ctx)

	var docs []accountDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode accounts: %w", err)
	}
	out := make([]*domain.Account, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

// Update persists the login bookkeeping fields only.
func (r *AccountRepository) Update(ctx context.Context, a *domain.Account) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.accounts.UpdateOne(ctx, bson.M{"_id": a.ID}, bson.M{"$set": bson.M{
		"failed_logins": a.FailedLogins,
		"last_login":    a.LastLogin,
		"passwd":        a.PasswordHash,
	}})
	if err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrNoSuchAccount
	}
	return nil
}

// CustomerRepository returns a view of r that reads customers.
func (r *AccountRepository) Customers() *CustomerRepository {
	return &CustomerRepository{col: r.customers}
}

func (r *AccountRepository) findOne(ctx context.Context, filter bson.M) (*domain.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc accountDocument
	if err := r.accounts.FindOne(ctx, filter).Decode(&doc); err != nil {
		if notFound(err) {
			return nil, domain.ErrNoSuchAccount
		}
		return nil, fmt.Errorf("find account: %w", err)
	}
	return doc.toDomain(), nil
}

// CustomerRepository reads customers.
type CustomerRepository struct {
	col *mongo.Collection
}

func (r *CustomerRepository) FindByID(ctx context.Context, id string) (*domain.Customer, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc customerDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if notFound(err) {
			return nil, domain.ErrNoSuchCustomer
		}
		return nil, fmt.Errorf("find customer: %w", err)
	}
	return &domain.Customer{ID: doc.ID, Name: doc.Name}, nil
}
