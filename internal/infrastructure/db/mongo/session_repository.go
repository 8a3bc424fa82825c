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

// SessionRepository is the durable session store.
type SessionRepository struct {
	col *mongo.Collection
}

func NewSessionRepository(db *mongo.Database) *SessionRepository {
	return &SessionRepository{col: db.Collection(collectionSessions)}
}

type sessionDocument struct {
	Token   string    `bson:"_id"`
	Account string    `bson:"account"`
	Start   time.Time `bson:"start"`
	End     time.Time `bson:"end"`
	Login   bool      `bson:"login"`
}

func toSessionDocument(s *domain.Session) sessionDocument {
	return sessionDocument{Token: s.Token, Account: s.AccountID, Start: s.Start, End: s.End, Login: s.Login}
}

func (d sessionDocument) toDomain() domain.Session {
	return domain.Session{Token: d.Token, AccountID: d.Account, Start: d.Start.UTC(), End: d.End.UTC(), Login: d.Login}
}

func (r *SessionRepository) Create(ctx context.Context, s *domain.Session) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.col.InsertOne(ctx, toSessionDocument(s)); err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (r *SessionRepository) FindByToken(ctx context.Context, token string) (*domain.Session, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc sessionDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": token}).Decode(&doc); err != nil {
		if notFound(err) {
			return nil, domain.ErrNoSuchSession
		}
		return nil, fmt.Errorf("find session: %w", err)
	}
	s := doc.toDomain()
	return &s, nil
}

func (r *SessionRepository) Update(ctx context.Context, s *domain.Session) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": s.Token},
		bson.M{"$set": bson.M{"end": s.End, "login": s.Login}},
	)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrNoSuchSession
	}
	return nil
}

// Delete removes a session; deleting an absent one succeeds.
func (r *SessionRepository) Delete(ctx context.Context, token string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.col.DeleteOne(ctx, bson.M{"_id": token}); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// DeleteExpired removes every session that ended before the given instant and
// returns exactly the documents it removed. A session renewed between the scan
// and its delete no longer matches and is kept.
func (r *SessionRepository) DeleteExpired(ctx context.Context, before time.Time) ([]domain.Session, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	candidates, err := r.find(ctx, bson.M{"end": bson.M{"$lt": before}})
	if err != nil {
		return nil, err
	}

	var swept []domain.Session
	for _, c := range candidates {
		var doc sessionDocument
		err := r.col.FindOneAndDelete(ctx, bson.M{"_id": c.Token, "end": bson.M{"$lt": before}}).Decode(&doc)
		if notFound(err) {
			continue
		}
		if err != nil {
			return swept, fmt.Errorf("delete expired session: %w", err)
		}
		swept = append(swept, doc.toDomain())
	}
	return swept, nil
}

func (r *SessionRepository) List(ctx context.Context, accountIDs []string) ([]domain.Session, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{}
	if accountIDs != nil {
		filter["account"] = bson.M{"$in": accountIDs}
	}
	return r.find(ctx, filter)
}

func (r *SessionRepository) find(ctx context.Context, filter bson.M) ([]domain.Session, error) {
	cur, err := r.col.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "start", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find sessions: %w", err)
	}
	defer cur.Close(ctx)

	var docs []sessionDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode sessions: %w", err)
	}

	sessions := make([]domain.Session, 0, len(docs))
	for _, d := range docs {
		sessions = append(sessions, d.toDomain())
	}
	return sessions, nil
}
