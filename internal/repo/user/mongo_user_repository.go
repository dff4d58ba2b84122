package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mkrupp/shopzone/internal/domain"
	"github.com/mkrupp/shopzone/internal/infra/logging"
)

// MongoUserRepositoryConfig holds configuration for the MongoDB user repository.
type MongoUserRepositoryConfig struct {
	URI            string        `env:"URI" default:"mongodb://localhost:27017"`
	Database       string        `env:"DATABASE" default:"ShopZone"`
	Collection     string        `env:"COLLECTION" default:"users"`
	ConnectTimeout time.Duration `env:"CONNECT_TIMEOUT" default:"10s"`
}

// MongoUserRepository implements Repository on a MongoDB collection.
type MongoUserRepository struct {
	client     *mongo.Client
	collection *mongo.Collection
	log        logging.Logger
}

var _ Repository = (*MongoUserRepository)(nil)

type accountDocument struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Name         string             `bson:"name"`
	Email        string             `bson:"email"`
	EmailKey     string             `bson:"email_key"`
	PasswordHash []byte             `bson:"password"`
	Role         string             `bson:"role"`
	CreatedAt    time.Time          `bson:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt"`
}

func (doc accountDocument) account() *domain.Account {
	return &domain.Account{
		ID:           doc.ID.Hex(),
		Name:         doc.Name,
		Email:        doc.Email,
		PasswordHash: doc.PasswordHash,
		Role:         doc.Role,
		CreatedAt:    doc.CreatedAt.UTC(),
		UpdatedAt:    doc.UpdatedAt.UTC(),
	}
}

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// MongoUserRepositoryFactory returns a RepositoryFactory for cfg.
func MongoUserRepositoryFactory(cfg MongoUserRepositoryConfig) RepositoryFactory {
	return func(ctx context.Context) (Repository, error) {
		return NewMongoUserRepository(ctx, cfg)
	}
}

// ConnectMongoDB connects to uri and verifies the connection with a ping.
func ConnectMongoDB(ctx context.Context, uri string, connectTimeout time.Duration) (*mongo.Client, error) {
	clientOpts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(connectTimeout).
		SetServerSelectionTimeout(5 * time.Second).
		SetMaxPoolSize(100)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)

		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	return client, nil
}

// NewMongoUserRepository connects and ensures the unique email index.
func NewMongoUserRepository(ctx context.Context, cfg MongoUserRepositoryConfig) (*MongoUserRepository, error) {
	client, err := ConnectMongoDB(ctx, cfg.URI, cfg.ConnectTimeout)
	if err != nil {
		return nil, err
	}

	repo := &MongoUserRepository{
		client:     client,
		collection: client.Database(cfg.Database).Collection(cfg.Collection),
		log: logging.GetLogger("repo.user.mongo").With(
			logging.Group("db", "database", cfg.Database, "collection", cfg.Collection),
		),
	}

	if err := repo.CreateIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)

		return nil, err
	}

	return repo, nil
}

// CreateIndexes creates the unique index on the normalized email.
func (r *MongoUserRepository) CreateIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email_key", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("email_key_unique"),
	})
	if err != nil {
		return fmt.Errorf("create email index: %w", err)
	}

	return nil
}

func (r *MongoUserRepository) CreateAccount(ctx context.Context, account *domain.Account) error {
	now := time.Now().UTC().Truncate(time.Millisecond)
	if account.Role == "" {
		account.Role = domain.RoleUser
	}

	res, err := r.collection.InsertOne(ctx, accountDocument{
		Name:         account.Name,
		Email:        account.Email,
		EmailKey:     emailKey(account.Email),
		PasswordHash: account.PasswordHash,
		Role:         account.Role,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("insert account: %w", errors.Join(domain.ErrDuplicateAccount, err))
		}

		r.log.ErrorContext(ctx, "create account failed", "error", err)

		return fmt.Errorf("insert account: %w", err)
	}

	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return fmt.Errorf("insert account: unexpected id type %T", res.InsertedID)
	}

	account.ID = oid.Hex()
	account.CreatedAt = now
	account.UpdatedAt = now

	return nil
}

func (r *MongoUserRepository) findOne(ctx context.Context, filter bson.M) (*domain.Account, error) {
	var doc accountDocument

	err := r.collection.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, errors.Join(domain.ErrAccountNotFound, err)
	} else if err != nil {
		return nil, fmt.Errorf("find account: %w", err)
	}

	return doc.account(), nil
}

func (r *MongoUserRepository) GetAccountByEmail(ctx context.Context, email string) (*domain.Account, error) {
	account, err := r.findOne(ctx, bson.M{"email_key": emailKey(email)})
	if err != nil {
		return nil, fmt.Errorf("query account by email: %w", err)
	}

	return account, nil
}

func (r *MongoUserRepository) GetAccountByID(ctx context.Context, id string) (*domain.Account, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("query account by id %q: %w", id, domain.ErrAccountNotFound)
	}

	account, err := r.findOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return nil, fmt.Errorf("query account by id: %w", err)
	}

	return account, nil
}

func (r *MongoUserRepository) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := r.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("disconnect mongo: %w", err)
	}

	return nil
}
