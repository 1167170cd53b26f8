package dbmongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"userdirectory/internal/common"
	"userdirectory/internal/user"
)

const (
	usersCollection = "users"
	userIDIndex     = "userId_1"
)

// UserStore persists user records in the "users" collection. Unique indexes on
// userId, email and mobile back the store's conflict errors.
type UserStore struct {
	coll *mongo.Collection
}

var _ user.UserRepository = (*UserStore)(nil)

func NewUserStore(db *mongo.Database) *UserStore {
	return &UserStore{coll: db.Collection(usersCollection)}
}

// EnsureIndexes creates the unique indexes. Safe to call on every start.
func (s *UserStore) EnsureIndexes(ctx context.Context) error {
	models := []mongo.IndexModel{
		{Keys: bson.D{{Key: "userId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "mobile", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
	}
	if _, err := s.coll.Indexes().CreateMany(ctx, models); err != nil {
		return fmt.Errorf("create user indexes: %w", err)
	}
	return nil
}

func (s *UserStore) FindAll(ctx context.Context) ([]*user.User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "userId", Value: 1}})
	return s.find(ctx, bson.M{}, opts)
}

func (s *UserStore) FindPage(ctx context.Context, page, limit int) ([]*user.User, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "userId", Value: -1}}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))
	return s.find(ctx, bson.M{}, opts)
}

func (s *UserStore) FindByID(ctx context.Context, userID int64) (*user.User, error) {
	var u user.User
	err := s.coll.FindOne(ctx, bson.M{"userId": userID}).Decode(&u)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("find user %d: %w", userID, common.ErrRecordNotFound)
		}
		return nil, fmt.Errorf("find user %d: %w", userID, err)
	}
	return &u, nil
}

// Search matches the query literally; regex metacharacters are quoted.
func (s *UserStore) Search(ctx context.Context, query string) ([]*user.User, error) {
	pattern := primitive.Regex{Pattern: regexp.QuoteMeta(query), Options: "i"}
	filter := bson.M{"$or": bson.A{
		bson.M{"firstName": pattern},
		bson.M{"lastName": pattern},
		bson.M{"email": pattern},
		bson.M{"mobile": pattern},
	}}
	opts := options.Find().SetSort(bson.D{{Key: "userId", Value: 1}})
	return s.find(ctx, filter, opts)
}

func (s *UserStore) MaxID(ctx context.Context) (int64, bool, error) {
	opts := options.FindOne().
		SetSort(bson.D{{Key: "userId", Value: -1}}).
		SetProjection(bson.M{"userId": 1})

	var doc struct {
		UserID int64 `bson:"userId"`
	}
	err := s.coll.FindOne(ctx, bson.M{}, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("read max user id: %w", err)
	}
	return doc.UserID, true, nil
}

func (s *UserStore) Insert(ctx context.Context, u *user.User) error {
	if _, err := s.coll.InsertOne(ctx, u); err != nil {
		return fmt.Errorf("insert user %d: %w", u.UserID, classifyWriteError(err))
	}
	return nil
}

func (s *UserStore) UpdateByID(ctx context.Context, userID int64, changes user.UserChanges) (*user.User, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated user.User
	err := s.coll.FindOneAndUpdate(ctx, bson.M{"userId": userID}, bson.M{"$set": setDocument(changes)}, opts).Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("update user %d: %w", userID, common.ErrRecordNotFound)
		}
		return nil, fmt.Errorf("update user %d: %w", userID, classifyWriteError(err))
	}
	return &updated, nil
}

func (s *UserStore) DeleteByID(ctx context.Context, userID int64) (*user.User, error) {
	var deleted user.User
	err := s.coll.FindOneAndDelete(ctx, bson.M{"userId": userID}).Decode(&deleted)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("delete user %d: %w", userID, common.ErrRecordNotFound)
		}
		return nil, fmt.Errorf("delete user %d: %w", userID, err)
	}
	return &deleted, nil
}

func (s *UserStore) Ping(ctx context.Context) error {
	return s.coll.Database().Client().Ping(ctx, nil)
}

func (s *UserStore) find(ctx context.Context, filter interface{}, opts *options.FindOptions) ([]*user.User, error) {
	cursor, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer cursor.Close(ctx)

	users := []*user.User{}
	if err := cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	return users, nil
}

func setDocument(c user.UserChanges) bson.M {
	set := bson.M{}
	if c.FirstName != nil {
		set["firstName"] = *c.FirstName
	}
	if c.LastName != nil {
		set["lastName"] = *c.LastName
	}
	if c.Email != nil {
		set["email"] = *c.Email
	}
	if c.Mobile != nil {
		set["mobile"] = *c.Mobile
	}
	if c.Gender != nil {
		set["gender"] = *c.Gender
	}
	if c.Status != nil {
		set["status"] = *c.Status
	}
	if c.Location != nil {
		set["location"] = *c.Location
	}
	if c.ProfilePhotoPath != nil {
		set["profilePhotoPath"] = *c.ProfilePhotoPath
	}
	if !c.UpdatedAt.IsZero() {
		set["updatedAt"] = c.UpdatedAt
	}
	return set
}

// classifyWriteError turns duplicate key errors into ErrIDConflict (userId
// index) or ErrUniquenessViolation (email, mobile).
func classifyWriteError(err error) error {
	if !mongo.IsDuplicateKeyError(err) {
		return err
	}
	if strings.Contains(err.Error(), userIDIndex) {
		return common.ErrIDConflict
	}
	return common.ErrUniquenessViolation
}
