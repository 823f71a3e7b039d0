package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/imperfect/internal/db"
)

// LikeRepository provides data access methods for the Like model.
// It encapsulates all queries related to likes/passes between users.
type LikeRepository struct {
	db *gorm.DB
}

// NewLikeRepository creates a new repository bound to the given DB connection.
func NewLikeRepository(database *gorm.DB) *LikeRepository {
	return &LikeRepository{db: database}
}

// CreateLike records a like (isLike=true) or pass (isLike=false) from -> to.
//
// Behavior:
//   - If no decision exists for (from, to) → a new row is inserted.
//   - If one already exists → nothing is written; the stored row is returned.
//   - The unique (from_user_id, to_user_id) index makes the first decision final.
//
// The boolean result reports whether a new row was written.
//
// Example:
//
//	repo.CreateLike(ctx, a, b, true) // user a liked user b
func (r *LikeRepository) CreateLike(
	ctx context.Context,
	fromUserID, toUserID string,
	isLike bool,
) (*db.Like, bool, error) {
	like := &db.Like{
		FromUserID: fromUserID,
		ToUserID:   toUserID,
		IsLike:     isLike,
	}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "from_user_id"}, {Name: "to_user_id"}},
			DoNothing: true,
		}).
		Create(like)
	if res.Error != nil {
		return nil, false, res.Error
	}
	if res.RowsAffected == 0 {
		existing, err := r.GetLike(ctx, fromUserID, toUserID)
		if err != nil {
			return nil, false, err
		}
		if existing == nil {
			return nil, false, gorm.ErrRecordNotFound
		}
		return existing, false, nil
	}
	return like, true, nil
}

// GetLike returns the decision from -> to, or nil when there is none.
func (r *LikeRepository) GetLike(ctx context.Context, fromUserID, toUserID string) (*db.Like, error) {
	var like db.Like
	err := r.db.WithContext(ctx).
		Where("from_user_id = ? AND to_user_id = ?", fromUserID, toUserID).
		Take(&like).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &like, nil
}

// GetLikesBetweenUsers returns the decisions in both directions between two users.
func (r *LikeRepository) GetLikesBetweenUsers(ctx context.Context, userID1, userID2 string) ([]db.Like, error) {
	var likes []db.Like
	ids := []string{userID1, userID2}
	err := r.db.WithContext(ctx).
		Where("from_user_id IN ? AND to_user_id IN ?", ids, ids).
		Order("created_at ASC").
		Find(&likes).Error
	return likes, err
}

// ActedOnIDs returns every user id the given user has liked or passed.
//
// Both outcomes count: a decided profile never resurfaces in discovery.
func (r *LikeRepository) ActedOnIDs(ctx context.Context, fromUserID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&db.Like{}).
		Where("from_user_id = ?", fromUserID).
		Pluck("to_user_id", &ids).Error
	return ids, err
}

// HasLiked checks whether an actor has liked a recipient.
//
// Behavior:
//   - Returns true if there exists a like row where from_user_id = X,
//     to_user_id = Y, and is_like = true.
//   - Used for the reciprocal-like check in RecordLike.
//
// Example:
//
//	repo.HasLiked(ctx, a, b) // -> true if user a liked user b
func (r *LikeRepository) HasLiked(ctx context.Context, actorID, recipientID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Like{}).
		Where("from_user_id = ? AND to_user_id = ? AND is_like = ?", actorID, recipientID, true).
		Count(&count).Error
	return count > 0, err
}
