package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/oggyb/imperfect/internal/db"
	"github.com/oggyb/imperfect/internal/utils/pagination"
)

// UserRepository provides data access methods for the User model.
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new repository bound to the given DB connection.
func NewUserRepository(database *gorm.DB) *UserRepository {
	return &UserRepository{db: database}
}

// CreateUser inserts a new user; the id is generated when empty.
func (r *UserRepository) CreateUser(ctx context.Context, user *db.User) error {
	return r.CreateUserWithDefects(ctx, user, nil)
}

// CreateUserWithDefects inserts a user and their defects in one transaction,
// so a failed defect insert leaves no half-created profile behind. Defect
// UserIDs are set from the new user.
func (r *UserRepository) CreateUserWithDefects(ctx context.Context, user *db.User, defects []db.Defect) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Defects", "Photos").Create(user).Error; err != nil {
			return err
		}
		if len(defects) == 0 {
			return nil
		}
		for i := range defects {
			defects[i].UserID = user.ID
		}
		return tx.Create(&defects).Error
	})
}

// GetUser returns the user with the given id, or nil when absent.
func (r *UserRepository) GetUser(ctx context.Context, id string) (*db.User, error) {
	var user db.User
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUsersByIDs bulk-loads users; ids that do not resolve are simply absent.
func (r *UserRepository) GetUsersByIDs(ctx context.Context, ids []string) ([]db.User, error) {
	var users []db.User
	if len(ids) == 0 {
		return users, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error
	return users, err
}

// GetAllUsers returns every user in creation order.
func (r *UserRepository) GetAllUsers(ctx context.Context) ([]db.User, error) {
	var users []db.User
	err := r.db.WithContext(ctx).Order("created_at ASC, id ASC").Find(&users).Error
	return users, err
}

// ListCandidates returns up to limit users other than currentUserID whose ids
// are not in exclude.
//
// Behavior:
//   - The current user is always excluded.
//   - No ranking happens here; rows come back in creation order.
//
// Example:
//
//	repo.ListCandidates(ctx, me, seen, 20)
func (r *UserRepository) ListCandidates(
	ctx context.Context,
	currentUserID string,
	exclude []string,
	limit int,
) ([]db.User, error) {
	var users []db.User

	query := r.db.WithContext(ctx).
		Where("id <> ?", currentUserID)
	if len(exclude) > 0 {
		query = query.Where("id NOT IN ?", exclude)
	}

	err := query.
		Order("created_at ASC, id ASC").
		Limit(limit).
		Find(&users).Error
	return users, err
}

// ListUsers returns a page of users, newest first.
//
// Behavior:
//   - Ordered by created_at DESC, id DESC.
//   - Supports cursor-based pagination via paginationToken.
//
// Example:
//
//	repo.ListUsers(ctx, nil, 20) // first 20 users
func (r *UserRepository) ListUsers(
	ctx context.Context,
	paginationToken *string,
	limit int,
) ([]db.User, *string, error) {
	var users []db.User

	// decode cursor if provided
	cursor, err := pagination.Decode(getString(paginationToken))
	if err != nil {
		return nil, nil, err
	}

	query := r.db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Limit(limit + 1)

	// apply cursor
	if !cursor.IsZero() {
		ts := time.UnixMilli(cursor.CreatedUnix).UTC()
		query = query.Where(
			"(created_at < ? OR (created_at = ? AND id < ?))",
			ts, ts, cursor.ID,
		)
	}

	if err := query.Find(&users).Error; err != nil {
		return nil, nil, err
	}

	// pagination: build next cursor if needed
	var nextToken *string
	if len(users) > limit {
		last := users[limit-1]
		token, _ := pagination.Encode(pagination.Cursor{
			ID:          last.ID,
			CreatedUnix: last.CreatedAt.UnixMilli(),
		})
		nextToken = &token
		users = users[:limit]
	}

	return users, nextToken, nil
}

// MarkUserValidated sets is_validated on the given user.
func (r *UserRepository) MarkUserValidated(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).
		Model(&db.User{}).
		Where("id = ?", id).
		Update("is_validated", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListUnvalidatedUsers returns users whose profile has not been validated yet.
func (r *UserRepository) ListUnvalidatedUsers(ctx context.Context) ([]db.User, error) {
	var users []db.User
	err := r.db.WithContext(ctx).
		Where("is_validated = ?", false).
		Order("created_at ASC, id ASC").
		Find(&users).Error
	return users, err
}

// getString safely dereferences a string pointer for pagination tokens.
func getString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
