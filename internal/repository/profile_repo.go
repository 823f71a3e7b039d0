package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/oggyb/imperfect/internal/db"
)

// DefectRepository stores and reads per-user defects.
type DefectRepository struct {
	db *gorm.DB
}

// NewDefectRepository creates a new repository bound to the given DB connection.
func NewDefectRepository(database *gorm.DB) *DefectRepository {
	return &DefectRepository{db: database}
}

// CreateDefects inserts the defects in one statement.
func (r *DefectRepository) CreateDefects(ctx context.Context, defects []db.Defect) error {
	if len(defects) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&defects).Error
}

// GetDefectsByUserID returns a user's defects in the order they were listed.
func (r *DefectRepository) GetDefectsByUserID(ctx context.Context, userID string) ([]db.Defect, error) {
	var defects []db.Defect
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("position ASC").
		Find(&defects).Error
	return defects, err
}

// GetDefectsByUserIDs bulk-loads defects for a batch of users in one query.
func (r *DefectRepository) GetDefectsByUserIDs(ctx context.Context, userIDs []string) ([]db.Defect, error) {
	var defects []db.Defect
	if len(userIDs) == 0 {
		return defects, nil
	}
	err := r.db.WithContext(ctx).
		Where("user_id IN ?", userIDs).
		Order("user_id ASC, position ASC").
		Find(&defects).Error
	return defects, err
}

// UpdateDefectPhoto attaches a photo to a defect. It is the only mutation a
// defect ever sees.
func (r *DefectRepository) UpdateDefectPhoto(ctx context.Context, defectID, photoURL string) error {
	return r.db.WithContext(ctx).
		Model(&db.Defect{}).
		Where("id = ?", defectID).
		Update("photo_url", photoURL).Error
}

// PhotoRepository stores and reads per-user photos.
type PhotoRepository struct {
	db *gorm.DB
}

// NewPhotoRepository creates a new repository bound to the given DB connection.
func NewPhotoRepository(database *gorm.DB) *PhotoRepository {
	return &PhotoRepository{db: database}
}

// CreatePhoto inserts a photo. New photos are never validated.
func (r *PhotoRepository) CreatePhoto(ctx context.Context, photo *db.Photo) error {
	photo.IsValidated = false
	photo.ValidationFeedback = nil
	return r.db.WithContext(ctx).Create(photo).Error
}

// UpdatePhotoValidation stores the validator's verdict on a photo.
func (r *PhotoRepository) UpdatePhotoValidation(
	ctx context.Context,
	photoID string,
	isValidated bool,
	feedback *string,
) (*db.Photo, error) {
	err := r.db.WithContext(ctx).
		Model(&db.Photo{}).
		Where("id = ?", photoID).
		Updates(map[string]any{
			"is_validated":        isValidated,
			"validation_feedback": feedback,
		}).Error
	if err != nil {
		return nil, err
	}

	// MySQL reports zero affected rows for no-op updates, so read back instead
	var photo db.Photo
	if err := r.db.WithContext(ctx).Where("id = ?", photoID).Take(&photo).Error; err != nil {
		return nil, err
	}
	return &photo, nil
}

// GetPhotosByUserID returns a user's photos in upload order.
func (r *PhotoRepository) GetPhotosByUserID(ctx context.Context, userID string) ([]db.Photo, error) {
	var photos []db.Photo
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("position ASC").
		Find(&photos).Error
	return photos, err
}

// GetPhotosByUserIDs bulk-loads photos for a batch of users in one query.
func (r *PhotoRepository) GetPhotosByUserIDs(ctx context.Context, userIDs []string) ([]db.Photo, error) {
	var photos []db.Photo
	if len(userIDs) == 0 {
		return photos, nil
	}
	err := r.db.WithContext(ctx).
		Where("user_id IN ?", userIDs).
		Order("user_id ASC, position ASC").
		Find(&photos).Error
	return photos, err
}
