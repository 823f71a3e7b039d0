package repository

import (
	"context"
	"errors"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/imperfect/internal/db"
)

// MatchRepository provides data access methods for the Match model.
type MatchRepository struct {
	db *gorm.DB
}

// NewMatchRepository creates a new repository bound to the given DB connection.
func NewMatchRepository(database *gorm.DB) *MatchRepository {
	return &MatchRepository{db: database}
}

// CreateMatch inserts a match for the pair unless one already exists.
//
// Behavior:
//   - pair_key is unique, so two racing inserts for the same pair produce one row.
//   - On conflict the existing row is returned and created is false.
//
// Example:
//
//	m, created, err := repo.CreateMatch(ctx, a, b, 100, []string{"Calvicie avanzada"})
func (r *MatchRepository) CreateMatch(
	ctx context.Context,
	user1ID, user2ID string,
	score int,
	sharedDefects []string,
) (*db.Match, bool, error) {
	match := &db.Match{
		User1ID:            user1ID,
		User2ID:            user2ID,
		CompatibilityScore: score,
		SharedDefects:      datatypes.JSONSlice[string](sharedDefects),
	}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "pair_key"}},
			DoNothing: true,
		}).
		Create(match)
	if res.Error != nil {
		return nil, false, res.Error
	}
	if res.RowsAffected == 0 {
		existing, err := r.GetMatchByPair(ctx, user1ID, user2ID)
		if err != nil {
			return nil, false, err
		}
		if existing == nil {
			return nil, false, gorm.ErrRecordNotFound
		}
		return existing, false, nil
	}
	return match, true, nil
}

// GetMatchByPair returns the match between two users in either order, or nil.
func (r *MatchRepository) GetMatchByPair(ctx context.Context, userID1, userID2 string) (*db.Match, error) {
	var match db.Match
	err := r.db.WithContext(ctx).
		Where("pair_key = ?", db.PairKey(userID1, userID2)).
		Take(&match).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &match, nil
}

// GetMatchesByUserID returns every match touching the user, oldest first.
func (r *MatchRepository) GetMatchesByUserID(ctx context.Context, userID string) ([]db.Match, error) {
	var matches []db.Match
	err := r.db.WithContext(ctx).
		Where("user1_id = ? OR user2_id = ?", userID, userID).
		Order("created_at ASC, id ASC").
		Find(&matches).Error
	return matches, err
}
