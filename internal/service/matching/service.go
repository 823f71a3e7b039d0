package matching

import (
	"context"
	"log/slog"
	"time"

	"github.com/oggyb/imperfect/internal/api"
	"github.com/oggyb/imperfect/internal/app"
	"github.com/oggyb/imperfect/internal/compatibility"
	"github.com/oggyb/imperfect/internal/db"
	svcErr "github.com/oggyb/imperfect/internal/errors"
	"github.com/oggyb/imperfect/internal/metrics"
	"github.com/oggyb/imperfect/internal/repository"
)

// LikeResult tells the caller whether a like closed a match.
type LikeResult struct {
	IsMatch bool   `json:"isMatch"`
	MatchID string `json:"matchId,omitempty"`
}

// MatchWithProfile is a match seen from one side, with the other party's profile.
type MatchWithProfile struct {
	ID                 string       `json:"id"`
	CompatibilityScore int          `json:"compatibilityScore"`
	SharedDefects      []string     `json:"sharedDefects"`
	CreatedAt          time.Time    `json:"createdAt"`
	OtherUser          api.User     `json:"otherUser"`
	OtherUserPhotos    []api.Photo  `json:"otherUserPhotos"`
	OtherUserDefects   []api.Defect `json:"otherUserDefects"`
}

type UserStore interface {
	GetUser(ctx context.Context, id string) (*db.User, error)
	GetUsersByIDs(ctx context.Context, ids []string) ([]db.User, error)
}

type LikeStore interface {
	CreateLike(ctx context.Context, fromUserID, toUserID string, isLike bool) (*db.Like, bool, error)
	HasLiked(ctx context.Context, actorID, recipientID string) (bool, error)
}

type MatchStore interface {
	CreateMatch(ctx context.Context, user1ID, user2ID string, score int, sharedDefects []string) (*db.Match, bool, error)
	GetMatchesByUserID(ctx context.Context, userID string) ([]db.Match, error)
}

type DefectStore interface {
	GetDefectsByUserID(ctx context.Context, userID string) ([]db.Defect, error)
	GetDefectsByUserIDs(ctx context.Context, userIDs []string) ([]db.Defect, error)
}

type PhotoStore interface {
	GetPhotosByUserIDs(ctx context.Context, userIDs []string) ([]db.Photo, error)
}

// Stores groups the data sources the match manager needs.
type Stores struct {
	Users   UserStore
	Likes   LikeStore
	Matches MatchStore
	Defects DefectStore
	Photos  PhotoStore
}

// Service records likes and passes and turns mutual likes into matches.
type Service struct {
	stores Stores
	log    *slog.Logger
}

// New creates a match manager over the given stores.
func New(stores Stores, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{stores: stores, log: log}
}

// NewService wires the gorm repositories from AppContext.
func NewService(appCtx *app.AppContext) *Service {
	return New(Stores{
		Users:   repository.NewUserRepository(appCtx.DB),
		Likes:   repository.NewLikeRepository(appCtx.DB),
		Matches: repository.NewMatchRepository(appCtx.DB),
		Defects: repository.NewDefectRepository(appCtx.DB),
		Photos:  repository.NewPhotoRepository(appCtx.DB),
	}, appCtx.Logger)
}

// RecordLike stores a like from fromUserID to toUserID and reports a match
// when toUserID already liked back.
//
// Behavior:
//   - No current user → ErrAuthorization; missing or self target → ErrValidation.
//   - The target must exist → ErrNotFound.
//   - The first decision on a directed pair wins: liking after a pass changes nothing.
//   - At most one match per pair; a repeated like returns the existing match.
//
// Example:
//
//	res, err := svc.RecordLike(ctx, session.UserID(ctx), targetID)
func (s *Service) RecordLike(ctx context.Context, fromUserID, toUserID string) (LikeResult, error) {
	if err := s.validateDecision(ctx, fromUserID, toUserID); err != nil {
		return LikeResult{}, err
	}

	like, created, err := s.stores.Likes.CreateLike(ctx, fromUserID, toUserID, true)
	if err != nil {
		return LikeResult{}, svcErr.Storage("record like", err)
	}
	if !created {
		metrics.Decisions.WithLabelValues("duplicate").Inc()
	}
	if !like.IsLike {
		s.log.Debug("like ignored, pair already passed", "from", fromUserID, "to", toUserID)
		return LikeResult{IsMatch: false}, nil
	}
	if created {
		metrics.Decisions.WithLabelValues("like").Inc()
	}

	mutual, err := s.stores.Likes.HasLiked(ctx, toUserID, fromUserID)
	if err != nil {
		return LikeResult{}, svcErr.Storage("check reciprocal like", err)
	}
	if !mutual {
		return LikeResult{IsMatch: false}, nil
	}

	result, err := s.Compatibility(ctx, fromUserID, toUserID)
	if err != nil {
		return LikeResult{}, err
	}

	match, matchCreated, err := s.stores.Matches.CreateMatch(ctx, fromUserID, toUserID, result.Score, result.SharedDefects)
	if err != nil {
		return LikeResult{}, svcErr.Storage("create match", err)
	}
	if matchCreated {
		metrics.Decisions.WithLabelValues("match").Inc()
		metrics.MatchesCreated.Inc()
		s.log.Info("match created", "match", match.ID, "user1", match.User1ID, "user2", match.User2ID, "score", match.CompatibilityScore)
	}
	return LikeResult{IsMatch: true, MatchID: match.ID}, nil
}

// RecordPass stores a pass. A pass never produces a match and, being the
// first decision, blocks any later like on the same pair.
func (s *Service) RecordPass(ctx context.Context, fromUserID, toUserID string) error {
	if err := s.validateDecision(ctx, fromUserID, toUserID); err != nil {
		return err
	}
	_, created, err := s.stores.Likes.CreateLike(ctx, fromUserID, toUserID, false)
	if err != nil {
		return svcErr.Storage("record pass", err)
	}
	if created {
		metrics.Decisions.WithLabelValues("pass").Inc()
	} else {
		metrics.Decisions.WithLabelValues("duplicate").Inc()
	}
	return nil
}

// Matches lists every match of userID, oldest first, each joined with the
// other user's profile. Matches whose other user no longer exists are skipped.
func (s *Service) Matches(ctx context.Context, userID string) ([]MatchWithProfile, error) {
	out := []MatchWithProfile{}
	if userID == "" {
		return out, nil
	}

	matches, err := s.stores.Matches.GetMatchesByUserID(ctx, userID)
	if err != nil {
		return nil, svcErr.Storage("load matches", err)
	}
	if len(matches) == 0 {
		return out, nil
	}

	otherIDs := make([]string, 0, len(matches))
	for i := range matches {
		otherIDs = append(otherIDs, matches[i].OtherUserID(userID))
	}

	users, err := s.stores.Users.GetUsersByIDs(ctx, otherIDs)
	if err != nil {
		return nil, svcErr.Storage("load matched users", err)
	}
	defects, err := s.stores.Defects.GetDefectsByUserIDs(ctx, otherIDs)
	if err != nil {
		return nil, svcErr.Storage("load matched defects", err)
	}
	photos, err := s.stores.Photos.GetPhotosByUserIDs(ctx, otherIDs)
	if err != nil {
		return nil, svcErr.Storage("load matched photos", err)
	}

	usersByID := make(map[string]db.User, len(users))
	for _, u := range users {
		usersByID[u.ID] = u
	}
	defectsByUser := make(map[string][]db.Defect)
	for _, d := range defects {
		defectsByUser[d.UserID] = append(defectsByUser[d.UserID], d)
	}
	photosByUser := make(map[string][]db.Photo)
	for _, p := range photos {
		photosByUser[p.UserID] = append(photosByUser[p.UserID], p)
	}

	for i := range matches {
		m := &matches[i]
		otherID := m.OtherUserID(userID)
		other, ok := usersByID[otherID]
		if !ok {
			s.log.Debug("skipping match with missing user", "match", m.ID, "user", otherID)
			continue
		}
		shared := []string(m.SharedDefects)
		if shared == nil {
			shared = []string{}
		}
		out = append(out, MatchWithProfile{
			ID:                 m.ID,
			CompatibilityScore: m.CompatibilityScore,
			SharedDefects:      shared,
			CreatedAt:          m.CreatedAt,
			OtherUser:          api.FromUser(other),
			OtherUserPhotos:    api.FromPhotos(photosByUser[otherID]),
			OtherUserDefects:   api.FromDefects(defectsByUser[otherID]),
		})
	}
	return out, nil
}

// Compatibility scores two users' defect lists with the full algorithm.
func (s *Service) Compatibility(ctx context.Context, userID1, userID2 string) (compatibility.Result, error) {
	d1, err := s.stores.Defects.GetDefectsByUserID(ctx, userID1)
	if err != nil {
		return compatibility.Result{}, svcErr.Storage("load defects", err)
	}
	d2, err := s.stores.Defects.GetDefectsByUserID(ctx, userID2)
	if err != nil {
		return compatibility.Result{}, svcErr.Storage("load defects", err)
	}
	return compatibility.Calculate(compatibility.FromDefects(d1), compatibility.FromDefects(d2)), nil
}

func (s *Service) validateDecision(ctx context.Context, fromUserID, toUserID string) error {
	if fromUserID == "" {
		return svcErr.Unauthorized("no user selected")
	}
	if toUserID == "" {
		return svcErr.Validation("toUserId is required")
	}
	if fromUserID == toUserID {
		return svcErr.Validation("cannot like or pass yourself")
	}
	target, err := s.stores.Users.GetUser(ctx, toUserID)
	if err != nil {
		return svcErr.Storage("load target user", err)
	}
	if target == nil {
		return svcErr.NotFound("user")
	}
	return nil
}
