package discovery

import (
	"context"
	"log/slog"
	"sort"

	"github.com/oggyb/imperfect/internal/app"
	"github.com/oggyb/imperfect/internal/compatibility"
	"github.com/oggyb/imperfect/internal/db"
	svcErr "github.com/oggyb/imperfect/internal/errors"
	"github.com/oggyb/imperfect/internal/metrics"
	"github.com/oggyb/imperfect/internal/repository"
)

// topDefectCount is how many defect titles a card previews.
const topDefectCount = 3

// ProfileCard is the compact view of a candidate shown while browsing.
type ProfileCard struct {
	ID                 string   `json:"id"`
	Name               string   `json:"name"`
	Age                int      `json:"age"`
	PrimaryPhoto       *string  `json:"primaryPhoto"`
	DefectCount        int      `json:"defectCount"`
	TopDefects         []string `json:"topDefects"`
	CompatibilityScore int      `json:"compatibilityScore"`
}

type UserStore interface {
	GetUser(ctx context.Context, id string) (*db.User, error)
	ListCandidates(ctx context.Context, currentUserID string, exclude []string, limit int) ([]db.User, error)
}

type LikeStore interface {
	ActedOnIDs(ctx context.Context, fromUserID string) ([]string, error)
}

type DefectStore interface {
	GetDefectsByUserID(ctx context.Context, userID string) ([]db.Defect, error)
	GetDefectsByUserIDs(ctx context.Context, userIDs []string) ([]db.Defect, error)
}

type PhotoStore interface {
	GetPhotosByUserIDs(ctx context.Context, userIDs []string) ([]db.Photo, error)
}

// Stores groups the data sources discovery reads from.
type Stores struct {
	Users   UserStore
	Likes   LikeStore
	Defects DefectStore
	Photos  PhotoStore
}

// Service builds the ranked list of profiles a user has not acted on yet.
type Service struct {
	stores   Stores
	pageSize int
	log      *slog.Logger
}

// New creates a discovery service over the given stores.
func New(stores Stores, pageSize int, log *slog.Logger) *Service {
	if pageSize <= 0 {
		pageSize = 20
	}
	if log == nil {
		log = slog.Default()
	}
	return &Service{stores: stores, pageSize: pageSize, log: log}
}

// NewService wires the gorm repositories from AppContext.
func NewService(appCtx *app.AppContext) *Service {
	return New(Stores{
		Users:   repository.NewUserRepository(appCtx.DB),
		Likes:   repository.NewLikeRepository(appCtx.DB),
		Defects: repository.NewDefectRepository(appCtx.DB),
		Photos:  repository.NewPhotoRepository(appCtx.DB),
	}, appCtx.Config.Discovery.PageSize, appCtx.Logger)
}

// Discover returns up to one page of candidates for currentUserID, best
// compatibility first.
//
// Behavior:
//   - No current user, or one that no longer exists, yields an empty list.
//   - Excludes the user and everyone they already liked or passed.
//   - Defects and photos for the whole batch are loaded with one query each.
//   - Candidates with equal scores keep storage order.
//
// Example:
//
//	cards, err := svc.Discover(ctx, session.UserID(ctx))
func (s *Service) Discover(ctx context.Context, currentUserID string) ([]ProfileCard, error) {
	cards := []ProfileCard{}
	if currentUserID == "" {
		return cards, nil
	}

	current, err := s.stores.Users.GetUser(ctx, currentUserID)
	if err != nil {
		return nil, svcErr.Storage("load current user", err)
	}
	if current == nil {
		s.log.Debug("Discover for missing user", "user", currentUserID)
		return cards, nil
	}

	acted, err := s.stores.Likes.ActedOnIDs(ctx, currentUserID)
	if err != nil {
		return nil, svcErr.Storage("load decisions", err)
	}

	candidates, err := s.stores.Users.ListCandidates(ctx, currentUserID, acted, s.pageSize)
	if err != nil {
		return nil, svcErr.Storage("list candidates", err)
	}
	if len(candidates) == 0 {
		metrics.DiscoveryCandidates.Observe(0)
		return cards, nil
	}

	ids := make([]string, len(candidates))
	for i, c := range candidates {
		ids[i] = c.ID
	}

	defects, err := s.stores.Defects.GetDefectsByUserIDs(ctx, ids)
	if err != nil {
		return nil, svcErr.Storage("load candidate defects", err)
	}
	photos, err := s.stores.Photos.GetPhotosByUserIDs(ctx, ids)
	if err != nil {
		return nil, svcErr.Storage("load candidate photos", err)
	}
	own, err := s.stores.Defects.GetDefectsByUserID(ctx, currentUserID)
	if err != nil {
		return nil, svcErr.Storage("load own defects", err)
	}
	ownTraits := compatibility.FromDefects(own)

	defectsByUser := make(map[string][]db.Defect, len(candidates))
	for _, d := range defects {
		defectsByUser[d.UserID] = append(defectsByUser[d.UserID], d)
	}
	photosByUser := make(map[string][]db.Photo, len(candidates))
	for _, p := range photos {
		photosByUser[p.UserID] = append(photosByUser[p.UserID], p)
	}

	for _, c := range candidates {
		userDefects := defectsByUser[c.ID]
		cards = append(cards, ProfileCard{
			ID:                 c.ID,
			Name:               c.Name,
			Age:                c.Age,
			PrimaryPhoto:       primaryPhoto(photosByUser[c.ID]),
			DefectCount:        len(userDefects),
			TopDefects:         topDefects(userDefects),
			CompatibilityScore: compatibility.Quick(ownTraits, compatibility.FromDefects(userDefects)),
		})
	}

	sort.SliceStable(cards, func(i, j int) bool {
		return cards[i].CompatibilityScore > cards[j].CompatibilityScore
	})

	metrics.DiscoveryCandidates.Observe(float64(len(cards)))
	s.log.Debug("Discover result", "user", currentUserID, "excluded", len(acted), "cards", len(cards))
	return cards, nil
}

// primaryPhoto picks the validated primary photo, else the first validated one.
func primaryPhoto(photos []db.Photo) *string {
	for _, p := range photos {
		if p.IsValidated && p.IsPrimary {
			url := p.URL
			return &url
		}
	}
	for _, p := range photos {
		if p.IsValidated {
			url := p.URL
			return &url
		}
	}
	return nil
}

func topDefects(defects []db.Defect) []string {
	n := min(len(defects), topDefectCount)
	titles := make([]string, 0, n)
	for _, d := range defects[:n] {
		titles = append(titles, d.Title)
	}
	return titles
}
