package profile

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/oggyb/imperfect/internal/api"
	"github.com/oggyb/imperfect/internal/app"
	"github.com/oggyb/imperfect/internal/db"
	svcErr "github.com/oggyb/imperfect/internal/errors"
	"github.com/oggyb/imperfect/internal/imaging"
	"github.com/oggyb/imperfect/internal/metrics"
	"github.com/oggyb/imperfect/internal/photocheck"
	"github.com/oggyb/imperfect/internal/repository"
	"github.com/oggyb/imperfect/internal/utils/pagination"
)

const (
	minAge = 18
	maxAge = 100

	defaultPageSize = 20
	maxPageSize     = 100

	// photoWorkers bounds how many uploads are resized and validated at once.
	photoWorkers = 4
)

// DefectInput is one self-declared defect. Photo is an optional raw image.
type DefectInput struct {
	Category    string `json:"category"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Photo       []byte `json:"photo,omitempty"`
}

// ProfileInput is everything needed to sign up. Photos are raw uploads; the
// first one that can be processed becomes the primary photo.
type ProfileInput struct {
	Name    string        `json:"name"`
	Age     int           `json:"age"`
	Bio     *string       `json:"bio,omitempty"`
	Defects []DefectInput `json:"defects"`
	Photos  [][]byte      `json:"photos"`
}

// PhotoResult reports what happened to one uploaded photo.
type PhotoResult struct {
	PhotoID  string `json:"photoId,omitempty"`
	Approved bool   `json:"approved"`
	Feedback string `json:"feedback,omitempty"`
	Score    int    `json:"score"`
	Error    string `json:"error,omitempty"`
}

// CreatedProfile is the outcome of CreateProfile.
type CreatedProfile struct {
	User              api.User      `json:"user"`
	ValidationResults []PhotoResult `json:"validationResults"`
}

type UserStore interface {
	CreateUserWithDefects(ctx context.Context, user *db.User, defects []db.Defect) error
	GetUser(ctx context.Context, id string) (*db.User, error)
	GetAllUsers(ctx context.Context) ([]db.User, error)
	ListUsers(ctx context.Context, paginationToken *string, limit int) ([]db.User, *string, error)
	ListUnvalidatedUsers(ctx context.Context) ([]db.User, error)
	MarkUserValidated(ctx context.Context, id string) error
}

type DefectStore interface {
	GetDefectsByUserID(ctx context.Context, userID string) ([]db.Defect, error)
	UpdateDefectPhoto(ctx context.Context, defectID, photoURL string) error
}

type PhotoStore interface {
	CreatePhoto(ctx context.Context, photo *db.Photo) error
	UpdatePhotoValidation(ctx context.Context, photoID string, isValidated bool, feedback *string) (*db.Photo, error)
	GetPhotosByUserID(ctx context.Context, userID string) ([]db.Photo, error)
}

// Stores groups the data sources the profile service needs.
type Stores struct {
	Users   UserStore
	Defects DefectStore
	Photos  PhotoStore
}

// Service creates and reads user profiles.
type Service struct {
	stores         Stores
	validator      photocheck.Validator
	maxUploadBytes int
	log            *slog.Logger
}

// New creates a profile service.
func New(stores Stores, validator photocheck.Validator, maxUploadBytes int, log *slog.Logger) *Service {
	if validator == nil {
		validator = photocheck.AutoApprove{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Service{stores: stores, validator: validator, maxUploadBytes: maxUploadBytes, log: log}
}

// NewService wires the gorm repositories and photo validator from AppContext.
func NewService(appCtx *app.AppContext) *Service {
	return New(Stores{
		Users:   repository.NewUserRepository(appCtx.DB),
		Defects: repository.NewDefectRepository(appCtx.DB),
		Photos:  repository.NewPhotoRepository(appCtx.DB),
	}, appCtx.Photos, appCtx.Config.Photos.MaxUploadBytes, appCtx.Logger)
}

// CreateProfile signs a new user up.
//
// Behavior:
//   - Name, age 18..100, at least one photo and one complete defect are required.
//   - Photos are resized and validated concurrently before anything is written.
//     When none of them can be processed the signup fails with a validation error.
//   - The user and their defects are written together; photos follow in upload
//     order and the first stored one is primary.
//   - A photo that cannot be processed is reported in ValidationResults and
//     does not fail the signup. The same goes for defect photos, which are
//     only logged.
//
// Example:
//
//	created, err := svc.CreateProfile(ctx, ProfileInput{Name: "Ana", Age: 29, ...})
func (s *Service) CreateProfile(ctx context.Context, in ProfileInput) (CreatedProfile, error) {
	if err := s.validateInput(&in); err != nil {
		return CreatedProfile{}, err
	}

	processed := s.processPhotos(ctx, in.Photos)
	if !anyUsable(processed) {
		return CreatedProfile{}, svcErr.Validation("none of the photos could be processed")
	}

	user := &db.User{Name: in.Name, Age: in.Age, Bio: in.Bio}
	defects := make([]db.Defect, len(in.Defects))
	for i, d := range in.Defects {
		defects[i] = db.Defect{
			Category:    d.Category,
			Title:       d.Title,
			Description: d.Description,
			Position:    i,
		}
	}
	if err := s.stores.Users.CreateUserWithDefects(ctx, user, defects); err != nil {
		return CreatedProfile{}, svcErr.Storage("create user", err)
	}

	results, err := s.storePhotos(ctx, user.ID, processed)
	if err != nil {
		return CreatedProfile{}, err
	}

	s.attachDefectPhotos(ctx, defects, in.Defects)

	s.log.Info("profile created", "user", user.ID, "defects", len(defects), "photos", len(results))
	return CreatedProfile{User: api.FromUser(*user), ValidationResults: results}, nil
}

type processedPhoto struct {
	img     imaging.Processed
	verdict photocheck.Verdict
	err     error
}

// processPhotos resizes and validates every upload with bounded concurrency.
// Failures are kept per photo.
func (s *Service) processPhotos(ctx context.Context, raws [][]byte) []processedPhoto {
	out := make([]processedPhoto, len(raws))

	var g errgroup.Group
	g.SetLimit(photoWorkers)
	for i, raw := range raws {
		i, raw := i, raw
		g.Go(func() error {
			img, err := imaging.Process(raw, imaging.ProfilePhoto)
			if err != nil {
				out[i].err = err
				return nil
			}
			out[i].img = img

			verdict, err := s.validator.Validate(ctx, img.JPEG)
			if err != nil {
				out[i].err = fmt.Errorf("validate photo: %w", err)
				return nil
			}
			out[i].verdict = verdict
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func anyUsable(processed []processedPhoto) bool {
	for _, p := range processed {
		if p.err == nil {
			return true
		}
	}
	return false
}

func (s *Service) storePhotos(ctx context.Context, userID string, processed []processedPhoto) ([]PhotoResult, error) {
	results := make([]PhotoResult, 0, len(processed))
	stored := 0
	for i, p := range processed {
		if p.err != nil {
			s.log.Warn("photo rejected before storage", "user", userID, "index", i, "err", p.err)
			metrics.PhotoVerdicts.WithLabelValues("failed").Inc()
			results = append(results, PhotoResult{Error: p.err.Error()})
			continue
		}

		photo := &db.Photo{
			UserID:    userID,
			URL:       p.img.DataURL(),
			IsPrimary: stored == 0,
			Position:  stored,
		}
		if err := s.stores.Photos.CreatePhoto(ctx, photo); err != nil {
			return nil, svcErr.Storage("create photo", err)
		}
		stored++

		feedback := p.verdict.Feedback
		if _, err := s.stores.Photos.UpdatePhotoValidation(ctx, photo.ID, p.verdict.Approved, &feedback); err != nil {
			return nil, svcErr.Storage("store photo verdict", err)
		}

		if p.verdict.Approved {
			metrics.PhotoVerdicts.WithLabelValues("approved").Inc()
		} else {
			metrics.PhotoVerdicts.WithLabelValues("rejected").Inc()
		}
		results = append(results, PhotoResult{
			PhotoID:  photo.ID,
			Approved: p.verdict.Approved,
			Feedback: feedback,
			Score:    p.verdict.Score,
		})
	}
	return results, nil
}

func (s *Service) attachDefectPhotos(ctx context.Context, stored []db.Defect, inputs []DefectInput) {
	for i, in := range inputs {
		if len(in.Photo) == 0 {
			continue
		}
		img, err := imaging.Process(in.Photo, imaging.DefectPhoto)
		if err != nil {
			s.log.Warn("defect photo skipped", "defect", stored[i].ID, "err", err)
			continue
		}
		url := img.DataURL()
		if err := s.stores.Defects.UpdateDefectPhoto(ctx, stored[i].ID, url); err != nil {
			s.log.Warn("defect photo not saved", "defect", stored[i].ID, "err", err)
			continue
		}
		stored[i].PhotoURL = &url
	}
}

func (s *Service) validateInput(in *ProfileInput) error {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return svcErr.Validation("name is required")
	}
	if in.Age < minAge || in.Age > maxAge {
		return svcErr.Validation(fmt.Sprintf("age must be between %d and %d", minAge, maxAge))
	}
	if in.Bio != nil && strings.TrimSpace(*in.Bio) == "" {
		in.Bio = nil
	}
	if len(in.Photos) == 0 {
		return svcErr.Validation("at least one photo is required")
	}
	if len(in.Defects) == 0 {
		return svcErr.Validation("at least one defect is required")
	}
	for _, d := range in.Defects {
		if d.Category == "" || strings.TrimSpace(d.Title) == "" || strings.TrimSpace(d.Description) == "" {
			return svcErr.Validation("each defect must have category, title, and description")
		}
		if !db.IsValidCategory(d.Category) {
			return svcErr.Validation(fmt.Sprintf("unknown defect category %q", d.Category))
		}
		if s.tooLarge(d.Photo) {
			return svcErr.Validation("defect photo is too large")
		}
	}
	for _, p := range in.Photos {
		if s.tooLarge(p) {
			return svcErr.Validation("photo is too large")
		}
	}
	return nil
}

func (s *Service) tooLarge(b []byte) bool {
	return s.maxUploadBytes > 0 && len(b) > s.maxUploadBytes
}

// GetProfileWithDetails returns a user with defects and photos.
func (s *Service) GetProfileWithDetails(ctx context.Context, id string) (api.Profile, error) {
	if id == "" {
		return api.Profile{}, svcErr.Validation("id is required")
	}
	user, err := s.stores.Users.GetUser(ctx, id)
	if err != nil {
		return api.Profile{}, svcErr.Storage("load user", err)
	}
	if user == nil {
		return api.Profile{}, svcErr.NotFound("profile")
	}
	defects, err := s.stores.Defects.GetDefectsByUserID(ctx, id)
	if err != nil {
		return api.Profile{}, svcErr.Storage("load defects", err)
	}
	photos, err := s.stores.Photos.GetPhotosByUserID(ctx, id)
	if err != nil {
		return api.Profile{}, svcErr.Storage("load photos", err)
	}
	return api.NewProfile(*user, defects, photos), nil
}

// ListUsers returns one page of users, newest first.
func (s *Service) ListUsers(ctx context.Context, token *string, limit int) ([]api.User, *string, error) {
	if token != nil {
		if _, err := pagination.Decode(*token); err != nil {
			return nil, nil, svcErr.Validation("invalid pagination token")
		}
	}
	switch {
	case limit <= 0:
		limit = defaultPageSize
	case limit > maxPageSize:
		limit = maxPageSize
	}

	users, next, err := s.stores.Users.ListUsers(ctx, token, limit)
	if err != nil {
		return nil, nil, svcErr.Storage("list users", err)
	}
	return toAPIUsers(users), next, nil
}

// AllUsers returns every user, oldest first.
func (s *Service) AllUsers(ctx context.Context) ([]api.User, error) {
	users, err := s.stores.Users.GetAllUsers(ctx)
	if err != nil {
		return nil, svcErr.Storage("list users", err)
	}
	return toAPIUsers(users), nil
}

// ValidatePendingUsers marks every unvalidated user as validated and returns
// the users it touched.
func (s *Service) ValidatePendingUsers(ctx context.Context) ([]api.User, error) {
	pending, err := s.stores.Users.ListUnvalidatedUsers(ctx)
	if err != nil {
		return nil, svcErr.Storage("list unvalidated users", err)
	}
	validated := make([]api.User, 0, len(pending))
	for _, u := range pending {
		if err := s.stores.Users.MarkUserValidated(ctx, u.ID); err != nil {
			return validated, svcErr.Storage("validate user", err)
		}
		u.IsValidated = true
		validated = append(validated, api.FromUser(u))
		s.log.Info("profile validated", "user", u.ID, "name", u.Name)
	}
	return validated, nil
}

func toAPIUsers(users []db.User) []api.User {
	out := make([]api.User, 0, len(users))
	for _, u := range users {
		out = append(out, api.FromUser(u))
	}
	return out
}
