package matching_test

import (
	"context"
	"errors"
	"testing"

	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/oggyb/imperfect/internal/db"
	svcErr "github.com/oggyb/imperfect/internal/errors"
	"github.com/oggyb/imperfect/internal/metrics"
	"github.com/oggyb/imperfect/internal/repository"
	"github.com/oggyb/imperfect/internal/service/matching"
	"github.com/oggyb/imperfect/internal/testutil"
)

type D = testutil.Defect

type fixture struct {
	svc   *matching.Service
	gdb   *gorm.DB
	ana   db.User
	beto  db.User
	carla db.User
}

func setup(t *testing.T) fixture {
	t.Helper()
	appCtx, _ := testutil.NewAppContext(t)

	return fixture{
		svc: matching.NewService(appCtx),
		gdb: appCtx.DB,
		ana: testutil.CreateUser(t, appCtx.DB, "ana", []D{
			{Category: db.CategoryPhysical, Title: "Calvicie avanzada"},
			{Category: db.CategoryHabits, Title: "Ronquidos fuertes"},
		}),
		beto: testutil.CreateUser(t, appCtx.DB, "beto", []D{
			{Category: db.CategoryPhysical, Title: "Calvicie prematura"},
		}),
		carla: testutil.CreateUser(t, appCtx.DB, "carla", nil),
	}
}

func (f fixture) matchCount(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.gdb.Model(&db.Match{}).Count(&n).Error)
	return n
}

func TestRecordLike_MutualLikeCreatesOneMatch(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	createdBefore := promtest.ToFloat64(metrics.MatchesCreated)

	res, err := f.svc.RecordLike(ctx, f.ana.ID, f.beto.ID)
	require.NoError(t, err)
	assert.False(t, res.IsMatch)
	assert.Empty(t, res.MatchID)
	assert.Equal(t, int64(0), f.matchCount(t))

	res, err = f.svc.RecordLike(ctx, f.beto.ID, f.ana.ID)
	require.NoError(t, err)
	require.True(t, res.IsMatch)
	require.NotEmpty(t, res.MatchID)
	assert.Equal(t, createdBefore+1, promtest.ToFloat64(metrics.MatchesCreated))

	var m db.Match
	require.NoError(t, f.gdb.Where("id = ?", res.MatchID).Take(&m).Error)
	// beto's single defect overlaps one of ana's two
	assert.Equal(t, 50, m.CompatibilityScore)
	assert.Equal(t, []string{"Calvicie prematura"}, []string(m.SharedDefects))

	// repeating the like from either side reuses the match
	again, err := f.svc.RecordLike(ctx, f.ana.ID, f.beto.ID)
	require.NoError(t, err)
	assert.True(t, again.IsMatch)
	assert.Equal(t, res.MatchID, again.MatchID)

	again, err = f.svc.RecordLike(ctx, f.beto.ID, f.ana.ID)
	require.NoError(t, err)
	assert.Equal(t, res.MatchID, again.MatchID)

	assert.Equal(t, int64(1), f.matchCount(t))
	assert.Equal(t, createdBefore+1, promtest.ToFloat64(metrics.MatchesCreated))
}

func TestRecordPass_NeverMatches(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	_, err := f.svc.RecordLike(ctx, f.ana.ID, f.beto.ID)
	require.NoError(t, err)
	require.NoError(t, f.svc.RecordPass(ctx, f.beto.ID, f.ana.ID))

	assert.Equal(t, int64(0), f.matchCount(t))
}

func TestRecordLike_AfterPassIsIgnored(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	require.NoError(t, f.svc.RecordPass(ctx, f.beto.ID, f.ana.ID))
	_, err := f.svc.RecordLike(ctx, f.ana.ID, f.beto.ID)
	require.NoError(t, err)

	// beto already passed on ana, so this like does not count
	res, err := f.svc.RecordLike(ctx, f.beto.ID, f.ana.ID)
	require.NoError(t, err)
	assert.False(t, res.IsMatch)
	assert.Equal(t, int64(0), f.matchCount(t))

	liked, err := repository.NewLikeRepository(f.gdb).HasLiked(ctx, f.beto.ID, f.ana.ID)
	require.NoError(t, err)
	assert.False(t, liked)
}

func TestDecisionValidation(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	tests := []struct {
		name     string
		from, to string
		want     error
	}{
		{"no current user", "", f.beto.ID, svcErr.ErrAuthorization},
		{"missing target", f.ana.ID, "", svcErr.ErrValidation},
		{"self", f.ana.ID, f.ana.ID, svcErr.ErrValidation},
		{"unknown target", f.ana.ID, "ghost", svcErr.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.RecordLike(ctx, tt.from, tt.to)
			assert.ErrorIs(t, err, tt.want)

			err = f.svc.RecordPass(ctx, tt.from, tt.to)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	var likes int64
	require.NoError(t, f.gdb.Model(&db.Like{}).Count(&likes).Error)
	assert.Zero(t, likes, "rejected decisions are not stored")
}

func TestMatches(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	for _, pair := range [][2]string{
		{f.ana.ID, f.beto.ID}, {f.beto.ID, f.ana.ID},
		{f.carla.ID, f.ana.ID}, {f.ana.ID, f.carla.ID},
	} {
		_, err := f.svc.RecordLike(ctx, pair[0], pair[1])
		require.NoError(t, err)
	}

	forAna, err := f.svc.Matches(ctx, f.ana.ID)
	require.NoError(t, err)
	require.Len(t, forAna, 2)

	byName := map[string]matching.MatchWithProfile{}
	for _, m := range forAna {
		byName[m.OtherUser.Name] = m
	}
	require.Contains(t, byName, "beto")
	require.Contains(t, byName, "carla")
	assert.Len(t, byName["beto"].OtherUserDefects, 1)
	assert.Equal(t, "Calvicie prematura", byName["beto"].OtherUserDefects[0].Title)
	assert.NotNil(t, byName["carla"].SharedDefects)
	assert.Empty(t, byName["carla"].SharedDefects)
	assert.Equal(t, 0, byName["carla"].CompatibilityScore)

	forBeto, err := f.svc.Matches(ctx, f.beto.ID)
	require.NoError(t, err)
	require.Len(t, forBeto, 1)
	assert.Equal(t, "ana", forBeto[0].OtherUser.Name)
	assert.Len(t, forBeto[0].OtherUserDefects, 2)

	// a vanished counterpart drops out of the list
	require.NoError(t, f.gdb.Delete(&db.User{ID: f.carla.ID}).Error)
	forAna, err = f.svc.Matches(ctx, f.ana.ID)
	require.NoError(t, err)
	require.Len(t, forAna, 1)
	assert.Equal(t, "beto", forAna[0].OtherUser.Name)

	none, err := f.svc.Matches(ctx, "")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestCompatibility(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	res, err := f.svc.Compatibility(ctx, f.ana.ID, f.beto.ID)
	require.NoError(t, err)
	// ana has two defects, one shared
	assert.Equal(t, 50, res.Score)
	assert.Equal(t, []string{"Calvicie avanzada"}, res.SharedDefects)

	res, err = f.svc.Compatibility(ctx, f.ana.ID, f.carla.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Score)
	assert.Empty(t, res.SharedDefects)
}

type brokenMatches struct{}

func (brokenMatches) CreateMatch(context.Context, string, string, int, []string) (*db.Match, bool, error) {
	return nil, false, errors.New("deadlock found")
}

func (brokenMatches) GetMatchesByUserID(context.Context, string) ([]db.Match, error) {
	return nil, errors.New("deadlock found")
}

func TestStorageFailures(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	svc := matching.New(matching.Stores{
		Users:   repository.NewUserRepository(f.gdb),
		Likes:   repository.NewLikeRepository(f.gdb),
		Matches: brokenMatches{},
		Defects: repository.NewDefectRepository(f.gdb),
		Photos:  repository.NewPhotoRepository(f.gdb),
	}, nil)

	_, err := svc.RecordLike(ctx, f.ana.ID, f.beto.ID)
	require.NoError(t, err)
	_, err = svc.RecordLike(ctx, f.beto.ID, f.ana.ID)
	assert.ErrorIs(t, err, svcErr.ErrTransientStorage)

	_, err = svc.Matches(ctx, f.ana.ID)
	assert.ErrorIs(t, err, svcErr.ErrTransientStorage)
}
