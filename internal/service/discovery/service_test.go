package discovery_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/imperfect/internal/db"
	svcErr "github.com/oggyb/imperfect/internal/errors"
	"github.com/oggyb/imperfect/internal/repository"
	"github.com/oggyb/imperfect/internal/service/discovery"
	"github.com/oggyb/imperfect/internal/testutil"
)

type D = testutil.Defect
type P = testutil.Photo

func names(cards []discovery.ProfileCard) []string {
	out := make([]string, len(cards))
	for i, c := range cards {
		out[i] = c.Name
	}
	return out
}

func TestDiscover_RanksByCategoryOverlap(t *testing.T) {
	ctx := context.Background()
	appCtx, _ := testutil.NewAppContext(t)
	svc := discovery.NewService(appCtx)

	me := testutil.CreateUser(t, appCtx.DB, "me", []D{
		{Category: db.CategoryPhysical, Title: "Calvicie"},
		{Category: db.CategoryHabits, Title: "Ronquidos"},
	})
	// no shared categories: 50
	testutil.CreateUser(t, appCtx.DB, "ana", []D{{Category: db.CategoryEmotional, Title: "Celos"}})
	// shares both: 70
	testutil.CreateUser(t, appCtx.DB, "beto", []D{{Category: db.CategoryHabits, Title: "Desorden"}, {Category: db.CategoryPhysical, Title: "Acné"}})
	// shares one: 60
	testutil.CreateUser(t, appCtx.DB, "carla", []D{{Category: db.CategoryPhysical, Title: "Ojeras"}})
	// no defects: 50, ties with ana and stays after her
	testutil.CreateUser(t, appCtx.DB, "dario", nil)

	cards, err := svc.Discover(ctx, me.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"beto", "carla", "ana", "dario"}, names(cards))
	assert.Equal(t, 70, cards[0].CompatibilityScore)
	assert.Equal(t, 60, cards[1].CompatibilityScore)
	assert.Equal(t, 50, cards[2].CompatibilityScore)
	assert.Equal(t, 50, cards[3].CompatibilityScore)
	assert.Empty(t, cards[3].TopDefects)

	// same state, same answer
	again, err := svc.Discover(ctx, me.ID)
	require.NoError(t, err)
	assert.Equal(t, cards, again)
}

func TestDiscover_ExcludesSelfAndActedOn(t *testing.T) {
	ctx := context.Background()
	appCtx, _ := testutil.NewAppContext(t)
	svc := discovery.NewService(appCtx)
	likes := repository.NewLikeRepository(appCtx.DB)

	me := testutil.CreateUser(t, appCtx.DB, "me", nil)
	ana := testutil.CreateUser(t, appCtx.DB, "ana", nil)
	beto := testutil.CreateUser(t, appCtx.DB, "beto", nil)
	testutil.CreateUser(t, appCtx.DB, "carla", nil)

	_, _, err := likes.CreateLike(ctx, me.ID, ana.ID, true)
	require.NoError(t, err)
	_, _, err = likes.CreateLike(ctx, me.ID, beto.ID, false)
	require.NoError(t, err)
	// a like received does not hide the liker
	_, _, err = likes.CreateLike(ctx, beto.ID, me.ID, true)
	require.NoError(t, err)

	cards, err := svc.Discover(ctx, me.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"carla"}, names(cards))
}

func TestDiscover_CardContents(t *testing.T) {
	ctx := context.Background()
	appCtx, _ := testutil.NewAppContext(t)
	svc := discovery.NewService(appCtx)

	me := testutil.CreateUser(t, appCtx.DB, "me", nil)
	testutil.CreateUser(t, appCtx.DB, "ana",
		[]D{
			{Category: db.CategoryPhysical, Title: "Uno"},
			{Category: db.CategoryHabits, Title: "Dos"},
			{Category: db.CategoryEmotional, Title: "Tres"},
			{Category: db.CategoryPersonality, Title: "Cuatro"},
		},
		P{URL: "https://x/unvalidated-primary.jpg", Primary: true},
		P{URL: "https://x/validated.jpg", Validated: true},
		P{URL: "https://x/validated-2.jpg", Validated: true},
	)
	testutil.CreateUser(t, appCtx.DB, "beto", nil,
		P{URL: "https://x/other.jpg", Validated: true},
		P{URL: "https://x/primary.jpg", Validated: true, Primary: true},
	)
	testutil.CreateUser(t, appCtx.DB, "carla", nil, P{URL: "https://x/pending.jpg", Primary: true})

	cards, err := svc.Discover(ctx, me.ID)
	require.NoError(t, err)
	require.Len(t, cards, 3)

	ana := cards[0]
	assert.Equal(t, 4, ana.DefectCount)
	assert.Equal(t, []string{"Uno", "Dos", "Tres"}, ana.TopDefects)
	require.NotNil(t, ana.PrimaryPhoto)
	assert.Equal(t, "https://x/validated.jpg", *ana.PrimaryPhoto, "falls back to first validated photo")
	assert.Equal(t, 30, ana.Age)

	require.NotNil(t, cards[1].PrimaryPhoto)
	assert.Equal(t, "https://x/primary.jpg", *cards[1].PrimaryPhoto)

	assert.Nil(t, cards[2].PrimaryPhoto, "unvalidated photos are never shown")
}

func TestDiscover_PageSize(t *testing.T) {
	ctx := context.Background()
	appCtx, _ := testutil.NewAppContext(t)
	appCtx.Config.Discovery.PageSize = 2
	svc := discovery.NewService(appCtx)

	me := testutil.CreateUser(t, appCtx.DB, "me", nil)
	for _, n := range []string{"a", "b", "c"} {
		testutil.CreateUser(t, appCtx.DB, n, nil)
	}

	cards, err := svc.Discover(ctx, me.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, names(cards))
}

func TestDiscover_EmptyCases(t *testing.T) {
	ctx := context.Background()
	appCtx, _ := testutil.NewAppContext(t)
	svc := discovery.NewService(appCtx)

	cards, err := svc.Discover(ctx, "")
	require.NoError(t, err)
	assert.NotNil(t, cards)
	assert.Empty(t, cards)

	cards, err = svc.Discover(ctx, "deleted-user")
	require.NoError(t, err)
	assert.Empty(t, cards)

	// alone in the system
	me := testutil.CreateUser(t, appCtx.DB, "me", nil)
	cards, err = svc.Discover(ctx, me.ID)
	require.NoError(t, err)
	assert.Empty(t, cards)
}

type brokenLikes struct{}

func (brokenLikes) ActedOnIDs(context.Context, string) ([]string, error) {
	return nil, errors.New("connection reset")
}

func TestDiscover_StorageFailure(t *testing.T) {
	appCtx, _ := testutil.NewAppContext(t)
	me := testutil.CreateUser(t, appCtx.DB, "me", nil)

	svc := discovery.New(discovery.Stores{
		Users:   repository.NewUserRepository(appCtx.DB),
		Likes:   brokenLikes{},
		Defects: repository.NewDefectRepository(appCtx.DB),
		Photos:  repository.NewPhotoRepository(appCtx.DB),
	}, 20, appCtx.Logger)

	_, err := svc.Discover(context.Background(), me.ID)
	assert.ErrorIs(t, err, svcErr.ErrTransientStorage)
}
