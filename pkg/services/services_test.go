package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CleytonSalvego/gestao-lead-app-sub000/pkg/models"
	"github.com/CleytonSalvego/gestao-lead-app-sub000/pkg/repositories"
	"github.com/CleytonSalvego/gestao-lead-app-sub000/pkg/services"
	"github.com/CleytonSalvego/gestao-lead-app-sub000/pkg/storage"
)

func getTestLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

type fixture struct {
	store        *storage.Store
	integrations *repositories.IntegrationRepository
	pages        *repositories.SocialMediaPageRepository
	posts        *repositories.SocialMediaPostRepository
	campaigns    *repositories.SocialMediaCampaignRepository
	social       *services.SocialMediaService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := storage.New(storage.Options{ReadyTimeout: time.Second}, nil, getTestLogger())
	t.Cleanup(func() { _ = store.Close() })
	require.Equal(t, storage.ModeFallback, store.Initialize(context.Background()))

	f := &fixture{
		store:        store,
		integrations: repositories.NewIntegrationRepository(store, getTestLogger()),
		pages:        repositories.NewSocialMediaPageRepository(store, getTestLogger()),
		posts:        repositories.NewSocialMediaPostRepository(store, getTestLogger()),
		campaigns:    repositories.NewSocialMediaCampaignRepository(store, getTestLogger()),
	}
	f.social = services.NewSocialMediaService(store, f.pages, f.posts, f.campaigns, getTestLogger())
	return f
}

func TestSocialMediaService_GetStatsEmptyStore(t *testing.T) {
	f := newFixture(t)

	stats := f.social.GetStats(context.Background())
	assert.Equal(t, models.NewSocialMediaStats(), stats)
	assert.NotNil(t, stats.PlatformBreakdown)
	assert.Empty(t, stats.PlatformBreakdown)
}

func TestSocialMediaService_GetStatsBeforeInitialization(t *testing.T) {
	store := storage.New(storage.Options{}, nil, getTestLogger())
	t.Cleanup(func() { _ = store.Close() })

	social := services.NewSocialMediaService(store,
		repositories.NewSocialMediaPageRepository(store, getTestLogger()),
		repositories.NewSocialMediaPostRepository(store, getTestLogger()),
		repositories.NewSocialMediaCampaignRepository(store, getTestLogger()),
		getTestLogger())

	stats := social.GetStats(context.Background())
	assert.Equal(t, models.NewSocialMediaStats(), stats)
	assert.False(t, store.Ready(), "stats must not force initialization")
}

func TestSocialMediaService_GetStatsAfterClose(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.store.Close())

	assert.Equal(t, models.NewSocialMediaStats(), f.social.GetStats(context.Background()))
}

func TestSocialMediaService_GetStatsAggregates(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	for _, page := range []models.SocialMediaPage{
		{ID: "fb", IntegrationID: "i1", Platform: models.PlatformFacebook, PageID: "1", PageName: "FB", IsConnected: true, Followers: 100},
		{ID: "ig", IntegrationID: "i1", Platform: models.PlatformInstagram, PageID: "2", PageName: "IG", IsConnected: false, Followers: 50},
	} {
		_, err := f.pages.Create(ctx, page)
		require.NoError(t, err)
	}

	for _, post := range []models.SocialMediaPost{
		{ID: "p1", PageID: "fb", Platform: models.PlatformFacebook, PostID: "a", Type: models.PostTypePost, IsActive: true,
			Metrics: models.PostMetrics{Likes: 10, Comments: 2, Shares: 1, Reach: 100, Impressions: 200, Engagement: 2}},
		{ID: "p2", PageID: "fb", Platform: models.PlatformFacebook, PostID: "b", Type: models.PostTypeReel, IsActive: false,
			Metrics: models.PostMetrics{Likes: 5, Comments: 1, Shares: 0, Reach: 50, Impressions: 80, Engagement: 4}},
		{ID: "p3", PageID: "ig", Platform: models.PlatformInstagram, PostID: "c", Type: models.PostTypeStory, IsActive: true,
			Metrics: models.PostMetrics{Likes: 1, Reach: 10, Impressions: 20, Engagement: 6}},
	} {
		_, err := f.posts.Create(ctx, post)
		require.NoError(t, err)
	}

	for _, campaign := range []models.SocialMediaCampaign{
		{ID: "c1", IntegrationID: "i1", Platform: models.PlatformFacebook, CampaignID: "x", Name: "X", Status: models.CampaignStatusActive,
			Metrics: models.CampaignMetrics{Spend: 12.5, Conversions: 3}},
		{ID: "c2", IntegrationID: "i1", Platform: models.PlatformInstagram, CampaignID: "y", Name: "Y", Status: models.CampaignStatusPaused,
			Metrics: models.CampaignMetrics{Spend: 7.5, Conversions: 1}},
	} {
		_, err := f.campaigns.Create(ctx, campaign)
		require.NoError(t, err)
	}

	stats := f.social.GetStats(ctx)
	assert.Equal(t, int64(2), stats.TotalPages)
	assert.Equal(t, int64(1), stats.ConnectedPages)
	assert.Equal(t, int64(150), stats.TotalFollowers)
	assert.Equal(t, int64(3), stats.TotalPosts)
	assert.Equal(t, int64(2), stats.ActivePosts)
	assert.Equal(t, int64(16), stats.TotalLikes)
	assert.Equal(t, int64(3), stats.TotalComments)
	assert.Equal(t, int64(1), stats.TotalShares)
	assert.Equal(t, int64(160), stats.TotalReach)
	assert.Equal(t, int64(300), stats.TotalImpressions)
	assert.InDelta(t, 12.0, stats.TotalEngagement, 1e-9)
	assert.InDelta(t, 4.0, stats.AverageEngagement, 1e-9)
	assert.Equal(t, int64(2), stats.TotalCampaigns)
	assert.Equal(t, int64(1), stats.ActiveCampaigns)
	assert.InDelta(t, 20.0, stats.TotalSpend, 1e-9)
	assert.Equal(t, int64(4), stats.TotalConversions)

	assert.Equal(t, map[models.Platform]models.PlatformStats{
		models.PlatformFacebook:  {Pages: 1, Posts: 2, Followers: 100, Engagement: 6},
		models.PlatformInstagram: {Pages: 1, Posts: 1, Followers: 50, Engagement: 6},
	}, stats.PlatformBreakdown)
}

func TestSocialMediaService_GetConnectedPages(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	for _, page := range []models.SocialMediaPage{
		{ID: "a", IntegrationID: "i1", Platform: models.PlatformFacebook, PageID: "1", PageName: "A", IsConnected: true},
		{ID: "b", IntegrationID: "i1", Platform: models.PlatformTwitter, PageID: "2", PageName: "B"},
	} {
		_, err := f.pages.Create(ctx, page)
		require.NoError(t, err)
	}

	pages, err := f.social.GetConnectedPages(ctx)
	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Equal(t, "a", pages[0].ID)
}

func TestSocialMediaService_FilterPosts(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	for i, likes := range []int64{5, 30, 12} {
		_, err := f.posts.Create(ctx, models.SocialMediaPost{
			ID:       string(rune('a' + i)),
			PageID:   "pg1",
			Platform: models.PlatformFacebook,
			PostID:   "x",
			Type:     models.PostTypePost,
			Metrics:  models.PostMetrics{Likes: likes},
		})
		require.NoError(t, err)
	}

	posts, err := f.social.FilterPosts(ctx, models.SocialMediaFilter{SortBy: models.SortByLikes})
	require.NoError(t, err)
	require.Len(t, posts, 3)
	assert.Equal(t, []int64{30, 12, 5}, []int64{posts[0].Metrics.Likes, posts[1].Metrics.Likes, posts[2].Metrics.Likes})
}
