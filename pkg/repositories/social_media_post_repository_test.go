package repositories_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CleytonSalvego/gestao-lead-app-sub000/pkg/models"
	"github.com/CleytonSalvego/gestao-lead-app-sub000/pkg/repositories"
)

func testPost(id string, likes int64) models.SocialMediaPost {
	content := "Spring campaign is live"
	clicks := int64(7)
	return models.SocialMediaPost{
		ID:        id,
		PageID:    "pg1",
		Platform:  models.PlatformInstagram,
		PostID:    "ig-" + id,
		Type:      models.PostTypePost,
		Content:   &content,
		MediaURLs: []string{"https://cdn.example.com/1.jpg"},
		Hashtags:  []string{"spring", "sale"},
		Metrics: models.PostMetrics{
			Likes:       likes,
			Comments:    3,
			Shares:      1,
			Reach:       400,
			Impressions: 900,
			Engagement:  4.5,
			Clicks:      &clicks,
		},
		PublishedAt: time.Date(2024, 2, 20, 9, 0, 0, 0, time.UTC),
		IsActive:    true,
	}
}

func TestSocialMediaPostRepository_UpsertOverwritesAndKeepsCreatedAt(t *testing.T) {
	for _, mode := range backends {
		t.Run(string(mode), func(t *testing.T) {
			ctx := context.Background()
			clk := newClock()
			repo := repositories.NewSocialMediaPostRepository(newStore(t, mode), getTestLogger())
			repo.SetClock(clk.Now)

			first, err := repo.Upsert(ctx, testPost("p1", 10))
			require.NoError(t, err)
			originalCreated := first.CreatedAt

			clk.Advance(time.Hour)
			second, err := repo.Upsert(ctx, testPost("p1", 25))
			require.NoError(t, err)
			assert.Equal(t, originalCreated, second.CreatedAt)

			posts, err := repo.List(ctx, models.SocialMediaPostFilter{PageID: "pg1"})
			require.NoError(t, err)
			require.Len(t, posts, 1)
			assert.Equal(t, int64(25), posts[0].Metrics.Likes)
			assert.Equal(t, originalCreated, posts[0].CreatedAt)
			assert.Equal(t, clk.Now(), posts[0].UpdatedAt)
		})
	}
}

func TestSocialMediaPostRepository_UpsertIsIdempotent(t *testing.T) {
	for _, mode := range backends {
		t.Run(string(mode), func(t *testing.T) {
			ctx := context.Background()
			clk := newClock()
			repo := repositories.NewSocialMediaPostRepository(newStore(t, mode), getTestLogger())
			repo.SetClock(clk.Now)

			post := testPost("p1", 10)
			_, err := repo.Upsert(ctx, post)
			require.NoError(t, err)
			before, err := repo.GetByID(ctx, "p1")
			require.NoError(t, err)

			clk.Advance(time.Second)
			_, err = repo.Upsert(ctx, post)
			require.NoError(t, err)
			after, err := repo.GetByID(ctx, "p1")
			require.NoError(t, err)

			assert.Equal(t, before.CreatedAt, after.CreatedAt)
			assert.False(t, after.UpdatedAt.Before(before.UpdatedAt))

			after.UpdatedAt = before.UpdatedAt
			assert.Equal(t, *before, *after)

			posts, err := repo.List(ctx, models.SocialMediaPostFilter{})
			require.NoError(t, err)
			assert.Len(t, posts, 1)
		})
	}
}

func TestSocialMediaPostRepository_UpsertClearsOmittedFields(t *testing.T) {
	for _, mode := range backends {
		t.Run(string(mode), func(t *testing.T) {
			ctx := context.Background()
			repo := repositories.NewSocialMediaPostRepository(newStore(t, mode), getTestLogger())

			_, err := repo.Upsert(ctx, testPost("p1", 10))
			require.NoError(t, err)

			replacement := testPost("p1", 10)
			replacement.Content = nil
			replacement.Hashtags = nil
			_, err = repo.Upsert(ctx, replacement)
			require.NoError(t, err)

			got, err := repo.GetByID(ctx, "p1")
			require.NoError(t, err)
			assert.Nil(t, got.Content)
			assert.Nil(t, got.Hashtags)
			assert.Equal(t, []string{"https://cdn.example.com/1.jpg"}, got.MediaURLs)
		})
	}
}

func TestSocialMediaPostRepository_RoundTrip(t *testing.T) {
	for _, mode := range backends {
		t.Run(string(mode), func(t *testing.T) {
			ctx := context.Background()
			clk := newClock()
			repo := repositories.NewSocialMediaPostRepository(newStore(t, mode), getTestLogger())
			repo.SetClock(clk.Now)

			input := testPost("p1", 10)
			_, err := repo.Create(ctx, input)
			require.NoError(t, err)

			posts, err := repo.List(ctx, models.SocialMediaPostFilter{})
			require.NoError(t, err)
			require.Len(t, posts, 1)

			expected := input
			expected.CreatedAt = clk.Now()
			expected.UpdatedAt = clk.Now()
			assert.Equal(t, expected, posts[0])
		})
	}
}

func TestSocialMediaPostRepository_DefaultsPublishedAt(t *testing.T) {
	ctx := context.Background()
	clk := newClock()
	repo := repositories.NewSocialMediaPostRepository(newStore(t, backends[0]), getTestLogger())
	repo.SetClock(clk.Now)

	post := testPost("p1", 1)
	post.PublishedAt = time.Time{}
	created, err := repo.Create(ctx, post)
	require.NoError(t, err)
	assert.Equal(t, clk.Now(), created.PublishedAt)
}

func TestSocialMediaPostRepository_ListFilters(t *testing.T) {
	for _, mode := range backends {
		t.Run(string(mode), func(t *testing.T) {
			ctx := context.Background()
			clk := newClock()
			repo := repositories.NewSocialMediaPostRepository(newStore(t, mode), getTestLogger())
			repo.SetClock(clk.Now)

			a := testPost("a", 1)
			b := testPost("b", 2)
			b.PageID = "pg2"
			b.Type = models.PostTypeReel
			c := testPost("c", 3)
			c.Platform = models.PlatformFacebook
			c.IsActive = false
			for _, p := range []models.SocialMediaPost{a, b, c} {
				_, err := repo.Create(ctx, p)
				require.NoError(t, err)
				clk.Advance(time.Second)
			}

			tests := []struct {
				name     string
				filter   models.SocialMediaPostFilter
				expected []string
			}{
				{name: "no filter", filter: models.SocialMediaPostFilter{}, expected: []string{"c", "b", "a"}},
				{name: "page", filter: models.SocialMediaPostFilter{PageID: "pg1"}, expected: []string{"c", "a"}},
				{name: "platform", filter: models.SocialMediaPostFilter{Platform: models.PlatformFacebook}, expected: []string{"c"}},
				{name: "type", filter: models.SocialMediaPostFilter{Type: models.PostTypeReel}, expected: []string{"b"}},
				{name: "inactive", filter: models.SocialMediaPostFilter{Active: boolPtr(false)}, expected: []string{"c"}},
				{name: "active on page", filter: models.SocialMediaPostFilter{PageID: "pg1", Active: boolPtr(true)}, expected: []string{"a"}},
			}
			for _, tt := range tests {
				t.Run(tt.name, func(t *testing.T) {
					posts, err := repo.List(ctx, tt.filter)
					require.NoError(t, err)
					ids := make([]string, 0, len(posts))
					for _, p := range posts {
						ids = append(ids, p.ID)
					}
					assert.Equal(t, tt.expected, ids)
				})
			}
		})
	}
}

func TestSocialMediaPostRepository_UpdateMetrics(t *testing.T) {
	for _, mode := range backends {
		t.Run(string(mode), func(t *testing.T) {
			ctx := context.Background()
			repo := repositories.NewSocialMediaPostRepository(newStore(t, mode), getTestLogger())

			_, err := repo.Create(ctx, testPost("p1", 10))
			require.NoError(t, err)

			metrics := models.PostMetrics{Likes: 99, Reach: 1000}
			inactive := false
			require.NoError(t, repo.Update(ctx, "p1", models.SocialMediaPostPatch{
				Metrics:  &metrics,
				IsActive: &inactive,
			}))

			got, err := repo.GetByID(ctx, "p1")
			require.NoError(t, err)
			assert.Equal(t, metrics, got.Metrics)
			assert.False(t, got.IsActive)
			assert.Equal(t, []string{"spring", "sale"}, got.Hashtags)
		})
	}
}

func boolPtr(b bool) *bool {
	return &b
}
