package services

import (
	"context"

	"github.com/Gobusters/ectolinq"
	"github.com/Gobusters/ectologger"

	"github.com/CleytonSalvego/gestao-lead-app-sub000/pkg/models"
	"github.com/CleytonSalvego/gestao-lead-app-sub000/pkg/tracing"
)

type PageRepository interface {
	List(ctx context.Context, filter models.SocialMediaPageFilter) ([]models.SocialMediaPage, error)
}

type PostRepository interface {
	List(ctx context.Context, filter models.SocialMediaPostFilter) ([]models.SocialMediaPost, error)
}

type CampaignRepository interface {
	List(ctx context.Context, filter models.SocialMediaCampaignFilter) ([]models.SocialMediaCampaign, error)
}

// Readiness reports whether storage finished initializing
type Readiness interface {
	Ready() bool
}

// SocialMediaService derives read models from the stored pages, posts and
// campaigns
type SocialMediaService struct {
	logger    ectologger.Logger
	readiness Readiness
	pages     PageRepository
	posts     PostRepository
	campaigns CampaignRepository
}

func NewSocialMediaService(readiness Readiness, pages PageRepository, posts PostRepository, campaigns CampaignRepository, logger ectologger.Logger) *SocialMediaService {
	return &SocialMediaService{
		logger:    logger,
		readiness: readiness,
		pages:     pages,
		posts:     posts,
		campaigns: campaigns,
	}
}

// GetStats aggregates counts and metric sums over everything stored. It
// returns the zero aggregate when storage is not ready or cannot be read.
func (s *SocialMediaService) GetStats(ctx context.Context) models.SocialMediaStats {
	ctx, span := tracing.StartSpan(ctx, "SocialMediaService.GetStats")
	defer span.End()

	stats := models.NewSocialMediaStats()
	if s.readiness != nil && !s.readiness.Ready() {
		s.logger.WithContext(ctx).Debug("storage not ready, returning empty stats")
		return stats
	}

	pages, err := s.pages.List(ctx, models.SocialMediaPageFilter{})
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).Warn("failed to load pages for stats")
		return models.NewSocialMediaStats()
	}
	posts, err := s.posts.List(ctx, models.SocialMediaPostFilter{})
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).Warn("failed to load posts for stats")
		return models.NewSocialMediaStats()
	}
	campaigns, err := s.campaigns.List(ctx, models.SocialMediaCampaignFilter{})
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).Warn("failed to load campaigns for stats")
		return models.NewSocialMediaStats()
	}

	for _, page := range pages {
		stats.TotalPages++
		stats.TotalFollowers += page.Followers
		if page.IsConnected {
			stats.ConnectedPages++
		}

		breakdown := stats.PlatformBreakdown[page.Platform]
		breakdown.Pages++
		breakdown.Followers += page.Followers
		stats.PlatformBreakdown[page.Platform] = breakdown
	}

	for _, post := range posts {
		stats.TotalPosts++
		if post.IsActive {
			stats.ActivePosts++
		}
		stats.TotalLikes += post.Metrics.Likes
		stats.TotalComments += post.Metrics.Comments
		stats.TotalShares += post.Metrics.Shares
		stats.TotalReach += post.Metrics.Reach
		stats.TotalImpressions += post.Metrics.Impressions
		stats.TotalEngagement += post.Metrics.Engagement

		breakdown := stats.PlatformBreakdown[post.Platform]
		breakdown.Posts++
		breakdown.Engagement += post.Metrics.Engagement
		stats.PlatformBreakdown[post.Platform] = breakdown
	}
	if stats.TotalPosts > 0 {
		stats.AverageEngagement = stats.TotalEngagement / float64(stats.TotalPosts)
	}

	for _, campaign := range campaigns {
		stats.TotalCampaigns++
		if campaign.Status == models.CampaignStatusActive {
			stats.ActiveCampaigns++
		}
		stats.TotalSpend += campaign.Metrics.Spend
		stats.TotalConversions += campaign.Metrics.Conversions
	}

	return stats
}

// GetConnectedPages returns the pages currently connected
func (s *SocialMediaService) GetConnectedPages(ctx context.Context) ([]models.SocialMediaPage, error) {
	ctx, span := tracing.StartSpan(ctx, "SocialMediaService.GetConnectedPages")
	defer span.End()

	pages, err := s.pages.List(ctx, models.SocialMediaPageFilter{})
	if err != nil {
		tracing.RecordError(span, err)
		return nil, err
	}

	return ectolinq.Filter(pages, func(page models.SocialMediaPage) bool {
		return page.IsConnected
	}), nil
}

// FilterPosts loads every post and applies filter to them
func (s *SocialMediaService) FilterPosts(ctx context.Context, filter models.SocialMediaFilter) ([]models.SocialMediaPost, error) {
	ctx, span := tracing.StartSpan(ctx, "SocialMediaService.FilterPosts")
	defer span.End()

	posts, err := s.posts.List(ctx, models.SocialMediaPostFilter{})
	if err != nil {
		tracing.RecordError(span, err)
		return nil, err
	}
	return ApplyFilter(posts, filter), nil
}
