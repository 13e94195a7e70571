package services

import (
	"sort"

	"github.com/Gobusters/ectolinq"

	"github.com/CleytonSalvego/gestao-lead-app-sub000/pkg/models"
)

// ApplyFilter returns the posts matching every set constraint of filter,
// sorted by filter.SortBy. Ties keep input order. Without SortBy the input
// order is kept; SortOrder defaults to descending.
func ApplyFilter(posts []models.SocialMediaPost, filter models.SocialMediaFilter) []models.SocialMediaPost {
	result := ectolinq.Filter(posts, func(post models.SocialMediaPost) bool {
		return matchesFilter(post, filter)
	})
	if result == nil {
		result = []models.SocialMediaPost{}
	}

	key := sortKey(filter.SortBy)
	if key == nil {
		return result
	}

	ascending := filter.SortOrder == models.SortAsc
	sort.SliceStable(result, func(i, j int) bool {
		if ascending {
			return key(result[i]) < key(result[j])
		}
		return key(result[i]) > key(result[j])
	})
	return result
}

func matchesFilter(post models.SocialMediaPost, filter models.SocialMediaFilter) bool {
	if filter.Platform != nil && post.Platform != *filter.Platform {
		return false
	}
	if filter.Type != nil && post.Type != *filter.Type {
		return false
	}
	if filter.Status != nil {
		switch *filter.Status {
		case models.PostStatusActive:
			if !post.IsActive {
				return false
			}
		case models.PostStatusInactive:
			if post.IsActive {
				return false
			}
		}
	}
	if filter.PageID != nil && post.PageID != *filter.PageID {
		return false
	}
	if r := filter.DateRange; r != nil {
		if r.Start != nil && post.PublishedAt.Before(*r.Start) {
			return false
		}
		if r.End != nil && post.PublishedAt.After(*r.End) {
			return false
		}
	}
	return true
}

func sortKey(by models.SortBy) func(models.SocialMediaPost) float64 {
	switch by {
	case models.SortByDate:
		return func(p models.SocialMediaPost) float64 { return float64(p.PublishedAt.UnixMilli()) }
	case models.SortByEngagement:
		return func(p models.SocialMediaPost) float64 { return p.Metrics.Engagement }
	case models.SortByReach:
		return func(p models.SocialMediaPost) float64 { return float64(p.Metrics.Reach) }
	case models.SortByLikes:
		return func(p models.SocialMediaPost) float64 { return float64(p.Metrics.Likes) }
	default:
		return nil
	}
}
