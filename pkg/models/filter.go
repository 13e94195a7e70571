package models

import (
	"time"
)

type SortBy string

const (
	SortByDate       SortBy = "date"
	SortByEngagement SortBy = "engagement"
	SortByReach      SortBy = "reach"
	SortByLikes      SortBy = "likes"
)

type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// PostStatus filters posts by their active flag
type PostStatus string

const (
	PostStatusActive   PostStatus = "active"
	PostStatusInactive PostStatus = "inactive"
)

// DateRange bounds publishedAt, both ends inclusive. A nil end is open.
type DateRange struct {
	Start *time.Time `json:"start,omitempty"`
	End   *time.Time `json:"end,omitempty"`
}

// SocialMediaFilter selects and orders posts. Every constraint is optional.
type SocialMediaFilter struct {
	Platform  *Platform   `json:"platform,omitempty" validate:"omitempty,oneof=facebook instagram linkedin twitter"`
	Type      *PostType   `json:"type,omitempty" validate:"omitempty,oneof=post reel story campaign"`
	Status    *PostStatus `json:"status,omitempty" validate:"omitempty,oneof=active inactive"`
	PageID    *string     `json:"pageId,omitempty"`
	DateRange *DateRange  `json:"dateRange,omitempty"`
	SortBy    SortBy      `json:"sortBy,omitempty" validate:"omitempty,oneof=date engagement reach likes"`
	SortOrder SortOrder   `json:"sortOrder,omitempty" validate:"omitempty,oneof=asc desc"`
}

// PlatformStats is the per-platform slice of SocialMediaStats
type PlatformStats struct {
	Pages      int64   `json:"pages"`
	Posts      int64   `json:"posts"`
	Followers  int64   `json:"followers"`
	Engagement float64 `json:"engagement"`
}

// SocialMediaStats aggregates everything currently stored
type SocialMediaStats struct {
	TotalPages        int64                      `json:"totalPages"`
	ConnectedPages    int64                      `json:"connectedPages"`
	TotalFollowers    int64                      `json:"totalFollowers"`
	TotalPosts        int64                      `json:"totalPosts"`
	ActivePosts       int64                      `json:"activePosts"`
	TotalLikes        int64                      `json:"totalLikes"`
	TotalComments     int64                      `json:"totalComments"`
	TotalShares       int64                      `json:"totalShares"`
	TotalReach        int64                      `json:"totalReach"`
	TotalImpressions  int64                      `json:"totalImpressions"`
	TotalEngagement   float64                    `json:"totalEngagement"`
	AverageEngagement float64                    `json:"averageEngagement"`
	TotalCampaigns    int64                      `json:"totalCampaigns"`
	ActiveCampaigns   int64                      `json:"activeCampaigns"`
	TotalSpend        float64                    `json:"totalSpend"`
	TotalConversions  int64                      `json:"totalConversions"`
	PlatformBreakdown map[Platform]PlatformStats `json:"platformBreakdown"`
}

// NewSocialMediaStats returns the zero aggregate with an empty breakdown
func NewSocialMediaStats() SocialMediaStats {
	return SocialMediaStats{PlatformBreakdown: make(map[Platform]PlatformStats)}
}
