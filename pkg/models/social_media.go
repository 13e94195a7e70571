package models

import (
	"time"
)

type Platform string

const (
	PlatformFacebook  Platform = "facebook"
	PlatformInstagram Platform = "instagram"
	PlatformLinkedIn  Platform = "linkedin"
	PlatformTwitter   Platform = "twitter"
)

type PostType string

const (
	PostTypePost     PostType = "post"
	PostTypeReel     PostType = "reel"
	PostTypeStory    PostType = "story"
	PostTypeCampaign PostType = "campaign"
)

type CampaignStatus string

const (
	CampaignStatusActive    CampaignStatus = "active"
	CampaignStatusPaused    CampaignStatus = "paused"
	CampaignStatusCompleted CampaignStatus = "completed"
	CampaignStatusDraft     CampaignStatus = "draft"
)

// SocialMediaPage is a connected external account
type SocialMediaPage struct {
	ID             string     `db:"id" json:"id"`
	IntegrationID  string     `db:"integration_id" json:"integrationId" validate:"required"`
	Platform       Platform   `db:"platform" json:"platform" validate:"required,oneof=facebook instagram linkedin twitter"`
	PageID         string     `db:"page_id" json:"pageId" validate:"required"`
	PageName       string     `db:"page_name" json:"pageName" validate:"required"`
	Username       *string    `db:"username" json:"username,omitempty"`
	ProfilePicture *string    `db:"profile_picture" json:"profilePicture,omitempty"`
	IsConnected    bool       `db:"is_connected" json:"isConnected"`
	IsVerified     bool       `db:"is_verified" json:"isVerified"`
	Followers      int64      `db:"followers" json:"followers" validate:"gte=0"`
	Posts          int64      `db:"posts" json:"posts" validate:"gte=0"`
	Engagement     float64    `db:"engagement" json:"engagement" validate:"gte=0"`
	LastActivity   *time.Time `db:"last_activity" json:"lastActivity,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updatedAt"`
}

func (SocialMediaPage) TableName() string {
	return "social_media_pages"
}

type SocialMediaPagePatch struct {
	PageName       *string    `json:"pageName,omitempty"`
	Username       *string    `json:"username,omitempty"`
	ProfilePicture *string    `json:"profilePicture,omitempty"`
	IsConnected    *bool      `json:"isConnected,omitempty"`
	IsVerified     *bool      `json:"isVerified,omitempty"`
	Followers      *int64     `json:"followers,omitempty" validate:"omitempty,gte=0"`
	Posts          *int64     `json:"posts,omitempty" validate:"omitempty,gte=0"`
	Engagement     *float64   `json:"engagement,omitempty" validate:"omitempty,gte=0"`
	LastActivity   *time.Time `json:"lastActivity,omitempty"`
}

func (p SocialMediaPagePatch) IsEmpty() bool {
	return p.PageName == nil && p.Username == nil && p.ProfilePicture == nil &&
		p.IsConnected == nil && p.IsVerified == nil && p.Followers == nil &&
		p.Posts == nil && p.Engagement == nil && p.LastActivity == nil
}

type SocialMediaPageFilter struct {
	IntegrationID string   `query:"integrationId"`
	Platform      Platform `query:"platform"`
	Connected     *bool    `query:"connected"`
}

// PostMetrics are the engagement counters of a post
type PostMetrics struct {
	Likes       int64   `json:"likes" validate:"gte=0"`
	Comments    int64   `json:"comments" validate:"gte=0"`
	Shares      int64   `json:"shares" validate:"gte=0"`
	Reactions   int64   `json:"reactions" validate:"gte=0"`
	Reach       int64   `json:"reach" validate:"gte=0"`
	Impressions int64   `json:"impressions" validate:"gte=0"`
	Engagement  float64 `json:"engagement" validate:"gte=0"`
	Clicks      *int64  `json:"clicks,omitempty" validate:"omitempty,gte=0"`
	Saves       *int64  `json:"saves,omitempty" validate:"omitempty,gte=0"`
}

type SocialMediaPost struct {
	ID          string      `db:"id" json:"id"`
	PageID      string      `db:"page_id" json:"pageId" validate:"required"`
	Platform    Platform    `db:"platform" json:"platform" validate:"required,oneof=facebook instagram linkedin twitter"`
	PostID      string      `db:"post_id" json:"postId" validate:"required"`
	Type        PostType    `db:"type" json:"type" validate:"required,oneof=post reel story campaign"`
	Content     *string     `db:"content" json:"content,omitempty"`
	MediaURLs   []string    `db:"media_urls" json:"mediaUrls,omitempty"`
	Hashtags    []string    `db:"hashtags" json:"hashtags,omitempty"`
	Metrics     PostMetrics `db:"metrics" json:"metrics"`
	PublishedAt time.Time   `db:"published_at" json:"publishedAt"`
	CreatedAt   time.Time   `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time   `db:"updated_at" json:"updatedAt"`
	IsActive    bool        `db:"is_active" json:"isActive"`
}

func (SocialMediaPost) TableName() string {
	return "social_media_posts"
}

type SocialMediaPostPatch struct {
	Content     *string      `json:"content,omitempty"`
	MediaURLs   *[]string    `json:"mediaUrls,omitempty"`
	Hashtags    *[]string    `json:"hashtags,omitempty"`
	Metrics     *PostMetrics `json:"metrics,omitempty"`
	PublishedAt *time.Time   `json:"publishedAt,omitempty"`
	IsActive    *bool        `json:"isActive,omitempty"`
}

func (p SocialMediaPostPatch) IsEmpty() bool {
	return p.Content == nil && p.MediaURLs == nil && p.Hashtags == nil &&
		p.Metrics == nil && p.PublishedAt == nil && p.IsActive == nil
}

type SocialMediaPostFilter struct {
	PageID   string   `query:"pageId"`
	Platform Platform `query:"platform"`
	Type     PostType `query:"type"`
	Active   *bool    `query:"active"`
}

type CampaignBudget struct {
	Daily    *float64 `json:"daily,omitempty" validate:"omitempty,gte=0"`
	Lifetime *float64 `json:"lifetime,omitempty" validate:"omitempty,gte=0"`
	Spent    float64  `json:"spent" validate:"gte=0"`
	Currency string   `json:"currency"`
}

type CampaignMetrics struct {
	Impressions int64   `json:"impressions"`
	Clicks      int64   `json:"clicks"`
	Reach       int64   `json:"reach"`
	Conversions int64   `json:"conversions"`
	Spend       float64 `json:"spend"`
	CTR         float64 `json:"ctr"`
	CPC         float64 `json:"cpc"`
	CPM         float64 `json:"cpm"`
}

type SocialMediaCampaign struct {
	ID            string          `db:"id" json:"id"`
	IntegrationID string          `db:"integration_id" json:"integrationId" validate:"required"`
	PageID        *string         `db:"page_id" json:"pageId,omitempty"`
	Platform      Platform        `db:"platform" json:"platform" validate:"required,oneof=facebook instagram linkedin twitter"`
	CampaignID    string          `db:"campaign_id" json:"campaignId" validate:"required"`
	Name          string          `db:"name" json:"name" validate:"required"`
	Objective     *string         `db:"objective" json:"objective,omitempty"`
	Status        CampaignStatus  `db:"status" json:"status" validate:"required,oneof=active paused completed draft"`
	Budget        CampaignBudget  `db:"budget" json:"budget"`
	Metrics       CampaignMetrics `db:"metrics" json:"metrics"`
	StartDate     time.Time       `db:"start_date" json:"startDate"`
	EndDate       *time.Time      `db:"end_date" json:"endDate,omitempty"`
	CreatedAt     time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updatedAt"`
}

func (SocialMediaCampaign) TableName() string {
	return "social_media_campaigns"
}

type SocialMediaCampaignPatch struct {
	Name      *string          `json:"name,omitempty"`
	Objective *string          `json:"objective,omitempty"`
	Status    *CampaignStatus  `json:"status,omitempty" validate:"omitempty,oneof=active paused completed draft"`
	Budget    *CampaignBudget  `json:"budget,omitempty"`
	Metrics   *CampaignMetrics `json:"metrics,omitempty"`
	StartDate *time.Time       `json:"startDate,omitempty"`
	EndDate   *time.Time       `json:"endDate,omitempty"`
}

func (p SocialMediaCampaignPatch) IsEmpty() bool {
	return p.Name == nil && p.Objective == nil && p.Status == nil &&
		p.Budget == nil && p.Metrics == nil && p.StartDate == nil && p.EndDate == nil
}

type SocialMediaCampaignFilter struct {
	IntegrationID string         `query:"integrationId"`
	Platform      Platform       `query:"platform"`
	Status        CampaignStatus `query:"status"`
}
