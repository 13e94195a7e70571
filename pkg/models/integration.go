package models

import (
	"time"
)

type IntegrationType string

const (
	IntegrationTypeFacebook    IntegrationType = "facebook"
	IntegrationTypeInstagram   IntegrationType = "instagram"
	IntegrationTypeGoogleAds   IntegrationType = "google_ads"
	IntegrationTypeMetaAds     IntegrationType = "meta_ads"
	IntegrationTypeTikTokAds   IntegrationType = "tiktok_ads"
	IntegrationTypeLinkedInAds IntegrationType = "linkedin_ads"
	IntegrationTypeWebhook     IntegrationType = "webhook"
	IntegrationTypeAPI         IntegrationType = "api"
)

type IntegrationStatus string

const (
	IntegrationStatusActive   IntegrationStatus = "active"
	IntegrationStatusInactive IntegrationStatus = "inactive"
	IntegrationStatusError    IntegrationStatus = "error"
	IntegrationStatusPending  IntegrationStatus = "pending"
	IntegrationStatusTesting  IntegrationStatus = "testing"
)

// Integration is a configured external data-source connection
type Integration struct {
	ID            string            `db:"id" json:"id"`
	Name          string            `db:"name" json:"name" validate:"required"`
	Type          IntegrationType   `db:"type" json:"type" validate:"required,oneof=facebook instagram google_ads meta_ads tiktok_ads linkedin_ads webhook api"`
	Status        IntegrationStatus `db:"status" json:"status" validate:"required,oneof=active inactive error pending testing"`
	Configuration map[string]any    `db:"configuration" json:"configuration"`
	CreatedAt     time.Time         `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time         `db:"updated_at" json:"updatedAt"`
	LastSync      *time.Time        `db:"last_sync" json:"lastSync,omitempty"`
	Metadata      map[string]any    `db:"metadata" json:"metadata,omitempty"`
}

// TableName returns the database table name
func (Integration) TableName() string {
	return "integrations"
}

// IntegrationPatch holds the fields of a partial update. Nil fields are left
// untouched.
type IntegrationPatch struct {
	Name          *string            `json:"name,omitempty"`
	Type          *IntegrationType   `json:"type,omitempty" validate:"omitempty,oneof=facebook instagram google_ads meta_ads tiktok_ads linkedin_ads webhook api"`
	Status        *IntegrationStatus `json:"status,omitempty" validate:"omitempty,oneof=active inactive error pending testing"`
	Configuration *map[string]any    `json:"configuration,omitempty"`
	LastSync      *time.Time         `json:"lastSync,omitempty"`
	Metadata      *map[string]any    `json:"metadata,omitempty"`
}

func (p IntegrationPatch) IsEmpty() bool {
	return p.Name == nil && p.Type == nil && p.Status == nil &&
		p.Configuration == nil && p.LastSync == nil && p.Metadata == nil
}

// IntegrationFilter narrows a listing; zero fields do not constrain
type IntegrationFilter struct {
	Type   IntegrationType   `query:"type"`
	Status IntegrationStatus `query:"status"`
}
