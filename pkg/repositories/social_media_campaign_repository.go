package repositories

import (
	"context"

	"github.com/Gobusters/ectologger"

	"github.com/CleytonSalvego/gestao-lead-app-sub000/pkg/models"
	"github.com/CleytonSalvego/gestao-lead-app-sub000/pkg/storage"
	"github.com/CleytonSalvego/gestao-lead-app-sub000/pkg/tracing"
)

type SocialMediaCampaignRepository struct {
	*Repository
}

func NewSocialMediaCampaignRepository(store *storage.Store, logger ectologger.Logger) *SocialMediaCampaignRepository {
	return &SocialMediaCampaignRepository{
		Repository: NewRepository(store, logger),
	}
}

func (r *SocialMediaCampaignRepository) Create(ctx context.Context, campaign models.SocialMediaCampaign) (*models.SocialMediaCampaign, error) {
	ctx, span := tracing.StartSpan(ctx, "SocialMediaCampaignRepository.Create")
	defer span.End()

	now := r.timestamp()
	campaign.ID = newID(campaign.ID)
	campaign.CreatedAt = now
	campaign.UpdatedAt = now
	if campaign.StartDate.IsZero() {
		campaign.StartDate = now
	} else {
		campaign.StartDate = storage.Timestamp(campaign.StartDate)
	}
	campaign.EndDate = timestampPtr(campaign.EndDate)

	if err := r.insert(ctx, storage.SocialMediaCampaigns, campaignToRow(campaign)); err != nil {
		tracing.RecordError(span, err)
		return nil, err
	}
	return &campaign, nil
}

func (r *SocialMediaCampaignRepository) GetByID(ctx context.Context, id string) (*models.SocialMediaCampaign, error) {
	ctx, span := tracing.StartSpan(ctx, "SocialMediaCampaignRepository.GetByID")
	defer span.End()

	row, err := r.get(ctx, storage.SocialMediaCampaigns, id)
	if err != nil {
		return nil, err
	}
	campaign, err := campaignFromRow(row)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"campaign_id": id,
		}).Warn("stored campaign is malformed")
		return nil, NotFound("social_media_campaigns %s does not exist", id)
	}
	return &campaign, nil
}

func (r *SocialMediaCampaignRepository) List(ctx context.Context, filter models.SocialMediaCampaignFilter) ([]models.SocialMediaCampaign, error) {
	ctx, span := tracing.StartSpan(ctx, "SocialMediaCampaignRepository.List")
	defer span.End()

	where := storage.Criteria{}
	if filter.IntegrationID != "" {
		where["integration_id"] = filter.IntegrationID
	}
	if filter.Platform != "" {
		where["platform"] = filter.Platform
	}
	if filter.Status != "" {
		where["status"] = filter.Status
	}

	rows, err := r.list(ctx, storage.SocialMediaCampaigns, where)
	if err != nil {
		return nil, err
	}
	return decodeRows(ctx, r.Repository, storage.SocialMediaCampaigns, rows, campaignFromRow), nil
}

func (r *SocialMediaCampaignRepository) Update(ctx context.Context, id string, patch models.SocialMediaCampaignPatch) error {
	ctx, span := tracing.StartSpan(ctx, "SocialMediaCampaignRepository.Update")
	defer span.End()

	if patch.IsEmpty() {
		return nil
	}

	fields := storage.Row{}
	if patch.Name != nil {
		fields["name"] = *patch.Name
	}
	if patch.Objective != nil {
		fields["objective"] = *patch.Objective
	}
	if patch.Status != nil {
		fields["status"] = *patch.Status
	}
	if patch.Budget != nil {
		fields["budget"] = *patch.Budget
	}
	if patch.Metrics != nil {
		fields["metrics"] = *patch.Metrics
	}
	if patch.StartDate != nil {
		fields["start_date"] = *patch.StartDate
	}
	if patch.EndDate != nil {
		fields["end_date"] = *patch.EndDate
	}

	return r.update(ctx, storage.SocialMediaCampaigns, id, fields)
}

func (r *SocialMediaCampaignRepository) Delete(ctx context.Context, id string) error {
	ctx, span := tracing.StartSpan(ctx, "SocialMediaCampaignRepository.Delete")
	defer span.End()

	return r.delete(ctx, storage.SocialMediaCampaigns, id)
}

func campaignToRow(c models.SocialMediaCampaign) storage.Row {
	return storage.Row{
		"id":             c.ID,
		"integration_id": c.IntegrationID,
		"page_id":        stringPtrValue(c.PageID),
		"platform":       c.Platform,
		"campaign_id":    c.CampaignID,
		"name":           c.Name,
		"objective":      stringPtrValue(c.Objective),
		"status":         c.Status,
		"budget":         c.Budget,
		"metrics":        c.Metrics,
		"start_date":     c.StartDate,
		"end_date":       c.EndDate,
		"created_at":     c.CreatedAt,
		"updated_at":     c.UpdatedAt,
	}
}

func campaignFromRow(row storage.Row) (models.SocialMediaCampaign, error) {
	c := models.SocialMediaCampaign{
		ID:            rowString(row, "id"),
		IntegrationID: rowString(row, "integration_id"),
		PageID:        rowStringPtr(row, "page_id"),
		Platform:      models.Platform(rowString(row, "platform")),
		CampaignID:    rowString(row, "campaign_id"),
		Name:          rowString(row, "name"),
		Objective:     rowStringPtr(row, "objective"),
		Status:        models.CampaignStatus(rowString(row, "status")),
		StartDate:     rowTime(row, "start_date"),
		EndDate:       rowTimePtr(row, "end_date"),
		CreatedAt:     rowTime(row, "created_at"),
		UpdatedAt:     rowTime(row, "updated_at"),
	}
	if err := rowJSON(row, "budget", &c.Budget); err != nil {
		return c, err
	}
	if err := rowJSON(row, "metrics", &c.Metrics); err != nil {
		return c, err
	}
	return c, nil
}
