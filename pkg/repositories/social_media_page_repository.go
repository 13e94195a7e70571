package repositories

import (
	"context"

	"github.com/Gobusters/ectologger"

	"github.com/CleytonSalvego/gestao-lead-app-sub000/pkg/models"
	"github.com/CleytonSalvego/gestao-lead-app-sub000/pkg/storage"
	"github.com/CleytonSalvego/gestao-lead-app-sub000/pkg/tracing"
)

// SocialMediaPageRepository handles storage operations for connected pages
type SocialMediaPageRepository struct {
	*Repository
}

func NewSocialMediaPageRepository(store *storage.Store, logger ectologger.Logger) *SocialMediaPageRepository {
	return &SocialMediaPageRepository{
		Repository: NewRepository(store, logger),
	}
}

func (r *SocialMediaPageRepository) Create(ctx context.Context, page models.SocialMediaPage) (*models.SocialMediaPage, error) {
	ctx, span := tracing.StartSpan(ctx, "SocialMediaPageRepository.Create")
	defer span.End()

	now := r.timestamp()
	page.ID = newID(page.ID)
	page.CreatedAt = now
	page.UpdatedAt = now
	page.LastActivity = timestampPtr(page.LastActivity)

	if err := r.insert(ctx, storage.SocialMediaPages, pageToRow(page)); err != nil {
		tracing.RecordError(span, err)
		return nil, err
	}
	return &page, nil
}

func (r *SocialMediaPageRepository) GetByID(ctx context.Context, id string) (*models.SocialMediaPage, error) {
	ctx, span := tracing.StartSpan(ctx, "SocialMediaPageRepository.GetByID")
	defer span.End()

	row, err := r.get(ctx, storage.SocialMediaPages, id)
	if err != nil {
		return nil, err
	}
	page := pageFromRow(row)
	return &page, nil
}

// List retrieves pages newest first
func (r *SocialMediaPageRepository) List(ctx context.Context, filter models.SocialMediaPageFilter) ([]models.SocialMediaPage, error) {
	ctx, span := tracing.StartSpan(ctx, "SocialMediaPageRepository.List")
	defer span.End()

	where := storage.Criteria{}
	if filter.IntegrationID != "" {
		where["integration_id"] = filter.IntegrationID
	}
	if filter.Platform != "" {
		where["platform"] = filter.Platform
	}
	if filter.Connected != nil {
		where["is_connected"] = *filter.Connected
	}

	rows, err := r.list(ctx, storage.SocialMediaPages, where)
	if err != nil {
		return nil, err
	}

	pages := make([]models.SocialMediaPage, 0, len(rows))
	for _, row := range rows {
		pages = append(pages, pageFromRow(row))
	}
	return pages, nil
}

func (r *SocialMediaPageRepository) Update(ctx context.Context, id string, patch models.SocialMediaPagePatch) error {
	ctx, span := tracing.StartSpan(ctx, "SocialMediaPageRepository.Update")
	defer span.End()

	if patch.IsEmpty() {
		return nil
	}

	fields := storage.Row{}
	if patch.PageName != nil {
		fields["page_name"] = *patch.PageName
	}
	if patch.Username != nil {
		fields["username"] = *patch.Username
	}
	if patch.ProfilePicture != nil {
		fields["profile_picture"] = *patch.ProfilePicture
	}
	if patch.IsConnected != nil {
		fields["is_connected"] = *patch.IsConnected
	}
	if patch.IsVerified != nil {
		fields["is_verified"] = *patch.IsVerified
	}
	if patch.Followers != nil {
		fields["followers"] = *patch.Followers
	}
	if patch.Posts != nil {
		fields["posts"] = *patch.Posts
	}
	if patch.Engagement != nil {
		fields["engagement"] = *patch.Engagement
	}
	if patch.LastActivity != nil {
		fields["last_activity"] = *patch.LastActivity
	}

	return r.update(ctx, storage.SocialMediaPages, id, fields)
}

func (r *SocialMediaPageRepository) Delete(ctx context.Context, id string) error {
	ctx, span := tracing.StartSpan(ctx, "SocialMediaPageRepository.Delete")
	defer span.End()

	return r.delete(ctx, storage.SocialMediaPages, id)
}

func pageToRow(p models.SocialMediaPage) storage.Row {
	return storage.Row{
		"id":              p.ID,
		"integration_id":  p.IntegrationID,
		"platform":        p.Platform,
		"page_id":         p.PageID,
		"page_name":       p.PageName,
		"username":        stringPtrValue(p.Username),
		"profile_picture": stringPtrValue(p.ProfilePicture),
		"is_connected":    p.IsConnected,
		"is_verified":     p.IsVerified,
		"followers":       p.Followers,
		"posts":           p.Posts,
		"engagement":      p.Engagement,
		"last_activity":   p.LastActivity,
		"created_at":      p.CreatedAt,
		"updated_at":      p.UpdatedAt,
	}
}

func pageFromRow(row storage.Row) models.SocialMediaPage {
	return models.SocialMediaPage{
		ID:             rowString(row, "id"),
		IntegrationID:  rowString(row, "integration_id"),
		Platform:       models.Platform(rowString(row, "platform")),
		PageID:         rowString(row, "page_id"),
		PageName:       rowString(row, "page_name"),
		Username:       rowStringPtr(row, "username"),
		ProfilePicture: rowStringPtr(row, "profile_picture"),
		IsConnected:    rowBool(row, "is_connected"),
		IsVerified:     rowBool(row, "is_verified"),
		Followers:      rowInt(row, "followers"),
		Posts:          rowInt(row, "posts"),
		Engagement:     rowFloat(row, "engagement"),
		LastActivity:   rowTimePtr(row, "last_activity"),
		CreatedAt:      rowTime(row, "created_at"),
		UpdatedAt:      rowTime(row, "updated_at"),
	}
}
