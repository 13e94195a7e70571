package repositories

import (
	"context"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/pkg/errors"

	"github.com/CleytonSalvego/gestao-lead-app-sub000/pkg/models"
	"github.com/CleytonSalvego/gestao-lead-app-sub000/pkg/storage"
	"github.com/CleytonSalvego/gestao-lead-app-sub000/pkg/tracing"
)

// SocialMediaPostRepository handles storage operations for posts. Posts are
// the only records with upsert-by-id.
type SocialMediaPostRepository struct {
	*Repository
}

func NewSocialMediaPostRepository(store *storage.Store, logger ectologger.Logger) *SocialMediaPostRepository {
	return &SocialMediaPostRepository{
		Repository: NewRepository(store, logger),
	}
}

func (r *SocialMediaPostRepository) Create(ctx context.Context, post models.SocialMediaPost) (*models.SocialMediaPost, error) {
	ctx, span := tracing.StartSpan(ctx, "SocialMediaPostRepository.Create")
	defer span.End()

	r.prepare(&post)
	if err := r.insert(ctx, storage.SocialMediaPosts, postToRow(post)); err != nil {
		tracing.RecordError(span, err)
		return nil, err
	}
	return &post, nil
}

// Upsert inserts the post or, when its ID is stored, overwrites everything but
// ID and createdAt
func (r *SocialMediaPostRepository) Upsert(ctx context.Context, post models.SocialMediaPost) (*models.SocialMediaPost, error) {
	ctx, span := tracing.StartSpan(ctx, "SocialMediaPostRepository.Upsert")
	defer span.End()

	if post.ID == "" {
		return r.Create(ctx, post)
	}

	a, err := r.adapter(ctx)
	if err != nil {
		return nil, err
	}

	existing, err := a.Get(ctx, storage.SocialMediaPosts, post.ID)
	if errors.Is(err, storage.ErrNotFound) {
		return r.Create(ctx, post)
	}
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"post_id": post.ID,
		}).Error("failed to look up post for upsert")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to upsert social_media_posts")
	}

	r.prepare(&post)
	post.CreatedAt = rowTime(existing, "created_at")
	if previous := rowTime(existing, "updated_at"); post.UpdatedAt.Before(previous) {
		post.UpdatedAt = previous
	}

	fields := postToRow(post)
	delete(fields, "id")
	delete(fields, "created_at")

	matched, err := a.Update(ctx, storage.SocialMediaPosts, post.ID, fields)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"post_id": post.ID,
		}).Error("failed to upsert post")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to upsert social_media_posts")
	}
	if !matched {
		// removed between the lookup and the write
		return r.Create(ctx, post)
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"post_id": post.ID,
	}).Debugf("Upserted %s", storage.SocialMediaPosts.Name)
	return &post, nil
}

func (r *SocialMediaPostRepository) GetByID(ctx context.Context, id string) (*models.SocialMediaPost, error) {
	ctx, span := tracing.StartSpan(ctx, "SocialMediaPostRepository.GetByID")
	defer span.End()

	row, err := r.get(ctx, storage.SocialMediaPosts, id)
	if err != nil {
		return nil, err
	}
	post, err := postFromRow(row)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"post_id": id,
		}).Warn("stored post is malformed")
		return nil, NotFound("social_media_posts %s does not exist", id)
	}
	return &post, nil
}

// List retrieves posts newest-created first
func (r *SocialMediaPostRepository) List(ctx context.Context, filter models.SocialMediaPostFilter) ([]models.SocialMediaPost, error) {
	ctx, span := tracing.StartSpan(ctx, "SocialMediaPostRepository.List")
	defer span.End()

	where := storage.Criteria{}
	if filter.PageID != "" {
		where["page_id"] = filter.PageID
	}
	if filter.Platform != "" {
		where["platform"] = filter.Platform
	}
	if filter.Type != "" {
		where["type"] = filter.Type
	}
	if filter.Active != nil {
		where["is_active"] = *filter.Active
	}

	rows, err := r.list(ctx, storage.SocialMediaPosts, where)
	if err != nil {
		return nil, err
	}
	return decodeRows(ctx, r.Repository, storage.SocialMediaPosts, rows, postFromRow), nil
}

func (r *SocialMediaPostRepository) Update(ctx context.Context, id string, patch models.SocialMediaPostPatch) error {
	ctx, span := tracing.StartSpan(ctx, "SocialMediaPostRepository.Update")
	defer span.End()

	if patch.IsEmpty() {
		return nil
	}

	fields := storage.Row{}
	if patch.Content != nil {
		fields["content"] = *patch.Content
	}
	if patch.MediaURLs != nil {
		fields["media_urls"] = *patch.MediaURLs
	}
	if patch.Hashtags != nil {
		fields["hashtags"] = *patch.Hashtags
	}
	if patch.Metrics != nil {
		fields["metrics"] = *patch.Metrics
	}
	if patch.PublishedAt != nil {
		fields["published_at"] = *patch.PublishedAt
	}
	if patch.IsActive != nil {
		fields["is_active"] = *patch.IsActive
	}

	return r.update(ctx, storage.SocialMediaPosts, id, fields)
}

func (r *SocialMediaPostRepository) Delete(ctx context.Context, id string) error {
	ctx, span := tracing.StartSpan(ctx, "SocialMediaPostRepository.Delete")
	defer span.End()

	return r.delete(ctx, storage.SocialMediaPosts, id)
}

// prepare assigns the ID and fresh timestamps; an unset publishedAt takes the
// creation time
func (r *SocialMediaPostRepository) prepare(post *models.SocialMediaPost) {
	now := r.timestamp()
	post.ID = newID(post.ID)
	post.CreatedAt = now
	post.UpdatedAt = now
	if post.PublishedAt.IsZero() {
		post.PublishedAt = now
	} else {
		post.PublishedAt = storage.Timestamp(post.PublishedAt)
	}
}

func postToRow(p models.SocialMediaPost) storage.Row {
	return storage.Row{
		"id":           p.ID,
		"page_id":      p.PageID,
		"platform":     p.Platform,
		"post_id":      p.PostID,
		"type":         p.Type,
		"content":      stringPtrValue(p.Content),
		"media_urls":   p.MediaURLs,
		"hashtags":     p.Hashtags,
		"metrics":      p.Metrics,
		"published_at": p.PublishedAt,
		"created_at":   p.CreatedAt,
		"updated_at":   p.UpdatedAt,
		"is_active":    p.IsActive,
	}
}

func postFromRow(row storage.Row) (models.SocialMediaPost, error) {
	p := models.SocialMediaPost{
		ID:          rowString(row, "id"),
		PageID:      rowString(row, "page_id"),
		Platform:    models.Platform(rowString(row, "platform")),
		PostID:      rowString(row, "post_id"),
		Type:        models.PostType(rowString(row, "type")),
		Content:     rowStringPtr(row, "content"),
		PublishedAt: rowTime(row, "published_at"),
		CreatedAt:   rowTime(row, "created_at"),
		UpdatedAt:   rowTime(row, "updated_at"),
		IsActive:    rowBool(row, "is_active"),
	}
	if err := rowJSON(row, "media_urls", &p.MediaURLs); err != nil {
		return p, err
	}
	if err := rowJSON(row, "hashtags", &p.Hashtags); err != nil {
		return p, err
	}
	if err := rowJSON(row, "metrics", &p.Metrics); err != nil {
		return p, err
	}
	return p, nil
}
