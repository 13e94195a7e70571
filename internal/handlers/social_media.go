package handlers

import (
	"github.com/labstack/echo/v4"

	"github.com/CleytonSalvego/gestao-lead-app-sub000/pkg/models"
	"github.com/CleytonSalvego/gestao-lead-app-sub000/pkg/repositories"
	"github.com/CleytonSalvego/gestao-lead-app-sub000/pkg/services"
	"github.com/CleytonSalvego/gestao-lead-app-sub000/pkg/tracing"
)

// SocialMediaHandler serves pages, posts, campaigns and the derived stats
type SocialMediaHandler struct {
	pages     *repositories.SocialMediaPageRepository
	posts     *repositories.SocialMediaPostRepository
	campaigns *repositories.SocialMediaCampaignRepository
	svc       *services.SocialMediaService
}

func NewSocialMediaHandler(
	pages *repositories.SocialMediaPageRepository,
	posts *repositories.SocialMediaPostRepository,
	campaigns *repositories.SocialMediaCampaignRepository,
	svc *services.SocialMediaService,
) *SocialMediaHandler {
	return &SocialMediaHandler{pages: pages, posts: posts, campaigns: campaigns, svc: svc}
}

// RegisterRoutes registers the social media routes
func (h *SocialMediaHandler) RegisterRoutes(g *echo.Group) {
	pages := g.Group("/pages")
	pages.POST("", h.CreatePage)
	pages.GET("", h.ListPages)
	pages.GET("/connected", h.ConnectedPages)
	pages.GET("/:id", h.GetPage)
	pages.PATCH("/:id", h.UpdatePage)
	pages.DELETE("/:id", h.DeletePage)

	posts := g.Group("/posts")
	posts.POST("", h.CreatePost)
	posts.GET("", h.ListPosts)
	posts.GET("/:id", h.GetPost)
	posts.PUT("/:id", h.UpsertPost)
	posts.PATCH("/:id", h.UpdatePost)
	posts.DELETE("/:id", h.DeletePost)

	campaigns := g.Group("/campaigns")
	campaigns.POST("", h.CreateCampaign)
	campaigns.GET("", h.ListCampaigns)
	campaigns.GET("/:id", h.GetCampaign)
	campaigns.PATCH("/:id", h.UpdateCampaign)
	campaigns.DELETE("/:id", h.DeleteCampaign)

	g.GET("/stats", h.Stats)
}

// CreatePage handles POST /pages
func (h *SocialMediaHandler) CreatePage(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "SocialMediaHandler.CreatePage")
	defer span.End()

	req, err := BindRequest[models.SocialMediaPage](c)
	if err != nil {
		return err
	}
	page, err := h.pages.Create(ctx, req)
	if err != nil {
		return err
	}
	return CreatedResponse(c, page)
}

// ListPages handles GET /pages?integrationId=...&platform=...&connected=...
func (h *SocialMediaHandler) ListPages(c echo.Context) error {
	connected, err := queryBool(c, "connected")
	if err != nil {
		return err
	}

	pages, err := h.pages.List(c.Request().Context(), models.SocialMediaPageFilter{
		IntegrationID: c.QueryParam("integrationId"),
		Platform:      models.Platform(c.QueryParam("platform")),
		Connected:     connected,
	})
	if err != nil {
		return err
	}
	return SuccessResponse(c, pages)
}

// ConnectedPages handles GET /pages/connected
func (h *SocialMediaHandler) ConnectedPages(c echo.Context) error {
	pages, err := h.svc.GetConnectedPages(c.Request().Context())
	if err != nil {
		return err
	}
	if pages == nil {
		pages = []models.SocialMediaPage{}
	}
	return SuccessResponse(c, pages)
}

func (h *SocialMediaHandler) GetPage(c echo.Context) error {
	id, err := PathID(c)
	if err != nil {
		return err
	}
	page, err := h.pages.GetByID(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return SuccessResponse(c, page)
}

func (h *SocialMediaHandler) UpdatePage(c echo.Context) error {
	id, err := PathID(c)
	if err != nil {
		return err
	}
	patch, err := BindRequest[models.SocialMediaPagePatch](c)
	if err != nil {
		return err
	}
	if err := h.pages.Update(c.Request().Context(), id, patch); err != nil {
		return err
	}
	return NoContentResponse(c)
}

func (h *SocialMediaHandler) DeletePage(c echo.Context) error {
	id, err := PathID(c)
	if err != nil {
		return err
	}
	if err := h.pages.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return NoContentResponse(c)
}

// CreatePost handles POST /posts
func (h *SocialMediaHandler) CreatePost(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "SocialMediaHandler.CreatePost")
	defer span.End()

	req, err := BindRequest[models.SocialMediaPost](c)
	if err != nil {
		return err
	}
	post, err := h.posts.Create(ctx, req)
	if err != nil {
		return err
	}
	return CreatedResponse(c, post)
}

// UpsertPost handles PUT /posts/:id
func (h *SocialMediaHandler) UpsertPost(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "SocialMediaHandler.UpsertPost")
	defer span.End()

	id, err := PathID(c)
	if err != nil {
		return err
	}
	req, err := BindRequest[models.SocialMediaPost](c)
	if err != nil {
		return err
	}
	req.ID = id

	post, err := h.posts.Upsert(ctx, req)
	if err != nil {
		return err
	}
	return SuccessResponse(c, post)
}

// ListPosts handles GET /posts. Query parameters select and order posts:
// platform, type, status, pageId, startDate, endDate, sortBy, sortOrder.
func (h *SocialMediaHandler) ListPosts(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "SocialMediaHandler.ListPosts")
	defer span.End()

	filter, err := parsePostFilter(c)
	if err != nil {
		return err
	}

	posts, err := h.svc.FilterPosts(ctx, filter)
	if err != nil {
		return err
	}
	return SuccessResponse(c, posts)
}

func parsePostFilter(c echo.Context) (models.SocialMediaFilter, error) {
	filter := models.SocialMediaFilter{
		PageID:    queryString(c, "pageId"),
		SortBy:    models.SortBy(c.QueryParam("sortBy")),
		SortOrder: models.SortOrder(c.QueryParam("sortOrder")),
	}
	if p := queryString(c, "platform"); p != nil {
		platform := models.Platform(*p)
		filter.Platform = &platform
	}
	if t := queryString(c, "type"); t != nil {
		postType := models.PostType(*t)
		filter.Type = &postType
	}
	if s := queryString(c, "status"); s != nil {
		status := models.PostStatus(*s)
		filter.Status = &status
	}

	start, err := queryTime(c, "startDate")
	if err != nil {
		return filter, err
	}
	end, err := queryTime(c, "endDate")
	if err != nil {
		return filter, err
	}
	if start != nil || end != nil {
		filter.DateRange = &models.DateRange{Start: start, End: end}
	}

	if err := Validate(filter); err != nil {
		return filter, BadRequest(err.Error())
	}
	return filter, nil
}

func (h *SocialMediaHandler) GetPost(c echo.Context) error {
	id, err := PathID(c)
	if err != nil {
		return err
	}
	post, err := h.posts.GetByID(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return SuccessResponse(c, post)
}

func (h *SocialMediaHandler) UpdatePost(c echo.Context) error {
	id, err := PathID(c)
	if err != nil {
		return err
	}
	patch, err := BindRequest[models.SocialMediaPostPatch](c)
	if err != nil {
		return err
	}
	if err := h.posts.Update(c.Request().Context(), id, patch); err != nil {
		return err
	}
	return NoContentResponse(c)
}

func (h *SocialMediaHandler) DeletePost(c echo.Context) error {
	id, err := PathID(c)
	if err != nil {
		return err
	}
	if err := h.posts.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return NoContentResponse(c)
}

// CreateCampaign handles POST /campaigns
func (h *SocialMediaHandler) CreateCampaign(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "SocialMediaHandler.CreateCampaign")
	defer span.End()

	req, err := BindRequest[models.SocialMediaCampaign](c)
	if err != nil {
		return err
	}
	campaign, err := h.campaigns.Create(ctx, req)
	if err != nil {
		return err
	}
	return CreatedResponse(c, campaign)
}

// ListCampaigns handles GET /campaigns?integrationId=...&platform=...&status=...
func (h *SocialMediaHandler) ListCampaigns(c echo.Context) error {
	campaigns, err := h.campaigns.List(c.Request().Context(), models.SocialMediaCampaignFilter{
		IntegrationID: c.QueryParam("integrationId"),
		Platform:      models.Platform(c.QueryParam("platform")),
		Status:        models.CampaignStatus(c.QueryParam("status")),
	})
	if err != nil {
		return err
	}
	return SuccessResponse(c, campaigns)
}

func (h *SocialMediaHandler) GetCampaign(c echo.Context) error {
	id, err := PathID(c)
	if err != nil {
		return err
	}
	campaign, err := h.campaigns.GetByID(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return SuccessResponse(c, campaign)
}

func (h *SocialMediaHandler) UpdateCampaign(c echo.Context) error {
	id, err := PathID(c)
	if err != nil {
		return err
	}
	patch, err := BindRequest[models.SocialMediaCampaignPatch](c)
	if err != nil {
		return err
	}
	if err := h.campaigns.Update(c.Request().Context(), id, patch); err != nil {
		return err
	}
	return NoContentResponse(c)
}

func (h *SocialMediaHandler) DeleteCampaign(c echo.Context) error {
	id, err := PathID(c)
	if err != nil {
		return err
	}
	if err := h.campaigns.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return NoContentResponse(c)
}

// Stats handles GET /stats
func (h *SocialMediaHandler) Stats(c echo.Context) error {
	return SuccessResponse(c, h.svc.GetStats(c.Request().Context()))
}
