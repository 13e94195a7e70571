package handlers

import (
	"github.com/Gobusters/ectolinq"
	"github.com/labstack/echo/v4"

	"github.com/CleytonSalvego/gestao-lead-app-sub000/pkg/models"
	"github.com/CleytonSalvego/gestao-lead-app-sub000/pkg/services"
	"github.com/CleytonSalvego/gestao-lead-app-sub000/pkg/tracing"
)

// IntegrationHandler handles integration API requests
type IntegrationHandler struct {
	svc *services.IntegrationsService
}

func NewIntegrationHandler(svc *services.IntegrationsService) *IntegrationHandler {
	return &IntegrationHandler{svc: svc}
}

// RegisterRoutes registers the integration routes
func (h *IntegrationHandler) RegisterRoutes(g *echo.Group) {
	integrations := g.Group("/integrations")
	integrations.POST("", h.Create)
	integrations.GET("", h.List)
	integrations.GET("/:id", h.Get)
	integrations.PATCH("/:id", h.Update)
	integrations.DELETE("/:id", h.Delete)
	integrations.POST("/:id/connect", h.Connect)
	integrations.POST("/:id/disconnect", h.Disconnect)
}

// Create handles POST /integrations
func (h *IntegrationHandler) Create(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "IntegrationHandler.Create")
	defer span.End()

	req, err := BindRequest[models.Integration](c)
	if err != nil {
		return err
	}

	integration, err := h.svc.Create(ctx, req)
	if err != nil {
		return err
	}
	return CreatedResponse(c, integration)
}

// List handles GET /integrations?type=...&status=...
func (h *IntegrationHandler) List(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "IntegrationHandler.List")
	defer span.End()

	var (
		list []models.Integration
		err  error
	)
	if t := c.QueryParam("type"); t != "" {
		list, err = h.svc.ListByType(ctx, models.IntegrationType(t))
	} else {
		list, err = h.svc.List(ctx)
	}
	if err != nil {
		return err
	}

	if status := c.QueryParam("status"); status != "" {
		list = ectolinq.Filter(list, func(i models.Integration) bool {
			return i.Status == models.IntegrationStatus(status)
		})
	}
	if list == nil {
		list = []models.Integration{}
	}
	return SuccessResponse(c, list)
}

// Get handles GET /integrations/:id
func (h *IntegrationHandler) Get(c echo.Context) error {
	id, err := PathID(c)
	if err != nil {
		return err
	}

	integration, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return SuccessResponse(c, integration)
}

// Update handles PATCH /integrations/:id
func (h *IntegrationHandler) Update(c echo.Context) error {
	ctx, span := tracing.StartSpan(c.Request().Context(), "IntegrationHandler.Update")
	defer span.End()

	id, err := PathID(c)
	if err != nil {
		return err
	}
	patch, err := BindRequest[models.IntegrationPatch](c)
	if err != nil {
		return err
	}

	if err := h.svc.Update(ctx, id, patch); err != nil {
		return err
	}
	return NoContentResponse(c)
}

// Delete handles DELETE /integrations/:id
func (h *IntegrationHandler) Delete(c echo.Context) error {
	id, err := PathID(c)
	if err != nil {
		return err
	}

	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return NoContentResponse(c)
}

// Connect handles POST /integrations/:id/connect
func (h *IntegrationHandler) Connect(c echo.Context) error {
	id, err := PathID(c)
	if err != nil {
		return err
	}

	integration, err := h.svc.Connect(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return SuccessResponse(c, integration)
}

// Disconnect handles POST /integrations/:id/disconnect
func (h *IntegrationHandler) Disconnect(c echo.Context) error {
	id, err := PathID(c)
	if err != nil {
		return err
	}

	integration, err := h.svc.Disconnect(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return SuccessResponse(c, integration)
}
