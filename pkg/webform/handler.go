package webform

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/odk-sre/webform-manager/internal/handler"
	"github.com/odk-sre/webform-manager/pkg/model"
)

func NewHandler(credentials model.Credentials, webformService webformService, instances instanceService) Handler {
	return Handler{
		credentials:     credentials,
		webformService:  webformService,
		instanceService: instances,
	}
}

type Handler struct {
	credentials     model.Credentials
	webformService  webformService
	instanceService instanceService
}

type webformService interface {
	FormParts(ctx context.Context, enketoID string, creds model.Credentials, cookie string) (*FormParts, error)
	MaxSize(ctx context.Context, enketoID string, creds model.Credentials, cookie string) (int64, error)
}

type instanceService interface {
	Retrieve(ctx context.Context, instanceID string) (*model.Instance, error)
}

// GetFormParts returns the transformed form and model for a webform session.
func (h Handler) GetFormParts(c *gin.Context) {
	enketoID, err := handler.RequirePathParameter(c, "enketoId")
	if err != nil {
		_ = c.Error(err)
		return
	}

	parts, err := h.webformService.FormParts(c.Request.Context(), enketoID, h.credentials, c.GetHeader("Cookie"))
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, parts)
}

// GetMaxSize reports the maximum submission size the linked server accepts.
func (h Handler) GetMaxSize(c *gin.Context) {
	enketoID, err := handler.RequirePathParameter(c, "enketoId")
	if err != nil {
		_ = c.Error(err)
		return
	}

	maxSize, err := h.webformService.MaxSize(c.Request.Context(), enketoID, h.credentials, c.GetHeader("Cookie"))
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"maxSize": maxSize})
}

// GetInstance returns a staged edit session so the webform can load it.
func (h Handler) GetInstance(c *gin.Context) {
	instanceID, err := handler.RequirePathParameter(c, "instanceId")
	if err != nil {
		_ = c.Error(err)
		return
	}

	instance, err := h.instanceService.Retrieve(c.Request.Context(), instanceID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, instance)
}
