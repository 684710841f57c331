package instance

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/odk-sre/webform-manager/internal/handler"
	"github.com/odk-sre/webform-manager/pkg/model"
)

func NewHandler(publicURL string, instanceService instanceService, surveyService surveyService) Handler {
	return Handler{
		publicURL:       publicURL,
		instanceService: instanceService,
		surveyService:   surveyService,
	}
}

type Handler struct {
	publicURL       string
	instanceService instanceService
	surveyService   surveyService
}

type instanceService interface {
	Stage(ctx context.Context, instance model.Instance) (*model.Instance, error)
	Discard(ctx context.Context, instanceID string) (string, error)
}

type surveyService interface {
	Upsert(ctx context.Context, survey model.Survey) (string, error)
}

type StageRequest struct {
	ServerURL           string            `json:"server_url" binding:"required,url"`
	FormID              string            `json:"form_id" binding:"required"`
	InstanceID          string            `json:"instance_id" binding:"required"`
	Instance            string            `json:"instance" binding:"required"`
	ReturnURL           string            `json:"return_url"`
	InstanceAttachments map[string]string `json:"instance_attachments"`
}

// Stage caches a submitted record for editing and returns the edit URL to
// redirect the user to.
func (h Handler) Stage(c *gin.Context) {
	var request StageRequest
	if err := handler.DataBinder(c, &request); err != nil {
		_ = c.Error(err)
		return
	}

	ctx := c.Request.Context()

	enketoID, err := h.surveyService.Upsert(ctx, model.Survey{
		OpenRosaServer: request.ServerURL,
		OpenRosaID:     request.FormID,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	_, err = h.instanceService.Stage(ctx, model.Instance{
		InstanceID:          request.InstanceID,
		OpenRosaServer:      request.ServerURL,
		OpenRosaID:          request.FormID,
		Instance:            request.Instance,
		ReturnURL:           request.ReturnURL,
		InstanceAttachments: request.InstanceAttachments,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	editURL := fmt.Sprintf("%s/edit/%s?instance_id=%s", h.publicURL, enketoID, url.QueryEscape(request.InstanceID))
	c.JSON(http.StatusCreated, gin.H{
		"enketo_id": enketoID,
		"edit_url":  editURL,
	})
}

type DiscardRequest struct {
	InstanceID string `json:"instance_id" binding:"required"`
}

// Discard drops a staged edit session. Discarding twice reports success both
// times.
func (h Handler) Discard(c *gin.Context) {
	var request DiscardRequest
	if err := handler.DataBinder(c, &request); err != nil {
		_ = c.Error(err)
		return
	}

	id, err := h.instanceService.Discard(c.Request.Context(), request.InstanceID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"instance_id": id})
}
