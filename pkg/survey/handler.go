package survey

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/odk-sre/webform-manager/internal/handler"
	"github.com/odk-sre/webform-manager/pkg/model"
)

func NewHandler(publicURL string, surveyService surveyService) Handler {
	return Handler{
		publicURL:     publicURL,
		surveyService: surveyService,
	}
}

type Handler struct {
	publicURL     string
	surveyService surveyService
}

type surveyService interface {
	Resolve(ctx context.Context, server, formID string) (string, error)
	Upsert(ctx context.Context, survey model.Survey) (string, error)
	Deactivate(ctx context.Context, server, formID string) (string, error)
	AddSubmission(ctx context.Context, id string) (string, error)
	CountForServer(ctx context.Context, server string) (int, error)
	ListForServer(ctx context.Context, server string) ([]*model.Survey, error)
}

type SurveyRequest struct {
	ServerURL string `json:"server_url" binding:"required,url"`
	FormID    string `json:"form_id" binding:"required"`
	Theme     string `json:"theme"`
}

// Create provisions a webform for a remote form. The call is idempotent: an
// already provisioned form reactivates and returns its existing URL.
func (h Handler) Create(c *gin.Context) {
	var request SurveyRequest
	if err := handler.DataBinder(c, &request); err != nil {
		_ = c.Error(err)
		return
	}

	ctx := c.Request.Context()

	existingID, err := h.surveyService.Resolve(ctx, request.ServerURL, request.FormID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	id, err := h.surveyService.Upsert(ctx, model.Survey{
		OpenRosaServer: request.ServerURL,
		OpenRosaID:     request.FormID,
		Theme:          request.Theme,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	status := http.StatusOK
	if existingID == "" {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{
		"enketo_id": id,
		"url":       h.webformURL(id),
	})
}

// Deactivate takes the webform for a remote form offline without deleting
// its registry record.
func (h Handler) Deactivate(c *gin.Context) {
	var request SurveyRequest
	if err := handler.DataBinder(c, &request); err != nil {
		_ = c.Error(err)
		return
	}

	id, err := h.surveyService.Deactivate(c.Request.Context(), request.ServerURL, request.FormID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"enketo_id": id})
}

type SubmissionRequest struct {
	EnketoID string `json:"enketo_id" binding:"required"`
}

// AddSubmission counts a successfully relayed submission.
func (h Handler) AddSubmission(c *gin.Context) {
	var request SubmissionRequest
	if err := handler.DataBinder(c, &request); err != nil {
		_ = c.Error(err)
		return
	}

	id, err := h.surveyService.AddSubmission(c.Request.Context(), request.EnketoID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"enketo_id": id})
}

// Number reports how many surveys are registered for a server.
func (h Handler) Number(c *gin.Context) {
	server := c.Query("server_url")

	number, err := h.surveyService.CountForServer(c.Request.Context(), server)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"number": number})
}

// List returns the active surveys registered for a server.
func (h Handler) List(c *gin.Context) {
	server := c.Query("server_url")

	surveys, err := h.surveyService.ListForServer(c.Request.Context(), server)
	if err != nil {
		_ = c.Error(err)
		return
	}

	forms := make([]gin.H, 0, len(surveys))
	for _, s := range surveys {
		forms = append(forms, gin.H{
			"enketo_id":  s.EnketoID,
			"form_id":    s.OpenRosaID,
			"server_url": s.OpenRosaServer,
			"url":        h.webformURL(s.EnketoID),
		})
	}
	c.JSON(http.StatusOK, gin.H{"forms": forms})
}

func (h Handler) webformURL(id string) string {
	return fmt.Sprintf("%s/%s", h.publicURL, id)
}
