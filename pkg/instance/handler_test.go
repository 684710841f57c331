package instance

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/odk-sre/webform-manager/internal/errdef"
	"github.com/odk-sre/webform-manager/pkg/model"
)

func TestHandler_Stage(t *testing.T) {
	surveys := &mockSurveyService{}
	surveys.
		On("Upsert", mock.Anything, model.Survey{OpenRosaServer: "https://example.org/central", OpenRosaID: "widgets"}).
		Return("YYYp", nil)
	instances := &mockInstanceService{}
	instances.
		On("Stage", mock.Anything, model.Instance{
			InstanceID:     "uuid:1",
			OpenRosaServer: "https://example.org/central",
			OpenRosaID:     "widgets",
			Instance:       "<data/>",
			ReturnURL:      "https://example.org/return",
		}).
		Return(&model.Instance{InstanceID: "uuid:1"}, nil)
	handler := NewHandler("https://forms.example.org", instances, surveys)

	w := httptest.NewRecorder()
	c := newTestContext(t, w, `{
		"server_url": "https://example.org/central",
		"form_id": "widgets",
		"instance_id": "uuid:1",
		"instance": "<data/>",
		"return_url": "https://example.org/return"
	}`)

	handler.Stage(c)

	require.Empty(t, c.Errors)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"enketo_id": "YYYp", "edit_url": "https://forms.example.org/edit/YYYp?instance_id=uuid%3A1"}`, w.Body.String())
	surveys.AssertExpectations(t)
	instances.AssertExpectations(t)
}

func TestHandler_StageWithoutReturnURL(t *testing.T) {
	surveys := &mockSurveyService{}
	surveys.
		On("Upsert", mock.Anything, mock.AnythingOfType("model.Survey")).
		Return("YYYp", nil)
	instances := &mockInstanceService{}
	instances.
		On("Stage", mock.Anything, mock.AnythingOfType("model.Instance")).
		Return(&model.Instance{InstanceID: "uuid:1"}, nil)
	handler := NewHandler("https://forms.example.org", instances, surveys)

	w := httptest.NewRecorder()
	c := newTestContext(t, w, `{
		"server_url": "https://example.org/central",
		"form_id": "widgets",
		"instance_id": "uuid:1",
		"instance": "<data/>"
	}`)

	handler.Stage(c)

	require.Empty(t, c.Errors)
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestHandler_StageRejectsIncompleteBody(t *testing.T) {
	tests := map[string]string{
		"MissingInstance":   `{"server_url": "https://example.org/central", "form_id": "widgets", "instance_id": "uuid:1"}`,
		"MissingInstanceID": `{"server_url": "https://example.org/central", "form_id": "widgets", "instance": "<data/>"}`,
		"MissingServerURL":  `{"form_id": "widgets", "instance_id": "uuid:1", "instance": "<data/>"}`,
	}

	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			handler := NewHandler("https://forms.example.org", &mockInstanceService{}, &mockSurveyService{})

			w := httptest.NewRecorder()
			c := newTestContext(t, w, body)

			handler.Stage(c)

			require.Len(t, c.Errors, 1)
			assert.True(t, errdef.IsBadRequest(c.Errors[0].Err))
		})
	}
}

func TestHandler_StagePropagatesConflict(t *testing.T) {
	surveys := &mockSurveyService{}
	surveys.
		On("Upsert", mock.Anything, mock.AnythingOfType("model.Survey")).
		Return("YYYp", nil)
	instances := &mockInstanceService{}
	instances.
		On("Stage", mock.Anything, mock.AnythingOfType("model.Instance")).
		Return(nil, errdef.NewConflict("record is already being edited"))
	handler := NewHandler("https://forms.example.org", instances, surveys)

	w := httptest.NewRecorder()
	c := newTestContext(t, w, `{
		"server_url": "https://example.org/central",
		"form_id": "widgets",
		"instance_id": "uuid:1",
		"instance": "<data/>"
	}`)

	handler.Stage(c)

	require.Len(t, c.Errors, 1)
	assert.True(t, errdef.IsConflict(c.Errors[0].Err))
}

func TestHandler_Discard(t *testing.T) {
	instances := &mockInstanceService{}
	instances.
		On("Discard", mock.Anything, "uuid:1").
		Return("uuid:1", nil)
	handler := NewHandler("https://forms.example.org", instances, &mockSurveyService{})

	w := httptest.NewRecorder()
	c := newTestContext(t, w, `{"instance_id": "uuid:1"}`)

	handler.Discard(c)

	require.Empty(t, c.Errors)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"instance_id": "uuid:1"}`, w.Body.String())
	instances.AssertExpectations(t)
}

func newTestContext(t *testing.T, w *httptest.ResponseRecorder, body string) *gin.Context {
	t.Helper()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	return c
}

type mockInstanceService struct{ mock.Mock }

func (m *mockInstanceService) Stage(ctx context.Context, instance model.Instance) (*model.Instance, error) {
	called := m.Called(ctx, instance)
	staged, _ := called.Get(0).(*model.Instance)
	return staged, called.Error(1)
}

func (m *mockInstanceService) Discard(ctx context.Context, instanceID string) (string, error) {
	called := m.Called(ctx, instanceID)
	return called.String(0), called.Error(1)
}

type mockSurveyService struct{ mock.Mock }

func (m *mockSurveyService) Upsert(ctx context.Context, survey model.Survey) (string, error) {
	called := m.Called(ctx, survey)
	return called.String(0), called.Error(1)
}
