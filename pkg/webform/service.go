// Package webform exposes the per-form webform sessions to the outside: it
// provisions surveys, stages edits and assembles the transformed form parts
// the renderer consumes.
package webform

import (
	"context"
	"log/slog"

	"github.com/odk-sre/webform-manager/pkg/model"
	"github.com/odk-sre/webform-manager/pkg/transform"
)

func NewService(logger *slog.Logger, surveys surveyService, client openRosaClient, transformer transformer) *Service {
	return &Service{
		logger:      logger,
		surveys:     surveys,
		client:      client,
		transformer: transformer,
	}
}

type Service struct {
	logger      *slog.Logger
	surveys     surveyService
	client      openRosaClient
	transformer transformer
}

type surveyService interface {
	Get(ctx context.Context, id string) (*model.Survey, error)
}

type openRosaClient interface {
	LocateForm(ctx context.Context, server, formID string, creds model.Credentials, cookie, customParamName, customParamValue string) (model.FormInfo, error)
	FetchXForm(ctx context.Context, info model.FormInfo, creds model.Credentials, cookie string) (string, error)
	FetchManifest(ctx context.Context, info model.FormInfo, creds model.Credentials, cookie string) ([]model.MediaFile, error)
	MaxSubmissionSize(ctx context.Context, server string, creds model.Credentials, cookie string) (int64, error)
}

type transformer interface {
	Transform(ctx context.Context, xform string, manifest []model.MediaFile) (transform.Result, error)
	Version() string
}

// FormParts is everything the renderer needs to display a webform.
type FormParts struct {
	EnketoID           string `json:"enketoId"`
	Form               string `json:"form"`
	Model              string `json:"model"`
	Theme              string `json:"theme,omitempty"`
	Hash               string `json:"hash,omitempty"`
	TransformerVersion string `json:"transformerVersion"`
}

// FormParts resolves the survey, retrieves the XForm and its manifest from
// the linked server and transforms them into the renderable parts.
func (s *Service) FormParts(ctx context.Context, enketoID string, creds model.Credentials, cookie string) (*FormParts, error) {
	survey, err := s.surveys.Get(ctx, enketoID)
	if err != nil {
		return nil, err
	}

	info, err := s.client.LocateForm(ctx, survey.OpenRosaServer, survey.OpenRosaID, creds, cookie, "", "")
	if err != nil {
		return nil, err
	}

	xform, err := s.client.FetchXForm(ctx, info, creds, cookie)
	if err != nil {
		return nil, err
	}
	manifest, err := s.client.FetchManifest(ctx, info, creds, cookie)
	if err != nil {
		return nil, err
	}

	result, err := s.transformer.Transform(ctx, xform, manifest)
	if err != nil {
		return nil, err
	}

	return &FormParts{
		EnketoID:           enketoID,
		Form:               result.Form,
		Model:              result.Model,
		Theme:              survey.Theme,
		Hash:               info.Hash,
		TransformerVersion: s.transformer.Version(),
	}, nil
}

// MaxSize reports the maximum submission size the linked server accepts for
// the survey's form.
func (s *Service) MaxSize(ctx context.Context, enketoID string, creds model.Credentials, cookie string) (int64, error) {
	survey, err := s.surveys.Get(ctx, enketoID)
	if err != nil {
		return 0, err
	}
	return s.client.MaxSubmissionSize(ctx, survey.OpenRosaServer, creds, cookie)
}
