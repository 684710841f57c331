package survey

import (
	"context"
	"log/slog"
	"sync"

	"github.com/odk-sre/webform-manager/internal/errdef"
	"github.com/odk-sre/webform-manager/pkg/model"
)

func NewService(logger *slog.Logger, repository *repository) *Service {
	return &Service{
		logger:     logger,
		repository: repository,
	}
}

// Service owns the survey registry. The pending map is the per-key write
// guard: an upsert for a key that already has one in flight fails immediately
// instead of racing, so no two concurrent writes can ever allocate duplicate
// IDs for the same form.
type Service struct {
	logger     *slog.Logger
	repository *repository
	pending    sync.Map
}

// Resolve looks up the enketo ID for a form without side effects. The empty
// string means the key has never been seen.
func (s *Service) Resolve(ctx context.Context, server, formID string) (string, error) {
	key := model.OpenRosaKey(server, formID)
	if key == "" {
		return "", errdef.NewBadRequest("survey information incomplete or invalid")
	}
	return s.repository.findID(key)
}

// Upsert creates the registry entry for a form or refreshes the mutable
// fields of the existing one. The OpenRosa key to enketo ID mapping is
// immutable once created: repeated upserts always return the original ID.
func (s *Service) Upsert(ctx context.Context, survey model.Survey) (string, error) {
	key := model.OpenRosaKey(survey.OpenRosaServer, survey.OpenRosaID)
	if key == "" {
		return "", errdef.NewBadRequest("survey information incomplete or invalid")
	}

	if _, inFlight := s.pending.LoadOrStore(key, struct{}{}); inFlight {
		return "", errdef.NewConflict("busy handling pending request for survey %q", key)
	}
	defer s.pending.Delete(key)

	id, err := s.repository.findID(key)
	if err != nil {
		return "", err
	}
	if id != "" {
		survey.Active = true
		if err := s.repository.updateProperties(id, survey); err != nil {
			return "", err
		}
		return id, nil
	}

	id, err = s.repository.create(key, survey)
	if err != nil {
		return "", err
	}
	s.logger.InfoContext(ctx, "created survey", "enketoId", id, "openRosaKey", key)
	return id, nil
}

// Deactivate marks the survey for a form inactive. Surveys are never deleted.
func (s *Service) Deactivate(ctx context.Context, server, formID string) (string, error) {
	key := model.OpenRosaKey(server, formID)
	if key == "" {
		return "", errdef.NewBadRequest("survey information incomplete or invalid")
	}

	id, err := s.repository.findID(key)
	if err != nil {
		return "", err
	}
	if id == "" {
		return "", errdef.NewNotFound("no survey exists for form %q on %q", formID, server)
	}

	if err := s.repository.updateProperties(id, model.Survey{Active: false}); err != nil {
		return "", err
	}
	s.logger.InfoContext(ctx, "deactivated survey", "enketoId", id)
	return id, nil
}

// Get returns the survey record for an enketo ID and refreshes its
// last-accessed timestamp.
func (s *Service) Get(ctx context.Context, id string) (*model.Survey, error) {
	if id == "" {
		return nil, errdef.NewBadRequest("survey id required")
	}

	survey, err := s.repository.find(id)
	if err != nil {
		return nil, err
	}

	if err := s.repository.touchLastAccessed(id); err != nil {
		// access bookkeeping must not fail the lookup
		s.logger.WarnContext(ctx, "failed to update lastAccessed", "enketoId", id, "error", err)
	}
	return survey, nil
}

// AddSubmission counts one submission against the survey.
func (s *Service) AddSubmission(ctx context.Context, id string) (string, error) {
	if id == "" {
		return "", errdef.NewBadRequest("survey id required")
	}
	if err := s.repository.addSubmission(id); err != nil {
		return "", err
	}
	return id, nil
}

// CountForServer returns the number of surveys registered for a server.
func (s *Service) CountForServer(ctx context.Context, server string) (int, error) {
	if server == "" {
		return 0, errdef.NewBadRequest("server url required")
	}
	return s.repository.countForServer(server)
}

// ListForServer returns all active surveys registered for a server.
func (s *Service) ListForServer(ctx context.Context, server string) ([]*model.Survey, error) {
	if server == "" {
		return nil, errdef.NewBadRequest("server url required")
	}
	return s.repository.listForServer(server)
}
