package instance

import (
	"context"
	"log/slog"

	"github.com/odk-sre/webform-manager/internal/errdef"
	"github.com/odk-sre/webform-manager/pkg/model"
)

func NewService(logger *slog.Logger, repository *repository) *Service {
	return &Service{
		logger:     logger,
		repository: repository,
	}
}

type Service struct {
	logger     *slog.Logger
	repository *repository
}

// Stage caches an edit session. Staging over an unexpired session for the
// same instance ID fails with a conflict, it means the record is already
// being edited somewhere else.
func (s *Service) Stage(ctx context.Context, instance model.Instance) (*model.Instance, error) {
	if instance.InstanceID == "" || instance.OpenRosaID == "" || instance.OpenRosaServer == "" || instance.Instance == "" {
		return nil, errdef.NewBadRequest("instance information incomplete or invalid")
	}

	staged, err := s.repository.exists(instance.InstanceID)
	if err != nil {
		return nil, err
	}
	if staged {
		return nil, errdef.NewConflict("record %q is already being edited", instance.InstanceID)
	}

	if err := s.repository.save(instance); err != nil {
		return nil, err
	}
	s.logger.DebugContext(ctx, "staged instance", "instanceId", instance.InstanceID)
	return &instance, nil
}

// Retrieve returns a staged edit session.
func (s *Service) Retrieve(ctx context.Context, instanceID string) (*model.Instance, error) {
	if instanceID == "" {
		return nil, errdef.NewBadRequest("instance id required")
	}
	return s.repository.find(instanceID)
}

// Discard removes a staged edit session. Discarding an unknown or already
// discarded instance is not an error, callers may deliver the request more
// than once.
func (s *Service) Discard(ctx context.Context, instanceID string) (string, error) {
	if instanceID == "" {
		return "", errdef.NewBadRequest("instance id required")
	}
	if err := s.repository.delete(instanceID); err != nil {
		return "", err
	}
	return instanceID, nil
}
