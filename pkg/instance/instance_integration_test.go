package instance

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odk-sre/webform-manager/internal/errdef"
	"github.com/odk-sre/webform-manager/pkg/inttest"
	"github.com/odk-sre/webform-manager/pkg/model"
)

func TestInstanceService(t *testing.T) {
	t.Parallel()

	client := inttest.SetupRedis(t)
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	ctx := context.Background()

	newInstance := func(id string) model.Instance {
		return model.Instance{
			InstanceID:     id,
			OpenRosaServer: "https://example.org/central",
			OpenRosaID:     "widgets",
			Instance:       `<data id="widgets"><name>one</name></data>`,
			ReturnURL:      "https://example.org/return",
			InstanceAttachments: map[string]string{
				"photo.jpg": "https://example.org/media/photo.jpg",
			},
		}
	}

	t.Run("StageAndRetrieve", func(t *testing.T) {
		service := NewService(logger, NewRepository(client, time.Minute))

		staged, err := service.Stage(ctx, newInstance("uuid:1"))
		require.NoError(t, err)
		require.NotNil(t, staged)

		found, err := service.Retrieve(ctx, "uuid:1")
		require.NoError(t, err)
		assert.Equal(t, "https://example.org/central", found.OpenRosaServer)
		assert.Equal(t, "widgets", found.OpenRosaID)
		assert.Equal(t, `<data id="widgets"><name>one</name></data>`, found.Instance)
		assert.Equal(t, "https://example.org/return", found.ReturnURL)
		assert.Equal(t, map[string]string{"photo.jpg": "https://example.org/media/photo.jpg"}, found.InstanceAttachments)
	})

	t.Run("StageRequiresAllFields", func(t *testing.T) {
		service := NewService(logger, NewRepository(client, time.Minute))

		incomplete := newInstance("uuid:2")
		incomplete.Instance = ""

		_, err := service.Stage(ctx, incomplete)
		require.Error(t, err)
		assert.True(t, errdef.IsBadRequest(err))
	})

	t.Run("StagingTwiceConflicts", func(t *testing.T) {
		service := NewService(logger, NewRepository(client, time.Minute))

		_, err := service.Stage(ctx, newInstance("uuid:3"))
		require.NoError(t, err)

		_, err = service.Stage(ctx, newInstance("uuid:3"))
		require.Error(t, err)
		assert.True(t, errdef.IsConflict(err))
	})

	t.Run("StagedInstanceExpires", func(t *testing.T) {
		service := NewService(logger, NewRepository(client, time.Second))

		_, err := service.Stage(ctx, newInstance("uuid:4"))
		require.NoError(t, err)

		assert.Eventually(t, func() bool {
			_, err := service.Retrieve(ctx, "uuid:4")
			return errdef.IsNotFound(err)
		}, 5*time.Second, 100*time.Millisecond)

		// once expired the record is free to be staged again
		_, err = service.Stage(ctx, newInstance("uuid:4"))
		require.NoError(t, err)
	})

	t.Run("DiscardIsIdempotent", func(t *testing.T) {
		service := NewService(logger, NewRepository(client, time.Minute))

		_, err := service.Stage(ctx, newInstance("uuid:5"))
		require.NoError(t, err)

		id, err := service.Discard(ctx, "uuid:5")
		require.NoError(t, err)
		assert.Equal(t, "uuid:5", id)

		_, err = service.Retrieve(ctx, "uuid:5")
		require.Error(t, err)
		assert.True(t, errdef.IsNotFound(err))

		id, err = service.Discard(ctx, "uuid:5")
		require.NoError(t, err)
		assert.Equal(t, "uuid:5", id)
	})

	t.Run("RetrieveUnknownFails", func(t *testing.T) {
		service := NewService(logger, NewRepository(client, time.Minute))

		_, err := service.Retrieve(ctx, "uuid:unknown")
		require.Error(t, err)
		assert.True(t, errdef.IsNotFound(err))
	})
}
