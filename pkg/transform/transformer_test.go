package transform

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odk-sre/webform-manager/internal/errdef"
	"github.com/odk-sre/webform-manager/pkg/model"
)

func newTestTransformer(t *testing.T) *Transformer {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	return NewTransformer(logger, NewFormStylesheet(), NewModelStylesheet(), 0, time.Second)
}

func TestTransform(t *testing.T) {
	transformer := newTestTransformer(t)
	ctx := context.Background()

	result, err := transformer.Transform(ctx, widgetsXForm, nil)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(result.Form, `<form class="or"`), "throwaway root must be stripped")
	assert.True(t, strings.HasSuffix(result.Form, "</form>"))
	assert.True(t, strings.HasPrefix(result.Model, "<model>"))
	assert.True(t, strings.HasSuffix(result.Model, "</model>"))
}

func TestTransformIsDeterministic(t *testing.T) {
	transformer := newTestTransformer(t)
	ctx := context.Background()
	manifest := []model.MediaFile{
		{Filename: "form_logo.png", DownloadURL: "https://example.org/media/form_logo.png"},
	}

	first, err := transformer.Transform(ctx, widgetsXForm, manifest)
	require.NoError(t, err)
	second, err := transformer.Transform(ctx, widgetsXForm, manifest)
	require.NoError(t, err)

	assert.Equal(t, first.Form, second.Form)
	assert.Equal(t, first.Model, second.Model)
}

func TestTransformRejectsBrokenForms(t *testing.T) {
	transformer := newTestTransformer(t)
	ctx := context.Background()

	tests := map[string]string{
		"Empty":     "",
		"PlainText": "definitely not a form",
		"Truncated": widgetsXForm[:len(widgetsXForm)/2],
	}

	for name, xform := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := transformer.Transform(ctx, xform, nil)
			require.Error(t, err)
			assert.True(t, errdef.IsMalformed(err))
		})
	}
}

func TestTransformInjectsFormLogo(t *testing.T) {
	transformer := newTestTransformer(t)

	result, err := transformer.Transform(context.Background(), widgetsXForm, []model.MediaFile{
		{Filename: "form_logo.png", DownloadURL: "https://example.org/media/form_logo.png"},
	})
	require.NoError(t, err)

	assert.Contains(t, result.Form, `<img src="/media/get/https/example.org/media/form_logo.png" alt="form logo"/>`)
	assert.NotContains(t, result.Form, "https://example.org/media/form_logo.png")
}

func TestTransformRejectedWhileWorkersBusy(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	transformer := NewTransformer(logger, NewFormStylesheet(), NewModelStylesheet(), 1, 50*time.Millisecond)

	require.NoError(t, transformer.workers.Acquire(context.Background(), 1))
	defer transformer.workers.Release(1)

	_, err := transformer.Transform(context.Background(), widgetsXForm, nil)
	require.Error(t, err)
	assert.True(t, errdef.IsConflict(err))
}

func TestTransformerVersion(t *testing.T) {
	first := newTestTransformer(t)
	second := newTestTransformer(t)

	assert.Len(t, first.Version(), 32)
	assert.Equal(t, first.Version(), second.Version())
}

func TestStripRoot(t *testing.T) {
	fragment, err := stripRoot(`<root><form class="or"><input type="text"/></form></root>`)
	require.NoError(t, err)
	assert.Equal(t, `<form class="or"><input type="text"/></form>`, fragment)

	_, err = stripRoot(`<root>text only</root>`)
	require.Error(t, err)
	assert.True(t, errdef.IsTransform(err))
}
