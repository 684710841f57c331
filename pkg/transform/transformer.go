// Package transform turns XForm XML into the HTML form and XML instance
// model consumed by the webform renderer.
package transform

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"log/slog"
	"runtime"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/odk-sre/webform-manager/internal/errdef"
	"github.com/odk-sre/webform-manager/pkg/model"
)

// Result holds the two fragments produced from one XForm.
type Result struct {
	Form  string `json:"form"`
	Model string `json:"model"`
}

func NewTransformer(logger *slog.Logger, form, instanceModel Stylesheet, workers int64, queueWait time.Duration) *Transformer {
	if workers < 1 {
		workers = int64(runtime.NumCPU())
	}

	versions := form.Version() + modelVersionSeparator + instanceModel.Version()
	sum := md5.Sum([]byte(versions))

	return &Transformer{
		logger:        logger,
		form:          form,
		instanceModel: instanceModel,
		version:       hex.EncodeToString(sum[:]),
		workers:       semaphore.NewWeighted(workers),
		queueWait:     queueWait,
	}
}

const modelVersionSeparator = "\n"

// Transformer runs the two stylesheets on a bounded worker pool sized to the
// available cores. Callers wait at most queueWait for a free worker before
// the transformation is rejected, so load spikes surface as errors instead of
// unbounded latency.
type Transformer struct {
	logger        *slog.Logger
	form          Stylesheet
	instanceModel Stylesheet
	version       string
	workers       *semaphore.Weighted
	queueWait     time.Duration
}

// Version identifies the stylesheet pair. The client cache keys transformed
// forms on it.
func (t *Transformer) Version() string { return t.version }

// Transform produces the HTML form and XML model for one XForm. Output is
// deterministic: identical input and manifest yield byte-identical results.
func (t *Transformer) Transform(ctx context.Context, xform string, manifest []model.MediaFile) (Result, error) {
	acquireCtx, cancel := context.WithTimeout(ctx, t.queueWait)
	defer cancel()
	if err := t.workers.Acquire(acquireCtx, 1); err != nil {
		return Result{}, errdef.NewConflict("transformation workers busy: %v", err)
	}
	defer t.workers.Release(1)

	start := time.Now()

	// surface malformed forms before the transforms run, it is the dominant
	// real-world failure
	doc := []byte(xform)
	if _, err := parseDocument(doc); err != nil {
		return Result{}, err
	}

	formOut, err := t.form.Apply(doc)
	if err != nil {
		return Result{}, classifyTransformErr(err, "form")
	}
	modelOut, err := t.instanceModel.Apply(doc)
	if err != nil {
		return Result{}, classifyTransformErr(err, "model")
	}

	formFragment, err := stripRoot(formOut)
	if err != nil {
		return Result{}, err
	}
	modelFragment, err := stripRoot(modelOut)
	if err != nil {
		return Result{}, err
	}

	if len(manifest) > 0 {
		formTree, err := parseDocument([]byte(formFragment))
		if err != nil {
			return Result{}, err
		}
		rewriteMediaSources(formTree, manifest)
		formFragment = serialize(formTree)
	}

	t.logger.DebugContext(ctx, "transformed XForm", "duration", time.Since(start))

	return Result{Form: formFragment, Model: modelFragment}, nil
}

func classifyTransformErr(err error, stage string) error {
	if errdef.IsMalformed(err) || errdef.IsTransform(err) {
		return err
	}
	return errdef.NewTransform("%s transform failed: %v", stage, err)
}

// stripRoot drops the throwaway root element every stylesheet wraps its
// output in and returns the serialization of the first child element.
func stripRoot(fragment string) (string, error) {
	root, err := parseDocument([]byte(fragment))
	if err != nil {
		return "", err
	}
	first := root.firstElement()
	if first == nil {
		return "", errdef.NewTransform("transform output has no content element")
	}
	return serialize(first), nil
}
