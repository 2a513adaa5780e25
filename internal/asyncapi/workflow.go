// Package asyncapi implements the spec-generation workflow: requesting
// generation for a topic, caching the single current artifact, and exposing
// the download/copy/open actions that operate on it.
package asyncapi

import (
	"context"
	"encoding/base64"
	"path"
	"path/filepath"
	"sync"

	"regatta/internal/log"
	"regatta/internal/registry"
)

// Backend is the slice of the registry client the workflow needs.
type Backend interface {
	GenerateSpec(ctx context.Context, env, topic string) (*registry.GenerateResult, error)
	GetSpec(ctx context.Context, filename string) (string, error)
	ListSpecs(ctx context.Context) ([]registry.SpecSummary, error)
	DownloadSpec(ctx context.Context, filename, destPath string) error
}

// Artifact is the at-most-one current spec held client-side. Filename and
// Body always describe the same spec: the artifact is replaced wholesale,
// never field by field.
type Artifact struct {
	Topic    string
	Filename string
	Body     string
}

// Workflow drives spec generation and viewing for the currently selected
// environment.
type Workflow struct {
	backend Backend

	// mu guards current. Generate and View run on Bubble Tea command
	// goroutines while the UI goroutine reads through the accessors.
	mu      sync.RWMutex
	current *Artifact
}

// New creates a workflow with no cached artifact.
func New(backend Backend) *Workflow {
	return &Workflow{backend: backend}
}

// Current returns the cached artifact, or nil when none is cached.
// Download/copy/open actions must warn and do nothing on nil.
func (w *Workflow) Current() *Artifact {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// Clear drops the cached artifact. Called when the environment changes.
func (w *Workflow) Clear() {
	w.mu.Lock()
	w.current = nil
	w.mu.Unlock()
}

func (w *Workflow) setCurrent(a *Artifact) {
	w.mu.Lock()
	w.current = a
	w.mu.Unlock()
}

// Generate requests spec generation for a topic. Topics without schema
// associations are refused client-side before any network call; the UI keeps
// their generate control disabled for the same reason.
func (w *Workflow) Generate(ctx context.Context, env string, topic registry.TopicSummary) (*Artifact, error) {
	if topic.SchemasCount == 0 {
		return nil, &registry.ValidationError{Message: "topic has no associated schemas"}
	}

	res, err := w.backend.GenerateSpec(ctx, env, topic.Name)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, &registry.RequestError{Endpoint: topic.Name, Message: "empty generation response"}
	}
	if !res.Success {
		msg := res.Error
		if msg == "" {
			msg = "spec generation failed"
		}
		return nil, &registry.RequestError{Endpoint: topic.Name, Message: msg, Structured: res.Error != ""}
	}

	artifact := &Artifact{
		Topic:    res.Topic,
		Filename: path.Base(res.Filepath),
		Body:     res.Spec,
	}
	w.setCurrent(artifact)
	log.Info(log.CatSpec, "Spec generated", "topic", res.Topic, "filename", artifact.Filename)
	return artifact, nil
}

// View fetches a previously generated spec by filename and makes it the
// current artifact. The topic name is inferred from the filename - a
// best-effort heuristic, since the stored-specs listing does not carry the
// topic.
func (w *Workflow) View(ctx context.Context, filename string) (*Artifact, error) {
	body, err := w.backend.GetSpec(ctx, filename)
	if err != nil {
		return nil, err
	}

	artifact := &Artifact{
		Topic:    TopicFromFilename(filename),
		Filename: filename,
		Body:     body,
	}
	w.setCurrent(artifact)
	log.Info(log.CatSpec, "Spec loaded", "filename", filename, "topic", artifact.Topic)
	return artifact, nil
}

// List returns the stored specs from the backend.
func (w *Workflow) List(ctx context.Context) ([]registry.SpecSummary, error) {
	return w.backend.ListSpecs(ctx)
}

// Download streams the current artifact's stored file into outputDir and
// returns the destination path.
func (w *Workflow) Download(ctx context.Context, outputDir string) (string, error) {
	current := w.Current()
	if current == nil {
		return "", &registry.ValidationError{Message: "no spec loaded"}
	}
	dest := filepath.Join(outputDir, current.Filename)
	if err := w.backend.DownloadSpec(ctx, current.Filename, dest); err != nil {
		return "", err
	}
	return dest, nil
}

// StudioURL builds an AsyncAPI Studio link embedding the current artifact,
// the terminal stand-in for "open in external viewer".
func (w *Workflow) StudioURL() (string, error) {
	current := w.Current()
	if current == nil {
		return "", &registry.ValidationError{Message: "no spec loaded"}
	}
	encoded := base64.URLEncoding.EncodeToString([]byte(current.Body))
	return "https://studio.asyncapi.com/?base64=" + encoded, nil
}
