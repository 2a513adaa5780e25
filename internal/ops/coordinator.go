// Package ops coordinates destructive registry operations: single soft/hard
// delete, bulk preview/execute, and purge. It owns the pending bulk selection
// and its reset rules; UI-level confirmation (inline prompt for soft delete,
// danger modal for hard/bulk/purge) happens before any method here is called.
package ops

import (
	"context"
	"fmt"
	"sync"

	"regatta/internal/log"
	"regatta/internal/registry"
)

// Backend is the slice of the registry client the coordinator needs.
type Backend interface {
	Schemas(ctx context.Context, env string, filter registry.SchemaFilter) ([]registry.SubjectSummary, error)
	SoftDelete(ctx context.Context, env, subject string) (*registry.DeleteResult, error)
	HardDelete(ctx context.Context, env, subject string) (*registry.DeleteResult, error)
	BulkDelete(ctx context.Context, env string, subjects []string, typ registry.BulkType) (*registry.BulkResult, error)
	PurgeSoftDeleted(ctx context.Context, env string) (int, error)
}

// Recorder receives a local audit record for every destructive operation
// that reached the backend. A nil Recorder disables auditing.
type Recorder interface {
	Record(env, operation string, subjects []string, outcome string, successCount, failureCount int)
}

// Coordinator enforces the confirm-then-execute protocol for destructive
// operations against one selected environment.
type Coordinator struct {
	backend  Backend
	recorder Recorder

	// mu guards env, executing and pending. Operations run on Bubble Tea
	// command goroutines while the UI goroutine polls the accessors.
	mu        sync.RWMutex
	env       string
	executing bool

	// pending is the live bulk selection produced by the last preview.
	// At most one selection is live at a time: a new preview or an execute
	// (regardless of outcome) invalidates it.
	pending []string
}

// New creates a coordinator. recorder may be nil.
func New(backend Backend, recorder Recorder) *Coordinator {
	return &Coordinator{backend: backend, recorder: recorder}
}

// SetEnvironment selects the environment all operations act against and
// clears any pending selection from the previous one.
func (c *Coordinator) SetEnvironment(env string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.env = env
	c.pending = nil
}

// Environment returns the currently selected environment.
func (c *Coordinator) Environment() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.env
}

// Selection returns the live pending bulk selection, in preview order.
func (c *Coordinator) Selection() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.pending
}

// HasSelection reports whether a non-empty selection is live. Bulk execute
// must be disabled in the UI while this is false.
func (c *Coordinator) HasSelection() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.pending) > 0
}

// Executing reports whether a destructive operation is in flight.
func (c *Coordinator) Executing() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.executing
}

func (c *Coordinator) requireEnv() (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.env == "" {
		return "", &registry.ValidationError{Message: "no environment selected"}
	}
	return c.env, nil
}

// begin atomically claims the single in-flight slot and snapshots the target
// environment, so the check-then-set cannot interleave with another caller.
func (c *Coordinator) begin() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.env == "" {
		return "", &registry.ValidationError{Message: "no environment selected"}
	}
	if c.executing {
		return "", &registry.ValidationError{Message: "another operation is in flight"}
	}
	c.executing = true
	return c.env, nil
}

func (c *Coordinator) end() {
	c.mu.Lock()
	c.executing = false
	c.mu.Unlock()
}

// SoftDelete marks one subject deleted (recoverable). The caller re-fetches
// the subject list on success; nothing is patched locally.
func (c *Coordinator) SoftDelete(ctx context.Context, subject string) error {
	env, err := c.begin()
	if err != nil {
		return err
	}
	defer c.end()

	res, err := c.backend.SoftDelete(ctx, env, subject)
	if err != nil {
		c.record(env, "soft_delete", []string{subject}, "failed", 0, 1)
		return err
	}
	if !res.Success {
		c.record(env, "soft_delete", []string{subject}, "failed", 0, 1)
		return &registry.RequestError{Endpoint: subject, Message: resultError(res), Structured: res.Error != ""}
	}
	c.record(env, "soft_delete", []string{subject}, "success", 1, 0)
	log.Info(log.CatAPI, "Subject soft-deleted", "env", env, "subject", subject)
	return nil
}

// HardDelete irreversibly removes one subject. The client asserts
// confirm:true in the request body; the heavier modal confirmation happens
// in the UI before this is called.
func (c *Coordinator) HardDelete(ctx context.Context, subject string) error {
	env, err := c.begin()
	if err != nil {
		return err
	}
	defer c.end()

	res, err := c.backend.HardDelete(ctx, env, subject)
	if err != nil {
		c.record(env, "hard_delete", []string{subject}, "failed", 0, 1)
		return err
	}
	if !res.Success {
		c.record(env, "hard_delete", []string{subject}, "failed", 0, 1)
		return &registry.RequestError{Endpoint: subject, Message: resultError(res), Structured: res.Error != ""}
	}
	c.record(env, "hard_delete", []string{subject}, "success", 1, 0)
	log.Info(log.CatAPI, "Subject hard-deleted", "env", env, "subject", subject)
	return nil
}

// Preview derives the bulk selection from the given filter. At least one of
// pattern or min-versions must be set; otherwise this fails fast with a
// validation error and performs no network call. The result replaces any
// previous selection, even when empty.
func (c *Coordinator) Preview(ctx context.Context, filter registry.SchemaFilter) ([]string, error) {
	env, err := c.requireEnv()
	if err != nil {
		return nil, err
	}
	if filter.IsZero() {
		return nil, &registry.ValidationError{Message: "set a name pattern or minimum version count before previewing"}
	}

	subjects, err := c.backend.Schemas(ctx, env, filter)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(subjects))
	for _, s := range subjects {
		names = append(names, s.Subject)
	}
	c.mu.Lock()
	c.pending = names
	c.mu.Unlock()
	log.Info(log.CatAPI, "Bulk preview", "env", env, "matches", len(names))
	return names, nil
}

// Execute consumes the live selection as-is - it is never re-derived, so the
// user commits to exactly the list they inspected. The selection is reset
// afterwards regardless of outcome. Partial failures are reported as counts;
// successes are not rolled back.
func (c *Coordinator) Execute(ctx context.Context, typ registry.BulkType) (*registry.BulkResult, error) {
	c.mu.Lock()
	if c.env == "" {
		c.mu.Unlock()
		return nil, &registry.ValidationError{Message: "no environment selected"}
	}
	if len(c.pending) == 0 {
		c.mu.Unlock()
		return nil, &registry.ValidationError{Message: "no subjects selected - run a preview first"}
	}
	if c.executing {
		c.mu.Unlock()
		return nil, &registry.ValidationError{Message: "another operation is in flight"}
	}
	c.executing = true
	env := c.env
	subjects := c.pending
	c.pending = nil
	c.mu.Unlock()
	defer c.end()

	res, err := c.backend.BulkDelete(ctx, env, subjects, typ)
	if err != nil {
		c.record(env, "bulk_"+string(typ)+"_delete", subjects, "failed", 0, len(subjects))
		return nil, err
	}
	outcome := "success"
	if res.FailureCount > 0 {
		outcome = "partial"
	}
	c.record(env, "bulk_"+string(typ)+"_delete", subjects, outcome, res.SuccessCount, res.FailureCount)
	log.Info(log.CatAPI, "Bulk delete executed",
		"env", env, "type", typ, "success", res.SuccessCount, "failure", res.FailureCount)
	return res, nil
}

// Purge permanently removes every soft-deleted subject in the environment.
// No preview step exists; a single modal confirmation gates a single request.
func (c *Coordinator) Purge(ctx context.Context) (int, error) {
	env, err := c.begin()
	if err != nil {
		return 0, err
	}
	defer c.end()

	count, err := c.backend.PurgeSoftDeleted(ctx, env)
	if err != nil {
		c.record(env, "purge_soft_deleted", nil, "failed", 0, 0)
		return 0, err
	}
	c.record(env, "purge_soft_deleted", nil, "success", count, 0)
	log.Info(log.CatAPI, "Soft-deleted subjects purged", "env", env, "count", count)
	return count, nil
}

func (c *Coordinator) record(env, operation string, subjects []string, outcome string, successCount, failureCount int) {
	if c.recorder == nil {
		return
	}
	c.recorder.Record(env, operation, subjects, outcome, successCount, failureCount)
}

func resultError(res *registry.DeleteResult) string {
	if res.Error != "" {
		return res.Error
	}
	return "operation failed"
}

// ConfirmWording returns the modal message for a bulk execute. Hard and soft
// bulk deletes deliberately read differently: the irreversible one says so.
func ConfirmWording(typ registry.BulkType, count int) string {
	switch typ {
	case registry.BulkHard:
		return fmt.Sprintf("Permanently delete %d subject(s)?\n\nThis action cannot be undone.", count)
	default:
		return fmt.Sprintf("Soft-delete %d subject(s)?\n\nSubjects can be restored later.", count)
	}
}
