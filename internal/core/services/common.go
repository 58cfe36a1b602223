package services

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"cagedesk/internal/core/domain"
)

var tracer = otel.Tracer("cagedesk/services")

// Actor is the authenticated staff member behind a request
type Actor struct {
	SessionID string `json:"session_id"`
	Phone     string `json:"phone"`
	Name      string `json:"name"`
	Master    bool   `json:"master"`
}

// SchemaGuard remembers that the store rejected a column or table the code
// depends on. While tripped, welcome and reminder counter writes are skipped;
// everything else keeps working.
type SchemaGuard struct {
	mu     sync.RWMutex
	stale  bool
	reason string
}

// NewSchemaGuard creates an untripped guard
func NewSchemaGuard() *SchemaGuard {
	return &SchemaGuard{}
}

// Observe classifies a store error and trips the guard on a stale schema
func (g *SchemaGuard) Observe(err error) domain.ErrorClass {
	class := domain.ClassifyStoreError(err)
	if class != domain.ErrorClassStaleSchema {
		return class
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.stale {
		log.Printf("⚠️ Store schema is behind the code, counter writes disabled: %v", err)
	}
	g.stale = true
	g.reason = err.Error()
	return class
}

// Stale reports whether the guard is tripped
func (g *SchemaGuard) Stale() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.stale
}

// Reason is the error text that tripped the guard
func (g *SchemaGuard) Reason() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.reason
}

// Reset clears the guard after a successful migration
func (g *SchemaGuard) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.stale = false
	g.reason = ""
}

// storeError wraps a failed store call with its class sentinel.
// Record-not-found is passed through for callers to map.
func storeError(guard *SchemaGuard, op string, err error) error {
	if err == nil || errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	class := domain.ClassifyStoreError(err)
	if guard != nil {
		class = guard.Observe(err)
	}
	if class == domain.ErrorClassStaleSchema {
		return fmt.Errorf("%s: %w: %v", op, domain.ErrStaleSchema, err)
	}
	return fmt.Errorf("%s: %w: %v", op, domain.ErrStoreUnavailable, err)
}

// endSpan records err on span and ends it
func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
