// Package form holds the state of one product editing session: the draft,
// the schema compiled for the selected category and the variant rows.
package form

import (
	"context"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/fekuna/omnipos-attribute-service/internal/apperror"
	"github.com/fekuna/omnipos-attribute-service/internal/logger"
	"github.com/fekuna/omnipos-attribute-service/internal/model"
	"github.com/fekuna/omnipos-attribute-service/internal/schema"
	"github.com/fekuna/omnipos-attribute-service/internal/variant"
)

// Draft is the product being edited. Attributes is keyed by attribute id.
type Draft struct {
	Name        string                 `json:"name"`
	SKU         string                 `json:"sku"`
	Price       decimal.Decimal        `json:"price"`
	Description string                 `json:"description"`
	Tags        []string               `json:"tags"`
	Images      []string               `json:"images"`
	CategoryID  string                 `json:"categoryId"`
	Attributes  map[string]interface{} `json:"attributes"`
	Variants    []model.Variant        `json:"variants"`
}

type Status string

const (
	StatusIdle     Status = "IDLE"
	StatusLoading  Status = "LOADING"
	StatusReady    Status = "READY"
	StatusDegraded Status = "DEGRADED"
)

// Session is safe for concurrent use: schema fetches complete on their own
// goroutine while the editor keeps reading and writing the draft.
type Session struct {
	mu         sync.Mutex
	compiler   *schema.Compiler
	variants   *variant.Manager
	logger     logger.ZapLogger
	draft      Draft
	schema     *schema.CompiledSchema
	status     Status
	fetchErr   error
	generation uint64
	cancel     context.CancelFunc
}

func NewSession(compiler *schema.Compiler, variants *variant.Manager, log logger.ZapLogger) *Session {
	return &Session{
		compiler: compiler,
		variants: variants,
		logger:   log,
		draft:    Draft{Attributes: map[string]interface{}{}},
		schema:   schema.Empty(),
		status:   StatusIdle,
	}
}

// SelectCategory switches the draft to categoryID. Only Attributes is reset;
// every other draft field is kept. The category's schema is fetched in the
// background and the returned channel is closed once that fetch settles. A
// fetch overtaken by a later selection is cancelled and its result dropped.
func (s *Session) SelectCategory(ctx context.Context, categoryID string) <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.draft.CategoryID = categoryID
	s.draft.Attributes = map[string]interface{}{}
	return s.startFetch(ctx)
}

// Retry fetches the current category's schema again, e.g. after a failure.
func (s *Session) Retry(ctx context.Context) <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.startFetch(ctx)
}

// startFetch must be called with s.mu held.
func (s *Session) startFetch(ctx context.Context) <-chan struct{} {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.generation++
	gen := s.generation
	categoryID := s.draft.CategoryID

	s.schema = schema.Empty()
	s.fetchErr = nil

	done := make(chan struct{})
	if categoryID == "" {
		s.status = StatusIdle
		close(done)
		return done
	}

	fetchCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.status = StatusLoading

	go func() {
		defer close(done)
		defer cancel()
		compiled, err := s.compiler.CompileCategory(fetchCtx, categoryID)
		s.apply(gen, categoryID, compiled, err)
	}()
	return done
}

func (s *Session) apply(gen uint64, categoryID string, compiled *schema.CompiledSchema, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation {
		s.logger.Debug("discarding stale schema",
			zap.String("category_id", categoryID),
			zap.Uint64("generation", gen),
		)
		return
	}
	s.cancel = nil

	if err != nil {
		s.logger.Warn("schema fetch failed, using empty schema",
			zap.String("category_id", categoryID),
			zap.Error(err),
		)
		s.schema = schema.Empty()
		s.fetchErr = err
		s.status = StatusDegraded
		return
	}
	s.schema = compiled
	s.status = StatusReady
}

// Close cancels any fetch still in flight.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.generation++
}

func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Err is the last fetch failure, cleared by a successful fetch or Retry.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetchErr
}

// Schema is the last compiled schema; the empty schema while loading or after
// a failed fetch.
func (s *Session) Schema() *schema.CompiledSchema {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.schema
}

// Draft returns a copy of the current draft.
func (s *Session) Draft() Draft {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// Edit changes the scalar fields of the draft. CategoryID, Attributes and
// Variants have their own setters and are restored after fn returns.
func (s *Session) Edit(fn func(d *Draft)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	categoryID, attrs, variants := s.draft.CategoryID, s.draft.Attributes, s.draft.Variants
	fn(&s.draft)
	s.draft.CategoryID, s.draft.Attributes, s.draft.Variants = categoryID, attrs, variants
}

func (s *Session) SetAttribute(attributeID string, value interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft.Attributes[attributeID] = value
}

func (s *Session) SetAttributes(values map[string]interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range values {
		s.draft.Attributes[k] = v
	}
}

// EditVariants runs fn against the variant manager under the session lock.
func (s *Session) EditVariants(fn func(m *variant.Manager) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.variants)
}

// Submit validates the draft and returns it with Attributes in storage form
// and Variants taken from the variant manager. A draft whose schema is still
// loading is rejected; a degraded session validates against the empty
// schema.
func (s *Session) Submit() (Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status == StatusLoading {
		return Draft{}, apperror.NewValidation(apperror.CodeInvalidInput, "attributes",
			"attribute schema is still loading")
	}

	var fields []apperror.FieldError
	if strings.TrimSpace(s.draft.Name) == "" {
		fields = append(fields, apperror.FieldError{Field: "name", Code: apperror.CodeRequired, Message: "name is required"})
	}
	if s.draft.Price.IsNegative() {
		fields = append(fields, apperror.FieldError{Field: "price", Code: apperror.CodeOutOfRange, Message: "price must not be negative"})
	}

	res := s.schema.Validate(s.draft.Attributes)
	fields = append(fields, res.Errors...)
	if len(fields) > 0 {
		return Draft{}, apperror.NewValidationFields(fields)
	}

	normalized, err := s.schema.Normalize(s.draft.Attributes)
	if err != nil {
		return Draft{}, err
	}
	if err := s.variants.Validate(); err != nil {
		return Draft{}, err
	}

	out := s.snapshot()
	out.Attributes = normalized
	out.Variants = s.variants.Variants()
	return out, nil
}

func (s *Session) snapshot() Draft {
	d := s.draft
	d.Tags = append([]string(nil), s.draft.Tags...)
	d.Images = append([]string(nil), s.draft.Images...)
	d.Attributes = make(map[string]interface{}, len(s.draft.Attributes))
	for k, v := range s.draft.Attributes {
		d.Attributes[k] = v
	}
	d.Variants = s.variants.Variants()
	return d
}
