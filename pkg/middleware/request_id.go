package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	apperrors "storefront-service/pkg/errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// RequestIDHeader is the HTTP header name for request ID
	RequestIDHeader = "X-Request-ID"
	// RequestIDContextKey is the context key for request ID
	RequestIDContextKey = "request_id"
	// IdempotentReplayHeader marks a response served from the idempotency store
	IdempotentReplayHeader = "X-Idempotent-Replay"
)

type requestIDContextKey struct{}

// RequestIDStore keeps the responses of processed write requests
type RequestIDStore interface {
	// Reserve claims key for an in-flight request. It returns false if the key is already taken.
	Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error)
	// Store saves the response for key, replacing any reservation
	Store(ctx context.Context, key string, response []byte, ttl time.Duration) error
	// Get returns the stored response, ErrRequestIDNotFound if there is none
	Get(ctx context.Context, key string) ([]byte, error)
	// Release drops a reservation whose request did not succeed
	Release(ctx context.Context, key string) error
}

var (
	ErrRequestIDNotFound = &RequestIDError{Message: "request ID not found"}
)

type RequestIDError struct {
	Message string
}

func (e *RequestIDError) Error() string {
	return e.Message
}

// InMemoryRequestIDStore is an in-memory implementation of RequestIDStore for single-instance deployments
type InMemoryRequestIDStore struct {
	mu      sync.Mutex
	store   map[string]requestIDEntry
	cleanup *time.Ticker
	done    chan struct{}
	once    sync.Once
}

type requestIDEntry struct {
	response  []byte
	expiresAt time.Time
}

// NewInMemoryRequestIDStore creates a new in-memory request ID store
func NewInMemoryRequestIDStore() *InMemoryRequestIDStore {
	store := &InMemoryRequestIDStore{
		store:   make(map[string]requestIDEntry),
		cleanup: time.NewTicker(1 * time.Minute),
		done:    make(chan struct{}),
	}

	go store.cleanupExpired()

	return store
}

func (s *InMemoryRequestIDStore) Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.live(key); ok {
		return false, nil
	}
	s.store[key] = requestIDEntry{response: pendingRecord, expiresAt: time.Now().Add(ttl)}
	return true, nil
}

func (s *InMemoryRequestIDStore) Store(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.store[key] = requestIDEntry{
		response:  response,
		expiresAt: time.Now().Add(ttl),
	}
	return nil
}

func (s *InMemoryRequestIDStore) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.live(key)
	if !ok {
		return nil, ErrRequestIDNotFound
	}
	return entry.response, nil
}

func (s *InMemoryRequestIDStore) Release(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.store, key)
	return nil
}

// Close stops the cleanup loop
func (s *InMemoryRequestIDStore) Close() {
	s.once.Do(func() {
		s.cleanup.Stop()
		close(s.done)
	})
}

// live returns the entry for key if it has not expired. Callers hold mu.
func (s *InMemoryRequestIDStore) live(key string) (requestIDEntry, bool) {
	entry, exists := s.store[key]
	if !exists {
		return requestIDEntry{}, false
	}
	if time.Now().After(entry.expiresAt) {
		delete(s.store, key)
		return requestIDEntry{}, false
	}
	return entry, true
}

func (s *InMemoryRequestIDStore) cleanupExpired() {
	for {
		select {
		case <-s.done:
			return
		case <-s.cleanup.C:
			s.mu.Lock()
			now := time.Now()
			for id, entry := range s.store {
				if now.After(entry.expiresAt) {
					delete(s.store, id)
				}
			}
			s.mu.Unlock()
		}
	}
}

// RequestIDMiddleware extracts or generates X-Request-ID header
func RequestIDMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
			logger.Debug("Generated new request ID",
				zap.String("request_id", requestID),
				zap.String("path", c.Request.URL.Path),
				zap.String("method", c.Request.Method),
			)
		}

		c.Set(RequestIDContextKey, requestID)
		c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), requestIDContextKey{}, requestID))
		c.Header(RequestIDHeader, requestID)

		c.Next()
	}
}

// GetRequestID retrieves the request ID from the Gin context
func GetRequestID(c *gin.Context) string {
	return c.GetString(RequestIDContextKey)
}

// RequestIDFromContext retrieves the request ID from a request context
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDContextKey{}).(string)
	return id
}

// pendingRecord is stored by Reserve until the response is known
var pendingRecord = []byte(`{"status":0}`)

// storedResponse is what the idempotency store keeps per request.
// Status 0 marks a request still being processed.
type storedResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"contentType"`
	Body        []byte `json:"body"`
}

// IdempotencyMiddleware replays the stored response of a write request whose
// client-supplied X-Request-ID was already processed successfully. A duplicate
// that arrives while the first is still running gets a Conflict.
func IdempotencyMiddleware(store RequestIDStore, logger *zap.Logger, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if isSafeMethod(c.Request.Method) || c.GetHeader(RequestIDHeader) == "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		key := idempotencyKey(c)

		if cached, err := store.Get(ctx, key); err == nil {
			var stored storedResponse
			if err := json.Unmarshal(cached, &stored); err == nil {
				if stored.Status == 0 {
					logger.Warn("Duplicate request while original is in flight",
						zap.String("request_id", GetRequestID(c)),
						zap.String("path", c.Request.URL.Path),
					)
					abortWith(c, apperrors.NewStandardError("Conflict", "request is already being processed", "Header: "+RequestIDHeader))
					return
				}
				logger.Info("Duplicate request detected, returning cached response",
					zap.String("request_id", GetRequestID(c)),
					zap.String("path", c.Request.URL.Path),
					zap.String("method", c.Request.Method),
				)
				c.Header(IdempotentReplayHeader, "true")
				c.Data(stored.Status, stored.ContentType, stored.Body)
				c.Abort()
				return
			}
		} else if !errors.Is(err, ErrRequestIDNotFound) {
			logger.Warn("Error reading idempotency store", zap.String("key", key), zap.Error(err))
			c.Next()
			return
		}

		reserved, err := store.Reserve(ctx, key, ttl)
		if err != nil {
			logger.Warn("Error reserving request ID", zap.String("key", key), zap.Error(err))
			c.Next()
			return
		}
		if !reserved {
			abortWith(c, apperrors.NewStandardError("Conflict", "request is already being processed", "Header: "+RequestIDHeader))
			return
		}

		writer := &responseWriter{ResponseWriter: c.Writer}
		c.Writer = writer

		c.Next()

		status := writer.Status()
		if status < http.StatusOK || status >= http.StatusMultipleChoices || len(writer.body) == 0 {
			if err := store.Release(ctx, key); err != nil {
				logger.Warn("Failed to release request ID", zap.String("key", key), zap.Error(err))
			}
			return
		}

		payload, err := json.Marshal(storedResponse{
			Status:      status,
			ContentType: writer.Header().Get("Content-Type"),
			Body:        writer.body,
		})
		if err == nil {
			err = store.Store(ctx, key, payload, ttl)
		}
		if err != nil {
			logger.Warn("Failed to store response for idempotency", zap.String("key", key), zap.Error(err))
			return
		}
		logger.Debug("Stored response for idempotency",
			zap.String("key", key),
			zap.Int("status", status),
		)
	}
}

func idempotencyKey(c *gin.Context) string {
	return c.GetString(UserIDContextKey) + "|" + c.Request.Method + " " + c.Request.URL.Path + "|" + GetRequestID(c)
}

func isSafeMethod(method string) bool {
	return method == http.MethodGet || method == http.MethodHead || method == http.MethodOptions
}

// responseWriter captures the response body
type responseWriter struct {
	gin.ResponseWriter
	body []byte
}

func (w *responseWriter) Write(b []byte) (int, error) {
	w.body = append(w.body, b...)
	return w.ResponseWriter.Write(b)
}

func (w *responseWriter) WriteString(s string) (int, error) {
	w.body = append(w.body, s...)
	return w.ResponseWriter.WriteString(s)
}
