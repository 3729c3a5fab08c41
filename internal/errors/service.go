// internal/errors/service.go - error recovery for browser automation flows
package errors

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"
)

// Sentinel kinds for the failure classes the automation flows produce.
// Wrap these so callers can branch with errors.Is.
var (
	ErrLogin      = errors.New("login failed")
	ErrNavigation = errors.New("navigation failed")
	ErrParse      = errors.New("page parse failed")
	ErrDNC        = errors.New("dnc submission failed")
)

// Service provides retry with exponential backoff and per-operation
// circuit breakers for portal and console interactions.
type Service struct {
	retryConfig     RetryConfig
	circuitBreakers map[string]*CircuitBreaker
	mu              sync.RWMutex
}

// RetryConfig defines retry behavior
type RetryConfig struct {
	MaxRetries    int           `yaml:"max_retries" json:"max_retries"`
	BaseDelay     time.Duration `yaml:"base_delay" json:"base_delay"`
	BackoffFactor float64       `yaml:"backoff_factor" json:"backoff_factor"`
	MaxDelay      time.Duration `yaml:"max_delay" json:"max_delay"`
}

// CircuitBreakerState represents the state of a circuit breaker
type CircuitBreakerState int

const (
	CircuitClosed CircuitBreakerState = iota
	CircuitOpen
	CircuitHalfOpen
)

// CircuitBreaker trips an operation open after repeated failures so a
// broken portal page does not get hammered every cycle.
type CircuitBreaker struct {
	name            string
	maxFailures     int
	resetTimeout    time.Duration
	state           CircuitBreakerState
	failures        int
	lastFailureTime time.Time
	nextAttemptTime time.Time
	mu              sync.RWMutex
}

// CircuitBreakerConfig configures circuit breaker behavior
type CircuitBreakerConfig struct {
	MaxFailures  int           `yaml:"max_failures" json:"max_failures"`
	ResetTimeout time.Duration `yaml:"reset_timeout" json:"reset_timeout"`
}

// NewService creates a recovery service with defaults tuned for portal
// polling: short base delay, capped backoff.
func NewService() *Service {
	return &Service{
		retryConfig: RetryConfig{
			MaxRetries:    3,
			BaseDelay:     2 * time.Second,
			BackoffFactor: 2.0,
			MaxDelay:      time.Minute,
		},
		circuitBreakers: make(map[string]*CircuitBreaker),
	}
}

// WithRetryConfig overrides the retry parameters. MaxRetries zero is
// honored (single attempt); negative values keep the default.
func (s *Service) WithRetryConfig(cfg RetryConfig) *Service {
	if cfg.MaxRetries >= 0 {
		s.retryConfig.MaxRetries = cfg.MaxRetries
	}
	if cfg.BaseDelay > 0 {
		s.retryConfig.BaseDelay = cfg.BaseDelay
	}
	if cfg.BackoffFactor > 1 {
		s.retryConfig.BackoffFactor = cfg.BackoffFactor
	}
	if cfg.MaxDelay > 0 {
		s.retryConfig.MaxDelay = cfg.MaxDelay
	}
	return s
}

// ExecuteWithRetry runs the operation with exponential backoff. The
// circuit breaker for operationName gates execution and records every
// outcome.
func (s *Service) ExecuteWithRetry(ctx context.Context, operationName string, operation func() error) error {
	cb := s.getOrCreateCircuitBreaker(operationName)
	if !cb.CanExecute() {
		return fmt.Errorf("circuit breaker open for %s", operationName)
	}

	var lastErr error
	for attempt := 0; attempt <= s.retryConfig.MaxRetries; attempt++ {
		err := operation()
		if err == nil {
			cb.RecordSuccess()
			return nil
		}

		lastErr = err
		cb.RecordFailure()

		if !s.shouldRetry(err, attempt) {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.calculateDelay(attempt)):
		}
	}

	return fmt.Errorf("operation %s failed after %d attempts: %w",
		operationName, s.retryConfig.MaxRetries+1, lastErr)
}

func (s *Service) getOrCreateCircuitBreaker(operationName string) *CircuitBreaker {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cb, exists := s.circuitBreakers[operationName]; exists {
		return cb
	}

	cb := &CircuitBreaker{
		name:         operationName,
		maxFailures:  5,
		resetTimeout: 60 * time.Second,
		state:        CircuitClosed,
	}
	s.circuitBreakers[operationName] = cb
	return cb
}

// ConfigureCircuitBreaker configures the circuit breaker for a specific
// operation.
func (s *Service) ConfigureCircuitBreaker(operationName string, config CircuitBreakerConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.circuitBreakers[operationName] = &CircuitBreaker{
		name:         operationName,
		maxFailures:  config.MaxFailures,
		resetTimeout: config.ResetTimeout,
		state:        CircuitClosed,
	}
}

// shouldRetry reports whether the error looks transient. Login and
// parse failures are terminal: retrying the same credentials or the
// same broken markup cannot help.
func (s *Service) shouldRetry(err error, attempt int) bool {
	if attempt >= s.retryConfig.MaxRetries {
		return false
	}
	if errors.Is(err, ErrLogin) || errors.Is(err, ErrParse) {
		return false
	}
	if errors.Is(err, ErrNavigation) || errors.Is(err, ErrDNC) {
		return true
	}

	errStr := strings.ToLower(err.Error())
	retryable := []string{
		"timeout", "connection refused", "no such host",
		"500", "502", "503", "504", "429",
		"temporary", "service unavailable",
		"context deadline exceeded",
	}
	for _, marker := range retryable {
		if strings.Contains(errStr, marker) {
			return true
		}
	}
	return false
}

// calculateDelay computes exponential backoff delay
func (s *Service) calculateDelay(attempt int) time.Duration {
	delay := time.Duration(float64(s.retryConfig.BaseDelay) *
		math.Pow(s.retryConfig.BackoffFactor, float64(attempt)))
	if delay > s.retryConfig.MaxDelay {
		delay = s.retryConfig.MaxDelay
	}
	return delay
}

// GetExitCode maps an error to a process exit code for the CLI.
func (s *Service) GetExitCode(err error) int {
	if err == nil {
		return 0
	}

	errStr := strings.ToLower(err.Error())
	switch {
	case strings.Contains(errStr, "config") || strings.Contains(errStr, "yaml"):
		return 2
	case errors.Is(err, ErrNavigation) ||
		strings.Contains(errStr, "timeout") || strings.Contains(errStr, "connection") ||
		strings.Contains(errStr, "host"):
		return 3
	case errors.Is(err, ErrParse) || strings.Contains(errStr, "parse") ||
		strings.Contains(errStr, "selector"):
		return 4
	case strings.Contains(errStr, "output") || strings.Contains(errStr, "write"):
		return 5
	case strings.Contains(errStr, "validation"):
		return 6
	case strings.Contains(errStr, "rate limit") || strings.Contains(errStr, "429"):
		return 7
	case errors.Is(err, ErrLogin) || strings.Contains(errStr, "auth") ||
		strings.Contains(errStr, "credential"):
		return 8
	default:
		return 1
	}
}

// CircuitBreaker methods

// CanExecute checks if circuit breaker allows execution
func (cb *CircuitBreaker) CanExecute() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case CircuitClosed:
		return true
	case CircuitOpen:
		if time.Now().After(cb.nextAttemptTime) {
			cb.state = CircuitHalfOpen
			return true
		}
		return false
	case CircuitHalfOpen:
		return true
	default:
		return false
	}
}

// RecordSuccess records successful execution
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures = 0
	cb.state = CircuitClosed
}

// RecordFailure records failed execution
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures++
	cb.lastFailureTime = time.Now()

	if cb.failures >= cb.maxFailures {
		cb.state = CircuitOpen
		cb.nextAttemptTime = time.Now().Add(cb.resetTimeout)
	}
}

// GetState returns current circuit breaker state
func (cb *CircuitBreaker) GetState() CircuitBreakerState {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.state
}

// GetStats returns circuit breaker statistics
func (cb *CircuitBreaker) GetStats() map[string]interface{} {
	cb.mu.RLock()
	defer cb.mu.RUnlock()

	return map[string]interface{}{
		"name":              cb.name,
		"state":             cb.state,
		"failures":          cb.failures,
		"max_failures":      cb.maxFailures,
		"last_failure_time": cb.lastFailureTime,
		"next_attempt_time": cb.nextAttemptTime,
		"reset_timeout":     cb.resetTimeout,
	}
}

// GetCircuitBreakerStats returns statistics for all circuit breakers
func (s *Service) GetCircuitBreakerStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := make(map[string]interface{})
	for name, cb := range s.circuitBreakers {
		stats[name] = cb.GetStats()
	}
	return stats
}

// ResetCircuitBreaker manually resets a circuit breaker
func (s *Service) ResetCircuitBreaker(operationName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cb, exists := s.circuitBreakers[operationName]
	if !exists {
		return fmt.Errorf("circuit breaker not found for operation: %s", operationName)
	}

	cb.mu.Lock()
	cb.failures = 0
	cb.state = CircuitClosed
	cb.mu.Unlock()
	return nil
}
