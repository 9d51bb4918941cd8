package notification

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/police-portal/platform/internal/shared/metrics"
	"github.com/police-portal/platform/internal/shared/types"
)

// ServiceConfig holds service configuration
type ServiceConfig struct {
	Workers     int
	BufferSize  int
	SaveTimeout time.Duration
}

// DefaultServiceConfig returns default configuration
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		Workers:     4,
		BufferSize:  1000,
		SaveTimeout: 5 * time.Second,
	}
}

// Service delivers in-app notifications. Notify is fire and forget:
// notifications are queued on a channel and a pool of workers persists
// them, so request handlers never block on the notification store.
type Service struct {
	repo *Repository

	notifCh chan *Notification
	workers int
	timeout time.Duration

	mu      sync.Mutex
	started bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewService creates a new notification service
func NewService(repo *Repository, config ServiceConfig) *Service {
	return &Service{
		repo:    repo,
		notifCh: make(chan *Notification, config.BufferSize),
		workers: config.Workers,
		timeout: config.SaveTimeout,
		stopCh:  make(chan struct{}),
	}
}

// Start starts the worker pool
func (s *Service) Start() error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return fmt.Errorf("service already started")
	}
	s.started = true
	s.mu.Unlock()

	for i := 0; i < s.workers; i++ {
		s.wg.Add(1)
		go s.worker()
	}

	return nil
}

// Stop drains the queue and stops the workers
func (s *Service) Stop() error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return fmt.Errorf("service not started")
	}
	s.mu.Unlock()

	close(s.stopCh)
	s.wg.Wait()

	return nil
}

// Notify queues an in-app notification for the user. The request
// context is not used for persistence; a dropped request must not lose
// the notification.
func (s *Service) Notify(ctx context.Context, userID types.ID, caseID *types.ID, notifType string, payload map[string]any) {
	n := New(userID, caseID, notifType, payload)

	select {
	case s.notifCh <- n:
	default:
		log.Printf("notification buffer full, dropping %s for user %s", notifType, userID)
	}
}

func (s *Service) worker() {
	defer s.wg.Done()

	for {
		select {
		case <-s.stopCh:
			// Drain whatever is still queued before exiting
			for {
				select {
				case n := <-s.notifCh:
					s.deliver(n)
				default:
					return
				}
			}
		case n := <-s.notifCh:
			s.deliver(n)
		}
	}
}

func (s *Service) deliver(n *Notification) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if err := s.repo.Create(ctx, n); err != nil {
		log.Printf("failed to deliver notification %s: %v", n.ID, err)
		return
	}
	metrics.RecordNotification(n.Type)
}
