package biz

import (
	"context"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/tenonhq/tenon/internal/authz"
	"github.com/tenonhq/tenon/internal/log"
	"github.com/tenonhq/tenon/internal/server/db"
)

// AuditService persists best-effort audit records through a buffered
// worker. Delivery is fire-and-forget: a full buffer drops the record and
// a failed write only logs. Auditing never fails the primary operation.
type AuditService struct {
	*AbstractService

	// mu guards closed so a late Record can never send on a closed channel.
	mu      sync.Mutex
	closed  bool
	records chan db.AuditRecord
	done    chan struct{}
}

const auditBufferSize = 256

func NewAuditService(client *gorm.DB) *AuditService {
	return &AuditService{
		AbstractService: &AbstractService{db: client},
		records:         make(chan db.AuditRecord, auditBufferSize),
		done:            make(chan struct{}),
	}
}

// Record enqueues one audit record without blocking.
func (s *AuditService) Record(ctx context.Context, record db.AuditRecord) {
	if record.OccurredAt.IsZero() {
		record.OccurredAt = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		log.Warn(ctx, "audit service stopped, record dropped",
			log.String("operation", record.Operation),
			log.String("reason", record.Reason),
		)

		return
	}

	select {
	case s.records <- record:
	default:
		log.Warn(ctx, "audit buffer full, record dropped",
			log.String("operation", record.Operation),
			log.String("reason", record.Reason),
		)
	}
}

// Start launches the writer and routes tenant-scope bypass audits here.
func (s *AuditService) Start(ctx context.Context) error {
	authz.SetAuditLogger(func(ctx context.Context, record authz.BypassAuditRecord) {
		s.Record(ctx, db.AuditRecord{
			Actor:       record.Actor,
			Operation:   record.Operation,
			Reason:      record.Reason,
			Description: record.Description,
			OccurredAt:  record.Timestamp,
		})
	})

	go s.run()

	return nil
}

// Stop drains the buffer and stops the writer.
func (s *AuditService) Stop(ctx context.Context) error {
	authz.SetAuditLogger(nil)

	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.records)
	}
	s.mu.Unlock()

	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *AuditService) run() {
	defer close(s.done)

	for record := range s.records {
		if err := s.db.Create(&record).Error; err != nil {
			log.Warn(context.Background(), "audit write failed",
				log.String("operation", record.Operation),
				log.Cause(err),
			)
		}
	}
}
