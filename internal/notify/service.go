package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"courtbook/internal/logger"
	"courtbook/internal/metrics"
	"courtbook/internal/slot"
)

const (
	queueKey   = "notices"
	failedKey  = "notices:failed"
	channelKey = "notices:live"

	maxTries = 3
)

type NoticeType string

const (
	TypeBookingConfirmed NoticeType = "booking_confirmed"
	TypeBookingCancelled NoticeType = "booking_cancelled"
	TypeRefundIssued     NoticeType = "refund_issued"
)

// Notice is one queued resident notification.
type Notice struct {
	Type      NoticeType    `json:"type"`
	Requester string        `json:"requester"`
	Facility  string        `json:"facility"`
	Interval  slot.Interval `json:"interval"`
	Amount    int64         `json:"amount,omitempty"`
	Tries     int           `json:"tries"`
	Created   time.Time     `json:"created"`
}

// Service queues notices in a redis list and delivers them from a
// background worker by publishing on a live channel. Queueing is fire
// and forget from the caller's view; delivery retries a few times and
// then parks the notice on a failed list.
type Service struct {
	redis *redis.Client
}

func New(redisAddr string) *Service {
	return NewWithClient(redis.NewClient(&redis.Options{Addr: redisAddr}))
}

func NewWithClient(client *redis.Client) *Service {
	return &Service{redis: client}
}

func (s *Service) Queue(ctx context.Context, n Notice) error {
	n.Tries = 0
	if n.Created.IsZero() {
		n.Created = time.Now()
	}

	data, err := json.Marshal(n)
	if err != nil {
		logger.Errorf("Failed to marshal notice: %v", err)
		return err
	}

	if err := s.redis.LPush(ctx, queueKey, data).Err(); err != nil {
		logger.Errorf("Failed to queue %s notice for %s: %v", n.Type, n.Requester, err)
		metrics.RecordNotification(string(n.Type), "queue_failed")
		return err
	}

	metrics.RecordNotification(string(n.Type), "queued")
	logger.Infof("Notice queued: %s for %s", n.Type, n.Requester)
	return nil
}

func (s *Service) BookingConfirmed(ctx context.Context, requester, facility string, iv slot.Interval, fee int64) error {
	return s.Queue(ctx, Notice{Type: TypeBookingConfirmed, Requester: requester, Facility: facility, Interval: iv, Amount: fee})
}

func (s *Service) BookingCancelled(ctx context.Context, requester, facility string, iv slot.Interval) error {
	return s.Queue(ctx, Notice{Type: TypeBookingCancelled, Requester: requester, Facility: facility, Interval: iv})
}

func (s *Service) RefundIssued(ctx context.Context, requester string, amount int64) error {
	return s.Queue(ctx, Notice{Type: TypeRefundIssued, Requester: requester, Amount: amount})
}

func (s *Service) Start(ctx context.Context) {
	logger.Info("Notification service started")

	for {
		select {
		case <-ctx.Done():
			logger.Info("Notification service stopped")
			return
		default:
			s.processNext(ctx)
		}
	}
}

func (s *Service) processNext(ctx context.Context) {
	result, err := s.redis.BRPop(ctx, 2*time.Second, queueKey).Result()
	if err != nil {
		return
	}

	var n Notice
	if err := json.Unmarshal([]byte(result[1]), &n); err != nil {
		logger.Errorf("Bad notice data: %v", err)
		return
	}

	n.Tries++
	if err := s.deliver(ctx, n); err != nil {
		logger.Errorf("Failed to deliver %s notice for %s: %v", n.Type, n.Requester, err)

		if n.Tries < maxTries {
			data, _ := json.Marshal(n)
			s.redis.LPush(context.Background(), queueKey, data)
			return
		}
		metrics.RecordNotification(string(n.Type), "failed")
		s.saveFailed(n, err)
		return
	}

	metrics.RecordNotification(string(n.Type), "delivered")
}

func (s *Service) deliver(ctx context.Context, n Notice) error {
	data, err := json.Marshal(n)
	if err != nil {
		return err
	}
	return s.redis.Publish(ctx, channelKey, data).Err()
}

func (s *Service) saveFailed(n Notice, err error) {
	failed := map[string]interface{}{
		"notice": n,
		"error":  err.Error(),
		"time":   time.Now(),
	}
	data, _ := json.Marshal(failed)
	s.redis.LPush(context.Background(), failedKey, data)
	logger.Errorf("Notice moved to failed queue: %s for %s", n.Type, n.Requester)
}

func (s *Service) QueueLength(ctx context.Context) int64 {
	length, _ := s.redis.LLen(ctx, queueKey).Result()
	metrics.NotifyQueueLength.Set(float64(length))
	return length
}

func (s *Service) Close() error {
	return s.redis.Close()
}
