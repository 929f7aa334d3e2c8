package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/dinedorm/server/internal/core/ports"
	"github.com/dinedorm/server/pkg/metrics"
)

const (
	defaultWorkers     = 4
	channelBuffer      = 256
	defaultMaxAttempts = 5
	defaultBackoff     = 500 * time.Millisecond
)

// Dispatcher retries badge updates that failed inline. Updates are routed to a
// fixed set of workers by hashing the payer email, so updates for one user are
// applied in the order they were queued.
type Dispatcher struct {
	workers     []chan ports.BadgeUpdate
	applier     ports.BadgeApplier
	maxAttempts int
	backoff     time.Duration
	log         zerolog.Logger
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, applier ports.BadgeApplier, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers:     make([]chan ports.BadgeUpdate, numWorkers),
		applier:     applier,
		maxAttempts: defaultMaxAttempts,
		backoff:     defaultBackoff,
		log:         log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan ports.BadgeUpdate, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// Enqueue hands an update to the worker responsible for its email. When that
// worker's buffer is full the update is dropped and left to the reconciler,
// so a request never blocks on the queue.
func (d *Dispatcher) Enqueue(u ports.BadgeUpdate) {
	idx := d.shardIndex(u.Email)
	select {
	case d.workers[idx] <- u:
		metrics.BadgeQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
	default:
		metrics.BadgeRetriesTotal.WithLabelValues("gave_up").Inc()
		d.log.Warn().
			Str("payment_id", u.PaymentID).
			Str("email", u.Email).
			Int("worker_id", idx).
			Msg("badge retry queue full, leaving update to reconciler")
	}
}

// shardIndex maps an email deterministically to a worker index.
func (d *Dispatcher) shardIndex(email string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(email))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan ports.BadgeUpdate) {
	for {
		select {
		case <-ctx.Done():
			return
		case u, ok := <-ch:
			if !ok {
				return
			}
			metrics.BadgeQueueDepth.WithLabelValues(strconv.Itoa(id)).Set(float64(len(ch)))
			d.process(ctx, id, u)
		}
	}
}

// process retries one update with linear backoff until it succeeds, attempts
// run out, or ctx is cancelled.
func (d *Dispatcher) process(ctx context.Context, id int, u ports.BadgeUpdate) {
	for u.Attempt < d.maxAttempts {
		u.Attempt++
		err := d.applier.ApplyBadge(ctx, u)
		if err == nil {
			metrics.BadgeRetriesTotal.WithLabelValues("settled").Inc()
			d.log.Info().
				Str("payment_id", u.PaymentID).
				Str("email", u.Email).
				Int("attempt", u.Attempt).
				Msg("queued badge settled")
			return
		}

		metrics.BadgeRetriesTotal.WithLabelValues("retry").Inc()
		d.log.Warn().Err(err).
			Str("payment_id", u.PaymentID).
			Int("attempt", u.Attempt).
			Int("worker_id", id).
			Msg("badge retry failed")

		select {
		case <-ctx.Done():
			return
		case <-time.After(d.backoff * time.Duration(u.Attempt)):
		}
	}

	metrics.BadgeRetriesTotal.WithLabelValues("gave_up").Inc()
	d.log.Error().
		Str("payment_id", u.PaymentID).
		Str("email", u.Email).
		Str("badge", u.Badge).
		Msg("badge retries exhausted, leaving update to reconciler")
}
