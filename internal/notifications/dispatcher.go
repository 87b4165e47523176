package notifications

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"eventoensina-backend/internal/models"

	"github.com/rs/zerolog/log"
)

const queueCapacity = 1000

// Dispatcher owns the dual-path job hand-off: a bounded in-process queue plus
// a loopback TCP listener feeding it, consumed by a small pool of delivery
// workers. It is an explicitly constructed object with a start/stop
// lifecycle, so tests can run several independent instances side by side.
type Dispatcher struct {
	Service      *Service
	Port         int
	Workers      int
	PollInterval time.Duration

	queue    chan uint
	listener net.Listener
	cancel   context.CancelFunc
	wg       sync.WaitGroup

	mu      sync.Mutex
	started bool

	// running is readable without mu: Push is called from reader goroutines
	// that Stop waits on, so it must never contend for the lifecycle lock.
	running atomic.Bool

	// connMu guards the accepted-connection set separately from mu, because
	// Stop holds mu across wg.Wait while reader goroutines untrack themselves.
	connMu  sync.Mutex
	closing bool
	conns   map[net.Conn]struct{}
}

// NewDispatcher wires a dispatcher to its job service. Port zero picks an
// ephemeral loopback port (useful in tests); Addr reports the bound address
// after Start.
func NewDispatcher(svc *Service, port, workers int, pollInterval time.Duration) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	if pollInterval <= 0 {
		pollInterval = 5 * time.Second
	}
	return &Dispatcher{
		Service:      svc,
		Port:         port,
		Workers:      workers,
		PollInterval: pollInterval,
		queue:        make(chan uint, queueCapacity),
	}
}

// Start binds the loopback listener and launches the worker pool. Calling
// Start on a running dispatcher is a no-op.
func (d *Dispatcher) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started {
		return nil
	}

	ln, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", d.Port))
	if err != nil {
		return fmt.Errorf("bind dispatch listener: %w", err)
	}
	d.listener = ln
	d.Port = ln.Addr().(*net.TCPAddr).Port

	d.connMu.Lock()
	d.closing = false
	d.conns = make(map[net.Conn]struct{})
	d.connMu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	d.wg.Add(1)
	go d.serve(ctx)
	for i := 0; i < d.Workers; i++ {
		d.wg.Add(1)
		go d.worker(ctx, i)
	}

	d.started = true
	d.running.Store(true)
	log.Info().Int("port", d.Port).Int("workers", d.Workers).Msg("email dispatcher started")
	return nil
}

// Stop shuts the listener, closes any accepted connections still being read,
// and waits for all workers to drain. Safe to call more than once.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.started {
		return
	}
	// Producers see a dead dispatcher before anything winds down, so their
	// hand-off fails cleanly and the claim revert path runs.
	d.running.Store(false)
	d.cancel()
	d.listener.Close()
	d.closeConns()
	d.wg.Wait()
	d.started = false
	log.Info().Msg("email dispatcher stopped")
}

// Push offers a job id to the in-process queue without blocking. False means
// the dispatcher is not running or the queue is full, so the producer must
// fall back to another hand-off path or release its claim.
func (d *Dispatcher) Push(id uint) bool {
	if !d.running.Load() {
		return false
	}
	select {
	case d.queue <- id:
		return true
	default:
		return false
	}
}

// QueueDepth reports how many dispatched job ids await a worker.
func (d *Dispatcher) QueueDepth() int {
	return len(d.queue)
}

// serve accepts loopback connections carrying newline-delimited decimal job
// ids. Malformed lines are discarded; the loop only exits on shutdown.
func (d *Dispatcher) serve(ctx context.Context) {
	defer d.wg.Done()
	for {
		conn, err := d.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) || ctx.Err() != nil {
				return
			}
			continue
		}
		if !d.trackConn(conn) {
			continue
		}
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			defer d.untrackConn(conn)
			d.readConn(conn)
		}()
	}
}

// trackConn registers an accepted connection so Stop can close it. A
// connection that loses the race with shutdown is closed on the spot.
func (d *Dispatcher) trackConn(conn net.Conn) bool {
	d.connMu.Lock()
	defer d.connMu.Unlock()
	if d.closing {
		conn.Close()
		return false
	}
	d.conns[conn] = struct{}{}
	return true
}

func (d *Dispatcher) untrackConn(conn net.Conn) {
	d.connMu.Lock()
	delete(d.conns, conn)
	d.connMu.Unlock()
}

// closeConns unblocks reader goroutines parked on idle client connections,
// otherwise Stop would wait for clients to hang up on their own schedule.
func (d *Dispatcher) closeConns() {
	d.connMu.Lock()
	d.closing = true
	for conn := range d.conns {
		conn.Close()
	}
	d.connMu.Unlock()
}

func (d *Dispatcher) readConn(conn net.Conn) {
	defer conn.Close()
	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		id, err := strconv.ParseUint(line, 10, 64)
		if err != nil {
			log.Warn().Str("line", line).Msg("discarding malformed dispatch line")
			continue
		}
		if !d.Push(uint(id)) {
			log.Warn().Uint64("job_id", id).Msg("dispatch queue full, dropping id for pollers")
		}
	}
}

// worker consumes dispatched job ids, falling back to claiming eligible
// pending jobs straight from the store, and sleeps the poll interval when
// neither path yields work. Errors never terminate the loop.
func (d *Dispatcher) worker(ctx context.Context, id int) {
	defer d.wg.Done()
	log.Info().Int("worker_id", id).Msg("email worker started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Int("worker_id", id).Msg("email worker shutting down")
			return
		default:
		}

		job := d.nextJob(ctx)
		if job == nil {
			select {
			case <-ctx.Done():
			case <-time.After(d.PollInterval):
			}
			continue
		}
		d.Service.SendJob(ctx, job)
	}
}

// nextJob prefers the dispatch queue; an id whose record is gone is silently
// discarded. With an empty queue it falls back to the polling claim.
func (d *Dispatcher) nextJob(ctx context.Context) *models.EmailJob {
	select {
	case jobID := <-d.queue:
		// The producer already moved this job to sending; do not re-claim.
		return d.Service.LoadDispatched(ctx, jobID)
	default:
	}

	job, err := d.Service.ClaimOnePending(ctx)
	if err != nil {
		log.Error().Err(err).Msg("claim attempt failed")
		return nil
	}
	return job
}
