package notifications

import (
	"context"
	"fmt"
	"net"
	"testing"
	"time"

	"eventoensina-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupDispatcherTest(t *testing.T) (*Dispatcher, *Service, *fakeTransport) {
	svc, transport, _ := setupNotificationTest(t)
	d := NewDispatcher(svc, 0, 2, 50*time.Millisecond)
	svc.Dispatcher = d
	require.NoError(t, d.Start(context.Background()))
	t.Cleanup(d.Stop)
	return d, svc, transport
}

func jobStatus(t *testing.T, svc *Service, id uint) models.EmailStatus {
	t.Helper()
	var job models.EmailJob
	require.NoError(t, svc.DB.First(&job, id).Error)
	return job.Status
}

func TestDispatcher_StartStop(t *testing.T) {
	svc, _, _ := setupNotificationTest(t)
	d := NewDispatcher(svc, 0, 1, time.Second)

	require.NoError(t, d.Start(context.Background()))
	assert.NotZero(t, d.Port)

	// Start on a running dispatcher is a no-op, Stop twice is safe.
	require.NoError(t, d.Start(context.Background()))
	d.Stop()
	d.Stop()
}

func TestDispatcher_InProcessDelivery(t *testing.T) {
	_, svc, transport := setupDispatcherTest(t)

	job, err := svc.Enqueue(context.Background(), EnqueueParams{
		To:      "a@b.com",
		Subject: "queued",
	})
	require.NoError(t, err)
	require.NotNil(t, job)

	require.Eventually(t, func() bool {
		return jobStatus(t, svc, job.ID) == models.EmailStatusSent
	}, 3*time.Second, 20*time.Millisecond)
	assert.Equal(t, 1, transport.sentCount())
}

// Hand-off over the loopback socket: the producer claims the job, writes the
// id, and a worker in the listening process delivers it.
func TestDispatcher_TCPDelivery(t *testing.T) {
	d, svc, _ := setupDispatcherTest(t)

	// Sidestep the in-process queue so Enqueue exercises the socket path.
	producer := &Service{DB: svc.DB, Transport: svc.Transport, From: svc.From, QueuePort: d.Port}
	job, err := producer.Enqueue(context.Background(), EnqueueParams{
		To:      "a@b.com",
		Subject: "over tcp",
	})
	require.NoError(t, err)
	require.NotNil(t, job)

	require.Eventually(t, func() bool {
		return jobStatus(t, svc, job.ID) == models.EmailStatusSent
	}, 3*time.Second, 20*time.Millisecond)
}

// Garbage on the socket is discarded without killing the listener; a valid id
// on the same connection still goes through.
func TestDispatcher_MalformedLinesDiscarded(t *testing.T) {
	d, svc, _ := setupDispatcherTest(t)

	job := &models.EmailJob{ToEmail: "a@b.com", Subject: "after garbage", Status: models.EmailStatusSending, ScheduledAt: time.Now()}
	require.NoError(t, svc.DB.Create(job).Error)

	conn, err := net.Dial("tcp", fmt.Sprintf("127.0.0.1:%d", d.Port))
	require.NoError(t, err)
	_, err = fmt.Fprintf(conn, "not-a-number\n\n-5\n%d\n", job.ID)
	require.NoError(t, err)
	conn.Close()

	require.Eventually(t, func() bool {
		return jobStatus(t, svc, job.ID) == models.EmailStatusSent
	}, 3*time.Second, 20*time.Millisecond)

	// A fresh connection still works after the garbage.
	conn2, err := net.Dial("tcp", fmt.Sprintf("127.0.0.1:%d", d.Port))
	require.NoError(t, err)
	conn2.Close()
}

// A dispatched id whose record is gone must be skipped, not retried forever.
func TestDispatcher_UnknownIDDiscarded(t *testing.T) {
	d, svc, transport := setupDispatcherTest(t)

	assert.True(t, d.Push(424242))

	job := &models.EmailJob{ToEmail: "a@b.com", Subject: "real", Status: models.EmailStatusSending, ScheduledAt: time.Now()}
	require.NoError(t, svc.DB.Create(job).Error)
	assert.True(t, d.Push(job.ID))

	require.Eventually(t, func() bool {
		return jobStatus(t, svc, job.ID) == models.EmailStatusSent
	}, 3*time.Second, 20*time.Millisecond)
	assert.Equal(t, 1, transport.sentCount())
}

// Workers fall back to polling the store when nothing arrives on the queue,
// so jobs enqueued while no consumer was reachable still get delivered.
func TestDispatcher_PollFallback(t *testing.T) {
	svc, _, _ := setupNotificationTest(t)

	// Enqueued before any dispatcher exists: stays pending.
	job, err := svc.Enqueue(context.Background(), EnqueueParams{
		To:      "a@b.com",
		Subject: "orphaned",
	})
	require.NoError(t, err)
	require.Equal(t, models.EmailStatusPending, jobStatus(t, svc, job.ID))

	d := NewDispatcher(svc, 0, 1, 20*time.Millisecond)
	require.NoError(t, d.Start(context.Background()))
	t.Cleanup(d.Stop)

	require.Eventually(t, func() bool {
		return jobStatus(t, svc, job.ID) == models.EmailStatusSent
	}, 3*time.Second, 20*time.Millisecond)
}

// The in-process queue only accepts ids while the dispatcher runs; a push
// before Start or after Stop would park the job where no worker ever looks.
func TestDispatcher_PushRejectedWhenNotRunning(t *testing.T) {
	svc, _, _ := setupNotificationTest(t)
	d := NewDispatcher(svc, 0, 1, time.Second)

	assert.False(t, d.Push(1))
	assert.Zero(t, d.QueueDepth())

	require.NoError(t, d.Start(context.Background()))
	d.Stop()
	assert.False(t, d.Push(1))
}

// A job enqueued during the shutdown window must end pending, not claimed
// into a queue nobody drains.
func TestEnqueue_AfterDispatcherStopStaysPending(t *testing.T) {
	svc, _, _ := setupNotificationTest(t)
	d := NewDispatcher(svc, 0, 1, time.Second)
	require.NoError(t, d.Start(context.Background()))
	svc.Dispatcher = d
	d.Stop()

	job, err := svc.Enqueue(context.Background(), EnqueueParams{
		To:      "a@b.com",
		Subject: "during shutdown",
	})
	require.NoError(t, err)
	require.NotNil(t, job)
	assert.Equal(t, models.EmailStatusPending, jobStatus(t, svc, job.ID))
}

// Stop must not wait for clients that keep their connection open.
func TestDispatcher_StopClosesOpenConnections(t *testing.T) {
	d, svc, _ := setupDispatcherTest(t)

	job := &models.EmailJob{ToEmail: "a@b.com", Subject: "before shutdown", Status: models.EmailStatusSending, ScheduledAt: time.Now()}
	require.NoError(t, svc.DB.Create(job).Error)

	conn, err := net.Dial("tcp", fmt.Sprintf("127.0.0.1:%d", d.Port))
	require.NoError(t, err)
	defer conn.Close()

	// Deliver one id so the connection is known to be accepted and read
	// before Stop runs; then keep it open.
	_, err = fmt.Fprintf(conn, "%d\n", job.ID)
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		return jobStatus(t, svc, job.ID) == models.EmailStatusSent
	}, 3*time.Second, 20*time.Millisecond)

	done := make(chan struct{})
	go func() {
		d.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop blocked on an idle client connection")
	}
}
