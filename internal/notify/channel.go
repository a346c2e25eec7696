package notify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
)

// Options mirror the platform notification options.
type Options struct {
	Body    string
	Badge   string
	Icon    string
	Image   string
	Tag     string
	Vibrate []int
	Data    any
}

// Notification is a delivered notification.
type Notification struct {
	Title   string
	Options Options
}

// Channel delivers a notification to the user.
type Channel interface {
	Notify(ctx context.Context, title string, opts Options) error
}

var ErrWorkerStopped = errors.New("notification worker stopped")

// WorkerChannel hands notifications to a background goroutine which passes
// them to deliver. It is the preferred path when registered.
type WorkerChannel struct {
	queue   chan Notification
	deliver func(Notification)

	once sync.Once
	stop chan struct{}
	done chan struct{}
}

// NewWorkerChannel starts the worker goroutine.
func NewWorkerChannel(deliver func(Notification), buffer int) *WorkerChannel {
	w := &WorkerChannel{
		queue:   make(chan Notification, buffer),
		deliver: deliver,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go w.loop()
	return w
}

func (w *WorkerChannel) loop() {
	defer close(w.done)
	for {
		select {
		case <-w.stop:
			return
		case n := <-w.queue:
			w.deliver(n)
		}
	}
}

func (w *WorkerChannel) Notify(ctx context.Context, title string, opts Options) error {
	select {
	case <-w.stop:
		return ErrWorkerStopped
	default:
	}

	select {
	case w.queue <- Notification{Title: title, Options: opts}:
		return nil
	case <-w.stop:
		return ErrWorkerStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops the worker. Queued notifications not yet delivered are dropped.
func (w *WorkerChannel) Close() {
	w.once.Do(func() { close(w.stop) })
	<-w.done
}

// DirectChannel writes notifications straight to the terminal, ringing the bell.
type DirectChannel struct {
	mu sync.Mutex
	w  io.Writer
}

func NewDirectChannel(w io.Writer) *DirectChannel {
	return &DirectChannel{w: w}
}

func (d *DirectChannel) Notify(_ context.Context, title string, opts Options) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	body := strings.ReplaceAll(opts.Body, "\n", " ")
	_, err := fmt.Fprintf(d.w, "\a[%s] %s: %s\n", opts.Tag, title, body)
	return err
}
