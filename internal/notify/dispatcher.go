package notify

import (
	"context"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"lab-radar.klederson.com/internal/config"
	"lab-radar.klederson.com/internal/labs"
	"lab-radar.klederson.com/internal/logger"
	"lab-radar.klederson.com/internal/metrics"
	"lab-radar.klederson.com/internal/msglog"
	"lab-radar.klederson.com/internal/remote"
)

// Permission is the user's notification permission.
type Permission int32

const (
	PermissionDefault Permission = iota
	PermissionGranted
	PermissionDenied
)

func (p Permission) String() string {
	switch p {
	case PermissionGranted:
		return "granted"
	case PermissionDenied:
		return "denied"
	default:
		return "default"
	}
}

// DetailFetcher is the part of the remote client the dispatcher needs.
type DetailFetcher interface {
	FetchDetail(ctx context.Context, id string) (remote.Detail, error)
}

// Dispatcher emits one notification per lab per approach episode.
type Dispatcher struct {
	store    *labs.Store
	remote   DetailFetcher
	messages *msglog.Log
	log      logger.Logger

	perm atomic.Int32

	mu     sync.RWMutex
	worker Channel
	direct Channel
}

func NewDispatcher(store *labs.Store, client DetailFetcher, direct Channel, messages *msglog.Log, log logger.Logger) *Dispatcher {
	return &Dispatcher{
		store:    store,
		remote:   client,
		direct:   direct,
		messages: messages,
		log:      log,
	}
}

// RegisterWorker installs the background worker path. Pass nil to unregister.
func (d *Dispatcher) RegisterWorker(ch Channel) {
	d.mu.Lock()
	d.worker = ch
	d.mu.Unlock()
}

// RequestPermission grants notifications unless they were denied before.
func (d *Dispatcher) RequestPermission() Permission {
	d.perm.CompareAndSwap(int32(PermissionDefault), int32(PermissionGranted))
	return d.Permission()
}

// SetPermission overrides the permission state.
func (d *Dispatcher) SetPermission(p Permission) {
	d.perm.Store(int32(p))
}

func (d *Dispatcher) Permission() Permission {
	return Permission(d.perm.Load())
}

// channel picks exactly one delivery path, preferring the worker.
func (d *Dispatcher) channel() (Channel, string) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.worker != nil {
		return d.worker, "worker"
	}
	return d.direct, "direct"
}

// Scan notifies every lab closer than radius that is neither yellow nor
// already notified. Without permission it does nothing. It returns the number
// of labs claimed; emission runs concurrently and Scan waits for it.
func (d *Dispatcher) Scan(ctx context.Context, radius float64) int {
	if radius <= 0 || d.Permission() != PermissionGranted {
		return 0
	}

	claimed := d.store.ClaimCandidates(radius)
	if len(claimed) == 0 {
		return 0
	}

	ch, path := d.channel()
	if ch == nil {
		d.log.Warn(ctx, "no notification channel available", "claimed", len(claimed))
		return len(claimed)
	}

	var g errgroup.Group
	for _, lab := range claimed {
		lab := lab
		g.Go(func() error {
			d.emit(ctx, ch, path, lab)
			return nil
		})
	}
	_ = g.Wait()
	return len(claimed)
}

func (d *Dispatcher) emit(ctx context.Context, ch Channel, path string, lab labs.Lab) {
	ctx = logger.WithLabID(logger.WithAction(ctx, "notify"), lab.ID)

	detail, err := d.remote.FetchDetail(ctx, lab.ID)
	if err != nil {
		metrics.RemoteErrorsTotal.WithLabelValues("fetch_detail").Inc()
		metrics.NotificationsTotal.WithLabelValues(path, "failed").Inc()
		d.log.Error(ctx, "fetch lab detail for notification", err)
		d.messages.Append("notify " + lab.DisplayTitle() + ": " + err.Error())
		return
	}

	opts := Options{
		Body:    detail.Question,
		Badge:   config.NotificationBadge,
		Icon:    config.NotificationIcon,
		Image:   lab.KeyImageURL,
		Tag:     lab.ID,
		Vibrate: append([]int(nil), config.VibratePattern...),
		Data:    detail,
	}
	if err := ch.Notify(ctx, lab.DisplayTitle(), opts); err != nil {
		metrics.NotificationsTotal.WithLabelValues(path, "failed").Inc()
		d.log.Error(ctx, "deliver notification", err, "channel", path)
		d.messages.Append("notify " + lab.DisplayTitle() + ": " + err.Error())
		return
	}

	metrics.NotificationsTotal.WithLabelValues(path, "sent").Inc()
	d.log.Info(ctx, "notification sent", "channel", path, "distance", lab.Distance)
}
