package app

import "lab-radar.klederson.com/internal/notify"

// BannerRing is a circular buffer of recently delivered notifications.
type BannerRing struct {
	buf   []notify.Notification
	pos   int
	count int
}

// NewBannerRing creates a ring with the given capacity.
func NewBannerRing(capacity int) *BannerRing {
	if capacity < 1 {
		capacity = 1
	}
	return &BannerRing{buf: make([]notify.Notification, capacity)}
}

// Push adds a notification, overwriting the oldest when full.
func (r *BannerRing) Push(n notify.Notification) {
	r.buf[r.pos] = n
	r.pos = (r.pos + 1) % len(r.buf)
	if r.count < len(r.buf) {
		r.count++
	}
}

// Values returns the stored notifications oldest first.
func (r *BannerRing) Values() []notify.Notification {
	if r.count == 0 {
		return nil
	}
	out := make([]notify.Notification, r.count)
	if r.count < len(r.buf) {
		copy(out, r.buf[:r.count])
		return out
	}
	n := copy(out, r.buf[r.pos:])
	copy(out[n:], r.buf[:r.pos])
	return out
}

// Last returns the newest notification.
func (r *BannerRing) Last() (notify.Notification, bool) {
	if r.count == 0 {
		return notify.Notification{}, false
	}
	return r.buf[(r.pos-1+len(r.buf))%len(r.buf)], true
}

// Len returns the number of stored notifications.
func (r *BannerRing) Len() int {
	return r.count
}
