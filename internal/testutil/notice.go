package testutil

import (
	"sync"

	"github.com/roach88/teamdir/internal/notify"
)

// NoticeRecorder collects notices for assertions.
type NoticeRecorder struct {
	mu      sync.Mutex
	notices []notify.Notice
}

// Notify implements notify.Notifier.
func (r *NoticeRecorder) Notify(n notify.Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, n)
}

// Notices returns a copy of the recorded notices.
func (r *NoticeRecorder) Notices() []notify.Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]notify.Notice(nil), r.notices...)
}

// Titles returns the titles of the recorded notices in order.
func (r *NoticeRecorder) Titles() []string {
	notices := r.Notices()
	titles := make([]string, len(notices))
	for i, n := range notices {
		titles[i] = n.Title
	}
	return titles
}
