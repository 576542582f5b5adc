package secboard

import (
	"time"

	"github.com/google/uuid"
)

// Notification is a one-shot, user-visible message emitted after a
// mutation settles, success or failure.
type Notification struct {
	ID      string
	Title   string
	Message string
	Err     error
	At      time.Time
}

type Notifier struct {
	ch chan Notification
}

func NewNotifier() *Notifier {
	return &Notifier{ch: make(chan Notification, 16)}
}

func (n *Notifier) C() <-chan Notification {
	return n.ch
}

// emit never blocks; if nobody is draining, the oldest pending
// notifications are simply lost.
func (n *Notifier) emit(title, msg string, err error) {
	note := Notification{
		ID:      uuid.NewString(),
		Title:   title,
		Message: msg,
		Err:     err,
		At:      time.Now(),
	}

	select {
	case n.ch <- note:
	default:
	}
}
