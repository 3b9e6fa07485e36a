package ui

import "errors"

type notification struct {
	title, body string
}

// Inbox carries scanner notifications into the running program.
type Inbox struct {
	ch chan notification
}

func NewInbox() *Inbox {
	return &Inbox{ch: make(chan notification, 8)}
}

// Notify never blocks; when the program is not draining the inbox the
// notification is dropped.
func (i *Inbox) Notify(title, body string) error {
	select {
	case i.ch <- notification{title: title, body: body}:
		return nil
	default:
		return errors.New("notification inbox full")
	}
}
