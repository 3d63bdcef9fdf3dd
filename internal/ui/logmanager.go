package ui

import (
	"fmt"

	"fyne.io/fyne/v2/widget"
)

// DefaultMaxLogMessages bounds the status bar message history.
const DefaultMaxLogMessages = 100

// StatusLog keeps recent log messages and shows one of them in the status
// bar, with buttons to page through older ones.
type StatusLog struct {
	messages    []string
	current     int
	maxMessages int

	label   *widget.Label
	upBtn   *widget.Button
	downBtn *widget.Button
}

// NewStatusLog creates a StatusLog driving the given widgets.
func NewStatusLog(label *widget.Label, upBtn, downBtn *widget.Button, maxMessages int) *StatusLog {
	if maxMessages <= 0 {
		maxMessages = DefaultMaxLogMessages
	}
	return &StatusLog{
		messages:    make([]string, 0, maxMessages),
		current:     -1,
		maxMessages: maxMessages,
		label:       label,
		upBtn:       upBtn,
		downBtn:     downBtn,
	}
}

// Add appends message and shows it. Must run on the Fyne goroutine.
func (l *StatusLog) Add(message string) {
	l.messages = append(l.messages, message)
	if len(l.messages) > l.maxMessages {
		l.messages = l.messages[len(l.messages)-l.maxMessages:]
	}
	l.current = len(l.messages) - 1
	l.update()
}

// Len returns the number of stored messages.
func (l *StatusLog) Len() int {
	return len(l.messages)
}

// Current returns the message on display, or "".
func (l *StatusLog) Current() string {
	if l.current < 0 || l.current >= len(l.messages) {
		return ""
	}
	return l.messages[l.current]
}

func (l *StatusLog) update() {
	if len(l.messages) == 0 {
		l.label.SetText("")
		l.upBtn.Disable()
		l.downBtn.Disable()
		return
	}

	if l.current < 0 {
		l.current = 0
	} else if l.current >= len(l.messages) {
		l.current = len(l.messages) - 1
	}

	l.label.SetText(fmt.Sprintf("[%d/%d] %s", l.current+1, len(l.messages), l.messages[l.current]))
	if l.current <= 0 {
		l.upBtn.Disable()
	} else {
		l.upBtn.Enable()
	}
	if l.current >= len(l.messages)-1 {
		l.downBtn.Disable()
	} else {
		l.downBtn.Enable()
	}
}

// Previous shows the message before the current one.
func (l *StatusLog) Previous() {
	if len(l.messages) == 0 || l.current <= 0 {
		return
	}
	l.current--
	l.update()
}

// Next shows the message after the current one.
func (l *StatusLog) Next() {
	if len(l.messages) == 0 || l.current >= len(l.messages)-1 {
		return
	}
	l.current++
	l.update()
}
