package sectionrender

import (
	"sync"

	"chunkmesh/internal/crash"
	"chunkmesh/internal/logger"

	"go.uber.org/zap"
)

// mailbox runs submitted functions one at a time, in submission order, on a
// goroutine of its own. Everything that touches the task queue goes through it.
type mailbox struct {
	name string

	mu      sync.Mutex
	pending []func()
	closed  bool
	wake    chan struct{}
	done    chan struct{}
}

func newMailbox(name string) *mailbox {
	m := &mailbox{
		name: name,
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	go m.loop()
	return m
}

// tell queues fn. It reports false, without queueing, once the mailbox is
// closed. tell never blocks, so it is safe to call from inside the mailbox.
func (m *mailbox) tell(fn func()) bool {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return false
	}
	m.pending = append(m.pending, fn)
	m.mu.Unlock()

	select {
	case m.wake <- struct{}{}:
	default:
	}
	return true
}

// call runs fn on the mailbox and waits for it. It must not be used from
// inside the mailbox.
func (m *mailbox) call(fn func()) bool {
	ran := make(chan struct{})
	if !m.tell(func() {
		defer close(ran)
		fn()
	}) {
		return false
	}
	<-ran
	return true
}

// close stops accepting work and waits until everything already queued ran.
func (m *mailbox) close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		<-m.done
		return
	}
	m.closed = true
	m.mu.Unlock()

	select {
	case m.wake <- struct{}{}:
	default:
	}
	<-m.done
}

func (m *mailbox) loop() {
	defer close(m.done)
	for {
		m.mu.Lock()
		batch := m.pending
		m.pending = nil
		closed := m.closed
		m.mu.Unlock()

		for _, fn := range batch {
			m.run(fn)
		}
		if len(batch) > 0 {
			continue
		}
		if closed {
			return
		}
		<-m.wake
	}
}

func (m *mailbox) run(fn func()) {
	defer func() {
		if err := crash.Recovered(recover()); err != nil {
			logger.Log.Error("mailbox task failed", zap.String("mailbox", m.name), zap.Error(err))
		}
	}()
	fn()
}
