package plugin

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

const dispatchQueue = 64

// Letter is a committed letter addressed to plugins.
type Letter struct {
	Letter  rune
	Session string
}

// Dispatcher delivers committed letters to a fixed set of plugins, in order,
// from a single background goroutine.
type Dispatcher struct {
	executor *Executor
	plugins  []*Plugin
	logger   *zap.Logger

	queue   chan Letter
	stop    chan struct{}
	done    chan struct{}
	once    sync.Once
	mu      sync.Mutex
	started bool
	stopped bool
	dropped int
}

// NewDispatcher resolves names against the manager. Every named plugin must
// exist and declare the "type" action.
func NewDispatcher(m *Manager, executor *Executor, names []string, logger *zap.Logger) (*Dispatcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	plugins := make([]*Plugin, 0, len(names))
	for _, name := range names {
		p, err := m.Get(name)
		if err != nil {
			return nil, fmt.Errorf("plugin %q: %w", name, err)
		}
		if !p.Manifest.Supports(ActionType) {
			return nil, fmt.Errorf("plugin %q does not support the %q action", name, ActionType)
		}
		plugins = append(plugins, p)
	}

	return &Dispatcher{
		executor: executor,
		plugins:  plugins,
		logger:   logger,
		queue:    make(chan Letter, dispatchQueue),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}, nil
}

// Start launches the delivery goroutine.
func (d *Dispatcher) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started {
		return
	}
	d.started = true
	go d.run()
}

// Send queues a letter. When the queue is full or the dispatcher has been
// stopped the letter is dropped and logged.
func (d *Dispatcher) Send(l Letter) {
	d.mu.Lock()
	reason := ""
	if d.stopped {
		reason = "dispatcher stopped"
	} else {
		select {
		case d.queue <- l:
		default:
			reason = "queue full"
		}
	}
	if reason != "" {
		d.dropped++
	}
	d.mu.Unlock()

	if reason != "" {
		d.logger.Warn("dropping plugin letter",
			zap.String("letter", string(l.Letter)),
			zap.String("reason", reason),
		)
	}
}

// Dropped returns how many letters were discarded without being delivered.
func (d *Dispatcher) Dropped() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dropped
}

// Stop delivers any queued letters and waits for the goroutine to exit.
// Letters sent afterwards are counted as dropped.
func (d *Dispatcher) Stop() {
	// Every enqueue holds mu, so nothing can enter the queue once stopped is
	// set and the final drain in run sees all of it.
	d.mu.Lock()
	d.stopped = true
	started := d.started
	d.mu.Unlock()

	d.once.Do(func() {
		close(d.stop)
	})
	if started {
		<-d.done
	}
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for {
		select {
		case l := <-d.queue:
			d.deliver(l)
		case <-d.stop:
			for {
				select {
				case l := <-d.queue:
					d.deliver(l)
				default:
					return
				}
			}
		}
	}
}

func (d *Dispatcher) deliver(l Letter) {
	req := &Request{Action: ActionType, Letter: string(l.Letter), Session: l.Session}
	for _, p := range d.plugins {
		resp, err := d.executor.Execute(context.Background(), p, req)
		if err != nil {
			d.logger.Error("plugin execution failed", zap.String("plugin", p.Manifest.Name), zap.Error(err))
			continue
		}
		if !resp.Success {
			d.logger.Warn("plugin reported failure",
				zap.String("plugin", p.Manifest.Name),
				zap.String("error", resp.Error),
			)
		}
	}
}
