// Package poller drives chat.db polling and publishes new messages on the
// bus.
package poller

import (
	"context"
	"errors"
	"iter"
	"sync"
	"time"

	"github.com/matheus3301/imsg/internal/bus"
	"github.com/matheus3301/imsg/internal/chatdb"
	"github.com/matheus3301/imsg/internal/status"
	"go.uber.org/zap"
)

// Source is the part of *chatdb.DB the poller needs.
type Source interface {
	PollNewMessages(ctx context.Context) iter.Seq2[chatdb.Message, error]
}

// Result summarizes one poll.
type Result struct {
	Messages int
	Failed   int
}

// Poller calls Source.PollNewMessages on an interval. Each message becomes a
// bus.KindMessageNew event carrying a chatdb.Message payload.
type Poller struct {
	src      Source
	bus      *bus.Bus
	machine  *status.Machine
	logger   *zap.Logger
	interval time.Duration

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a poller. machine may be nil.
func New(src Source, b *bus.Bus, machine *status.Machine, interval time.Duration, logger *zap.Logger) *Poller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Poller{
		src:      src,
		bus:      b,
		machine:  machine,
		logger:   logger,
		interval: interval,
	}
}

// Start runs the poll loop until Stop is called or ctx ends.
func (p *Poller) Start(ctx context.Context) {
	ctx, p.cancel = context.WithCancel(ctx)
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				_, _ = p.PollOnce(ctx)
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop stops the loop and waits for an in-flight poll to finish.
func (p *Poller) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
}

// PollOnce runs a single poll. A failed candidate query moves the daemon to
// DEGRADED and is returned; per-message failures are logged and counted.
func (p *Poller) PollOnce(ctx context.Context) (Result, error) {
	var res Result
	for msg, err := range p.src.PollNewMessages(ctx) {
		if errors.Is(err, chatdb.ErrPollQuery) {
			p.logger.Warn("poll failed", zap.Error(err))
			p.bus.Publish(bus.Event{Kind: bus.KindPollFailed, Payload: err.Error()})
			p.transition(status.Degraded)
			return res, err
		}
		if err != nil {
			res.Failed++
			p.logger.Warn("skipping unreadable message", zap.Error(err))
			continue
		}
		res.Messages++
		p.bus.Publish(bus.Event{Kind: bus.KindMessageNew, Payload: msg})
	}
	p.transition(status.Ready)
	if res.Messages > 0 || res.Failed > 0 {
		p.logger.Debug("poll complete", zap.Int("messages", res.Messages), zap.Int("failed", res.Failed))
	}
	return res, nil
}

func (p *Poller) transition(to status.State) {
	if p.machine == nil {
		return
	}
	if err := p.machine.Transition(to); err != nil {
		p.logger.Debug("state unchanged", zap.String("want", string(to)), zap.Error(err))
	}
}
