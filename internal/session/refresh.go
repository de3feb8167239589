package session

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/adisatrio/offersession/internal/models"
)

// scheduler keeps a session's cache from going stale. Two triggers feed one
// idempotent refresh guard: a deadline timer re-armed on every cache write,
// and a coarse watchdog tick that catches missed deadlines. Only one global
// refresh runs at a time.
type scheduler struct {
	s *Session

	rearmCh    chan struct{}
	stopCh     chan struct{}
	stopped    sync.Once
	refreshing atomic.Bool
}

func newScheduler(s *Session) *scheduler {
	return &scheduler{
		s:       s,
		rearmCh: make(chan struct{}, 1),
		stopCh:  make(chan struct{}),
	}
}

func (sc *scheduler) run() {
	go sc.loop()
}

// rearm resets the deadline timer after a successful fetch. Non-blocking; a
// pending re-arm is enough.
func (sc *scheduler) rearm() {
	select {
	case sc.rearmCh <- struct{}{}:
	default:
	}
}

func (sc *scheduler) stopOnce() {
	sc.stopped.Do(func() { close(sc.stopCh) })
}

func (sc *scheduler) loop() {
	window := sc.s.cfg.StaleWindow
	timer := time.NewTimer(window)
	defer timer.Stop()

	watchdog := time.NewTicker(sc.s.cfg.WatchdogInterval)
	defer watchdog.Stop()

	for {
		select {
		case <-sc.stopCh:
			return
		case <-sc.rearmCh:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(window)
		case <-timer.C:
			sc.refreshIfStale()
			timer.Reset(window)
		case <-watchdog.C:
			sc.refreshIfStale()
		}
	}
}

// refreshIfStale triggers a global refresh when the shared timestamp has aged
// past the window. Both triggers funnel through here, so a duplicate firing
// is a no-op.
func (sc *scheduler) refreshIfStale() {
	if !sc.s.results.Stale() {
		return
	}
	if !sc.refreshing.CompareAndSwap(false, true) {
		return
	}

	// Stamp once at initiation; individual fetches re-stamp as they land.
	sc.s.results.StampFetch()

	go func() {
		sc.s.refreshModes(models.AllSortModes)
		sc.refreshing.Store(false)
	}()
}

// refreshModes fetches the given sort modes concurrently. Each success
// updates only its own cache entry; a failure is logged and leaves the other
// fetches alone.
func (s *Session) refreshModes(modes []models.SortMode) {
	req := s.Request()

	var wg sync.WaitGroup
	for _, mode := range modes {
		wg.Add(1)
		go func(mode models.SortMode) {
			defer wg.Done()

			ctx, cancel := context.WithTimeout(context.Background(), s.cfg.FetchTimeout)
			defer cancel()

			resp, err := s.api.SearchOffers(ctx, req, mode, 1, s.cfg.PageLimit)
			if err != nil {
				log.Printf("session %s: background refresh for %s failed: %v", s.id, mode, err)
				return
			}
			s.storeResponse(mode, resp)
		}(mode)
	}
	wg.Wait()
}
