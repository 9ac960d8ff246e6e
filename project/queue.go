/*
 * queue.go, part of gopdfgui.
 * 
 * Copyright 2026 Raul Mera <rmera{at}chemDOThelsinkiDOTfi>
 * 
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as 
 * published by the Free Software Foundation; either version 2.1 of the 
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General 
 * Public License along with this program.  If not, see 
 * <http://www.gnu.org/licenses/>.
 * 
 */
/***Dedicated to the long life of the Ven. Khenpo Phuntzok Tenzin Rinpoche***/

package project

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	pdfgui "github.com/rmera/gopdfgui"
	"github.com/rmera/gopdfgui/fitting"
	"go.uber.org/zap"
)

//queueMetrics are the prometheus collectors of a FitQueue.
type queueMetrics struct {
	finished *prometheus.CounterVec
	depth    prometheus.Gauge
	duration prometheus.Histogram
}

func newQueueMetrics(r prometheus.Registerer) *queueMetrics {
	m := &queueMetrics{
		finished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pdfgui",
			Subsystem: "queue",
			Name:      "fits_finished_total",
			Help:      "Refinements finished by the fit queue, by final status.",
		}, []string{"status"}),
		depth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "pdfgui",
			Subsystem: "queue",
			Name:      "depth",
			Help:      "Fits waiting in the queue.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "pdfgui",
			Subsystem: "queue",
			Name:      "refinement_seconds",
			Help:      "Duration of the refinements run by the queue.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 10),
		}),
	}
	if r != nil {
		r.MustRegister(m.finished, m.depth, m.duration)
	}
	return m
}

//FitQueue runs fits one at a time, in the order they were enqueued, on a
//single worker goroutine. The worker starts with the first enqueued fit.
type FitQueue struct {
	mu      sync.Mutex
	cond    *sync.Cond
	queue   []*fitting.Fitting
	current *fitting.Fitting
	running atomic.Bool
	start   sync.Once
	started atomic.Bool
	done    chan struct{}

	sink    pdfgui.EventSink
	logger  *zap.Logger
	metrics *queueMetrics
}

//NewFitQueue creates a queue. sink receives the errors of failed
//refinements. The metrics are registered with r unless it is nil.
func NewFitQueue(sink pdfgui.EventSink, logger *zap.Logger, r prometheus.Registerer) *FitQueue {
	if sink == nil {
		sink = pdfgui.NopSink{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	Q := &FitQueue{
		done:    make(chan struct{}),
		sink:    sink,
		logger:  logger,
		metrics: newQueueMetrics(r),
	}
	Q.cond = sync.NewCond(&Q.mu)
	Q.running.Store(true)
	return Q
}

//launch starts the worker once.
func (Q *FitQueue) launch() {
	Q.start.Do(func() {
		Q.started.Store(true)
		go Q.work()
	})
}

func (Q *FitQueue) work() {
	defer close(Q.done)
	for {
		Q.mu.Lock()
		for Q.running.Load() && len(Q.queue) == 0 {
			Q.cond.Wait()
		}
		if !Q.running.Load() {
			Q.mu.Unlock()
			return
		}
		f := Q.queue[0]
		Q.queue = Q.queue[1:]
		Q.current = f
		Q.metrics.depth.Set(float64(len(Q.queue)))
		Q.mu.Unlock()

		Q.run(f)

		Q.mu.Lock()
		Q.current = nil
		Q.cond.Broadcast()
		Q.mu.Unlock()
	}
}

//run refines f. Failures are reported to the sink and never stop the
//worker.
func (Q *FitQueue) run(f *fitting.Fitting) {
	defer func() {
		if r := recover(); r != nil {
			Q.logger.Error("refinement panicked", zap.String("fit", f.Name()), zap.Any("panic", r))
			Q.sink.Error(f.Name() + ": refinement panicked")
			Q.metrics.finished.WithLabelValues(fitting.Failed.String()).Inc()
		}
	}()
	start := time.Now()
	err := f.Refine(context.Background())
	Q.metrics.duration.Observe(time.Since(start).Seconds())
	if err != nil {
		//Refine already reported refinement failures to the sink
		Q.logger.Warn("queued refinement failed", zap.String("fit", f.Name()), zap.Error(err))
	}
	Q.metrics.finished.WithLabelValues(f.Status().String()).Inc()
}

func (Q *FitQueue) position(f *fitting.Fitting) int {
	for i, g := range Q.queue {
		if g == f {
			return i
		}
	}
	return -1
}

//Enqueue adds the fits to the end of the queue, or with enter false takes
//them out of it. Fits already queued keep their position. A running fit is
//not queued again; taking it out stops its refinement.
func (Q *FitQueue) Enqueue(fits []*fitting.Fitting, enter bool) {
	if enter {
		Q.enter(fits)
		return
	}
	var removed, stop []*fitting.Fitting
	Q.mu.Lock()
	for _, f := range fits {
		if i := Q.position(f); i >= 0 {
			Q.queue = append(Q.queue[:i], Q.queue[i+1:]...)
			removed = append(removed, f)
		} else if f == Q.current {
			stop = append(stop, f)
		}
	}
	Q.metrics.depth.Set(float64(len(Q.queue)))
	Q.cond.Broadcast()
	Q.mu.Unlock()
	for _, f := range removed {
		if err := f.SetStatus(fitting.Pending); err != nil {
			Q.logger.Debug("status not changed", zap.String("fit", f.Name()), zap.Error(err))
		}
	}
	for _, f := range stop {
		f.Stop()
	}
}

//enter marks the fits as queued before they become visible to the worker,
//so that the worker never sees a stale status.
func (Q *FitQueue) enter(fits []*fitting.Fitting) {
	if !Q.running.Load() {
		Q.logger.Warn("fit queue is closed")
		return
	}
	Q.launch()
	for _, f := range fits {
		if f.Status() != fitting.Running {
			if err := f.SetStatus(fitting.Queued); err != nil {
				Q.logger.Debug("status not changed", zap.String("fit", f.Name()), zap.Error(err))
			}
		}
	}
	Q.mu.Lock()
	for _, f := range fits {
		if Q.position(f) < 0 && f.Status() != fitting.Running {
			Q.queue = append(Q.queue, f)
		}
	}
	Q.metrics.depth.Set(float64(len(Q.queue)))
	Q.cond.Broadcast()
	Q.mu.Unlock()
}

//Started reports whether the worker goroutine is, or was, running.
func (Q *FitQueue) Started() bool {
	return Q.started.Load()
}

//Pending returns the queued fits in order.
func (Q *FitQueue) Pending() []*fitting.Fitting {
	Q.mu.Lock()
	defer Q.mu.Unlock()
	return append([]*fitting.Fitting(nil), Q.queue...)
}

//Current returns the fit being refined, or nil.
func (Q *FitQueue) Current() *fitting.Fitting {
	Q.mu.Lock()
	defer Q.mu.Unlock()
	return Q.current
}

//Stop cancels every queued fit and asks the running one to stop.
func (Q *FitQueue) Stop() {
	Q.mu.Lock()
	queued := Q.queue
	Q.queue = nil
	current := Q.current
	Q.metrics.depth.Set(0)
	Q.mu.Unlock()
	for _, f := range queued {
		if err := f.SetStatus(fitting.Cancelled); err == nil {
			Q.metrics.finished.WithLabelValues(fitting.Cancelled.String()).Inc()
		}
	}
	if current != nil {
		current.Stop()
	}
}

//Wait blocks until the queue is empty and no fit is running, or ctx is
//done.
func (Q *FitQueue) Wait(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() {
		Q.mu.Lock()
		Q.cond.Broadcast()
		Q.mu.Unlock()
	})
	defer stop()
	Q.mu.Lock()
	defer Q.mu.Unlock()
	for len(Q.queue) > 0 || Q.current != nil {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !Q.running.Load() {
			return nil
		}
		Q.cond.Wait()
	}
	return nil
}

//Exit stops the queue and waits for the worker, if it was started, to
//return. Queued fits are cancelled.
func (Q *FitQueue) Exit() {
	if !Q.running.Swap(false) {
		return
	}
	//a worker that never started has nothing to close done
	Q.start.Do(func() { close(Q.done) })
	Q.Stop()
	Q.mu.Lock()
	Q.cond.Broadcast()
	Q.mu.Unlock()
	<-Q.done
}
