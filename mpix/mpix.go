// Copyright 2024 The SophT-MPI-Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package mpix layers the non-blocking request queue this module needs
// (§4.2, §5) on top of github.com/cpmech/gosl/mpi's blocking
// Communicator.Send/Recv: gosl/mpi, like the rest of gosl, exposes a
// communicator and point-to-point transport but not MPI's native
// MPI_Isend/MPI_Irecv/MPI_Waitall trio, so the request/queue abstraction
// here is new code built to the spec's non-blocking contract, not a
// dependency gap — see DESIGN.md.
package mpix

import (
	"sync"

	"github.com/SophT-Team/sopht-mpi/topo"
)

// NoOp marks a send/recv addressed to topo.NoNeighbor: a domain boundary
// with no periodic wrap. Posting a request against it is a silent no-op,
// mirroring MPI_PROC_NULL.
const NoOp = topo.NoNeighbor

// Request represents one posted, not-yet-completed send or receive.
// Completion is observed by calling Wait (directly, or via WaitAll).
type Request struct {
	done chan error
}

// Wait blocks until the request completes, returning any transport error.
func (r *Request) Wait() error {
	if r == nil {
		return nil
	}
	return <-r.done
}

// Queue accumulates requests posted between an exchange's init and
// finalise calls, matching the balanced init/finalise discipline §4.2
// requires.
type Queue struct {
	reqs []*Request
}

// Post appends a request to the queue.
func (q *Queue) Post(r *Request) {
	if r == nil {
		return
	}
	q.reqs = append(q.reqs, r)
}

// WaitAll blocks until every queued request completes, then clears the
// queue. The first error encountered (if any) is returned after every
// request has been waited on, so no request handle leaks on failure.
func (q *Queue) WaitAll() error {
	var firstErr error
	for _, r := range q.reqs {
		if err := r.Wait(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	q.reqs = q.reqs[:0]
	return firstErr
}

// Pending reports whether any requests are currently queued.
func (q *Queue) Pending() bool {
	return len(q.reqs) > 0
}

// Transport is the minimal point-to-point surface mpix needs from a
// gosl/mpi.Communicator: blocking send/recv of a flat float64 buffer.
type Transport interface {
	Send(vals []float64, toRank int)
	Recv(vals []float64, fromRank int)
}

// ISend posts a non-blocking send of buf to dest by running the
// underlying blocking Send on its own goroutine. A send to NoOp completes
// immediately.
func ISend(t Transport, buf []float64, dest int) *Request {
	r := &Request{done: make(chan error, 1)}
	if dest == NoOp {
		r.done <- nil
		return r
	}
	go func() {
		defer close(r.done)
		t.Send(buf, dest)
		r.done <- nil
	}()
	return r
}

// IRecv posts a non-blocking receive of buf from src by running the
// underlying blocking Recv on its own goroutine. A receive from NoOp
// completes immediately without touching buf.
func IRecv(t Transport, buf []float64, src int) *Request {
	r := &Request{done: make(chan error, 1)}
	if src == NoOp {
		r.done <- nil
		return r
	}
	go func() {
		defer close(r.done)
		t.Recv(buf, src)
		r.done <- nil
	}()
	return r
}

// Guard is a barrier-style helper for collective wrappers (§5, §7): run fn
// and convert a panic on this rank into an error instead of letting it escape
// mid-collective, where peer ranks would otherwise deadlock waiting on a
// rank that vanished. Callers are expected to broadcast/abort on a
// non-nil return, per the CommError propagation policy.
func Guard(fn func()) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			if e, ok := rec.(error); ok {
				err = e
			} else {
				err = &PanicError{Value: rec}
			}
		}
	}()
	fn()
	return nil
}

// PanicError wraps a recovered panic value that was not already an error.
type PanicError struct{ Value interface{} }

func (e *PanicError) Error() string { return "mpix: recovered panic" }

// WaitGroupAll is a convenience for fire-and-forget goroutines that don't
// need individual Request handles (e.g. broadcasting to many ranks).
func WaitGroupAll(fns ...func()) {
	var wg sync.WaitGroup
	wg.Add(len(fns))
	for _, fn := range fns {
		fn := fn
		go func() {
			defer wg.Done()
			fn()
		}()
	}
	wg.Wait()
}
