// Package scheduler decides which duty owns the processor.
//
// It has two halves that run in different execution contexts:
//
//   - Arbiter runs on the dispatch loop. At every SELECT it walks the task
//     table in priority order and returns the first duty whose readiness
//     predicate holds, falling back to the power duty when nothing is due.
//   - ISR runs on the timer goroutine once per tick. It re-evaluates the
//     power-critical condition and, when it holds, raises the ModeSwitch
//     status bit and aborts the running duty so the loop returns to SELECT.
//
// The two halves share nothing but the status flags and the Preemptible
// view of the dispatcher. The ISR never selects a task itself: it only
// forces the next arbitration to pick the power duty.
package scheduler
