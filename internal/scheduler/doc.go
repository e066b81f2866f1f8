// Package scheduler orders a workload so that each transaction collides as
// little as possible with the one placed right before it. It does not look at
// the whole population on every step: a small random sample of the
// unscheduled transactions is scored and the cheapest candidate wins, which
// keeps each step bounded by the sample size instead of the workload size.
//
// The score is a local proxy. It only counts candidate operations that touch
// a key the predecessor writes, so a low score does not guarantee a low
// makespan.
package scheduler
