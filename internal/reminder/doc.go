// Package reminder contains the notification scheduling core: the registry of
// currently-registered reminders and the scheduler state machine that rebuilds
// it whenever the underlying schedule or preference data changes.
//
// All registry mutation happens on the scheduler's serialized work queue, so
// recompute runs and delivery completion callbacks never race. At most one
// recompute run is active at a time; starting a new one cancels the previous
// run cooperatively (the run checks its context per date and per block).
package reminder
