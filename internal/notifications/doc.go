// Package notifications publishes finished job outcomes to an optional Redis
// list so other systems can react to completed or failed dubs.
//
// When notifications.redis_addr is empty NewService returns a no-op
// implementation. Publish failures are reported to the caller, which logs
// them; they never change a job's outcome.
package notifications
