// Package pipeline runs a granule load: one discoverer feeding a bounded path
// queue, a pool of workers turning paths into footprint records, and a single
// writer inserting those records into the catalog.
//
// Termination does not depend on every granule succeeding. Each discovered
// path is resolved exactly once, as written, skipped or failed, and the run
// ends when discovery has finished and every discovered path is resolved.
// Closing the queues carries the same signal through the stages, so no stage
// polls.
package pipeline
