// Package affinity builds and queries the per-CPU resource affinity table.
//
// On Muen, every event, vector, and passthrough device is bound to exactly
// one CPU by the hypervisor's static configuration; the only way to
// discover that binding at runtime is to walk the sinfo directory once on
// each CPU during boot. A [Registry] accumulates those bindings into a
// single process-wide table that is built once and, from that point on,
// read-only.
//
// [TriggerEvent] is the other half of this package: issuing the
// event hypercall on the CPU that owns the target event, routing through
// a caller-supplied dispatch function when that CPU is not the current
// one.
package affinity
