// Package sim provides the core discrete-time stochastic simulation engine
// for compartment-based epidemic modeling.
//
// # Reading Guide
//
// Start with these three files to understand the simulation kernel:
//   - compartments.go: the S/E/I/Q/H/R/F state tuple and its invariants
//   - transition.go: per-timestep disease flows between compartments
//   - simulator.go: the timestep loop for a single stochastic replicate
//
// # Architecture
//
// The sim package defines the engine; supporting concerns live in
// sub-packages:
//   - sim/policy/: evaluation of time-varying parameter policies (ramps,
//     step functions, lockdown windows) into per-day rate sequences
//   - sim/report/: CSV rendering of aggregated and per-replicate series
//
// A single replicate is strictly sequential: each timestep resolves the
// effective rates (rate.go), computes disease-driven flows (transition.go),
// applies vital dynamics (vital.go), and replaces the compartment counts.
// Replicates are embarrassingly parallel; the orchestrator (orchestrator.go)
// fans them out over a bounded worker pool with isolated, deterministically
// derived RNG streams (rng.go) and aggregates the collected series.
//
// # Key Interfaces
//
// The extension points are single-method or small interfaces:
//   - DelaySampler: per-timestep exit probability for non-exponential
//     (Weibull-shaped) compartment sojourn times
//   - FlowSampler: stochastic binomial draw vs deterministic expectation
//     for a rate-driven flow, selected per transition by config flags
package sim
