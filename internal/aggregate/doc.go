// Package aggregate folds per-unit measurement markers into accuracy metrics
// against ground truth.
//
// Two aggregation policies coexist and are deliberately kept as separate
// functions: ObservationMAE treats every (unit, frame, variant) row as an
// independent sample, while UnitAverageMAE collapses each unit to its mean
// prediction first, yielding one sample per unit. The two use different
// sample sets and must never be mixed.
//
// All metric sets are recomputed wholesale from the current marker state on
// every invocation; nothing is patched incrementally. Standard deviations use
// the sample (N−1) formula; undefined metrics are NaN sentinels rendered as
// "N/A" in exports.
package aggregate
