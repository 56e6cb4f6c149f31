// Package bootstrap estimates per-stratum classifier accuracy with a
// resampling (bootstrap) sampling distribution.
//
// Observations are grouped into strata keyed by (crop type, week) with
// Partition. Estimate resamples one stratum with replacement and returns
// the mean and population standard deviation of the resampled accuracies.
// Aggregate runs Estimate over every stratum on a bounded worker pool and
// returns a ResultTable ordered by crop type then week, independent of
// worker count and completion order.
package bootstrap
