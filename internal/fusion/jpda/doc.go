// Package jpda scores radar detections against a known ground-truth state
// using a single-target, single-scan Joint Probabilistic Data Association
// rule.
//
// Per cycle: the ground-truth state is projected into measurement space,
// the innovation covariance S = H·P·Hᵀ + R is formed, every track-relevant
// detection is gated on its Mahalanobis distance and given a Gaussian
// likelihood, and likelihoods are normalised against the clutter density
// into association probabilities. A detection is confirmed when its
// probability exceeds the confirmation threshold.
//
// Scoring is a pure function of (detections, ground truth, Config): cycles
// are independent and may be scored concurrently without changing results.
package jpda
