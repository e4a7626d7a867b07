// Package align estimates and corrects the systematic temporal offset and
// rigid spatial misregistration between a radar detection stream and a
// reference ground-truth trajectory.
//
// The pipeline runs leaves first: CandidateGater narrows detections per
// ground-truth cycle, EstimateLag cross-correlates range series to find an
// integer cycle lag, and AlignSpatial fits a least-squares rigid transform
// (SVD, reflection-corrected) over gated point pairs. Data-sufficiency
// problems are reported through Outcome, never as errors; errors are kept
// for malformed input.
package align
