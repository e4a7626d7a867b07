// Package fusion owns the shared data model for radar / ground-truth fusion
// evaluation.
//
// Responsibilities: the record types exchanged between the alignment and
// association engines (Detection, GroundTruthSample, AssociationResult,
// RigidTransform, TimeLag), input validation, angle and coordinate helpers,
// and the ops/diag/trace logging streams.
//
// Dependency rule: fusion depends on nothing else in this module. The
// measurement, jpda and align packages depend on fusion, never on each
// other except jpda → measurement.
package fusion
