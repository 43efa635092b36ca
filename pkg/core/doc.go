// Package core defines the shared language of the example runner.
//
// This package contains:
//   - Domain entities (Example, Row, ExecutionResult, ComparisonOutcome)
//   - Service interfaces (Adapter, Session)
//   - The error taxonomy shared by every stage of a run
//
// The Golden Rule: pkg/core imports ONLY stdlib.
// All other packages depend on core, not the reverse.
package core
