// Package scoring implements the deterministic scoring engine.
//
// Run combines three kinds of terms into a total score:
//
//   - rule impacts: every active rule whose active conditions contain at
//     least one true condition contributes the sum of its active impacts
//   - coefficients: scalar (input[name] * weight) or formula (expression
//     evaluated against the input plus rule_impact_score)
//   - metric weights: a metric with a weight and no active coefficient of the
//     same name behaves like a scalar coefficient
//
// total_score = weighted_input_score + rule_impact_score.
//
// Evaluation failures are local. A failing condition is false, a failing
// impact or coefficient contributes 0, and each failure is listed in
// ScoreBreakdown.Errors. A missing scalar input contributes 0 with a warning.
//
// Expressions may be evaluated on a bounded worker pool (Config.Parallelism).
// Results are written into pre-assigned slots and every sum is taken
// sequentially in configuration order, so the breakdown is bit-identical for
// any parallelism setting.
package scoring
