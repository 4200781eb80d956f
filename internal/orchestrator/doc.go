// Package orchestrator implements the draft → critique → revise engines.
//
// # Overview
//
// Two engines share one protocol against a model gateway:
//
//   - V1 runs exactly one draft → critique → revise cycle.
//   - V2 runs a plan step followed by up to N cycles, with an early-stop
//     policy driven by the critic's self-reported score and a token-budget
//     exhaustion guard.
//
// # Execution model
//
//	V1: START → DRAFTING → CRITIQUING → REVISING → DONE
//	V2: START → PLANNING → (DRAFTING → CRITIQUING → REVISING)×N → DONE
//
// Steps execute strictly sequentially; no step begins before the previous
// gateway call returns, and PassRecords appear in the result in step order.
// That ordering is load-bearing: early-stop decisions and diffs are only
// meaningful against the immediately preceding pass.
//
// # Failure policy
//
// Any gateway failure ends the run with stop reason "error" and the message
// captured. The one exception is the V2 planning call, which falls back to a
// generic plan and records the failure as a non-fatal diagnostic. Callers
// always receive
// a RunResult; Run never panics and never returns a Go error for a degraded
// run. The final output is never empty: when every generation attempt fails,
// a diagnostic "ERROR: <message>" placeholder is substituted.
//
// # Budgeting
//
// Token accounting uses the rough estimates from the budget package (input
// estimate + output estimate per call). V2 stops with reason "token_budget"
// once the cumulative total reaches (max input + max output) × 4, which
// leaves slack for the plan call plus per-step draft/critique/revise
// overhead.
package orchestrator
