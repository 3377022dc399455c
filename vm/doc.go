// Package vm implements the engine's instruction execution core: the
// per-process machine state (operand stack, lexical scope stack,
// self-context stack, call stack, pending-instruction queue) and the
// closed set of instruction kinds that operate on it and on a
// *graphstore.Graph.
//
// The design is grounded on the teacher repo's instance/eval package: a
// small closed interface (there, expr.Expression; here, Instruction) with
// a recursive dispatcher (there, Evaluator.evaluate/evalSExpr; here,
// execBlock) that type-switches into concrete node kinds. Where the
// source language's instruction stream is genuinely queue-shaped (call
// and spawn splice a callee's body onto the front of the process's
// pending queue, exactly as spec'd), this package follows the queue
// model; structured control flow (if/while/block) is implemented as
// direct recursive dispatch for tractability, a deliberate simplification
// recorded in DESIGN.md — a loop body therefore executes as a single
// scheduler-tick instruction slot rather than being preemptible
// statement-by-statement mid-loop.
package vm
