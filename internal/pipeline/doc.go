// Package pipeline turns one queue message into screenshots and a title for
// a manual.
//
// Handler.Handle is the job orchestrator. It claims the manual with a single
// conditional update (WAITING to PROCESSING), so duplicate deliveries are
// dropped. It then acquires a scratch workspace, downloads the source video
// and, step by step, extracts a frame, publishes it and commits the step's
// image path. Any failure in that screenshot phase marks the manual FAIL and
// stops the loop; screenshots committed earlier are kept. Title synthesis runs
// afterwards in both outcomes and its error is returned to the caller so the
// queue can redeliver. The workspace is released on every exit path.
package pipeline
