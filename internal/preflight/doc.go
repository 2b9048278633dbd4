// Package preflight provides readiness checks for the external services
// and filesystem paths the manual worker depends on.
//
// These checks run in two contexts:
//   - The worker calls RunAll once at startup and logs every failing check
//     before it begins consuming jobs.
//   - The CLI "systemqa preflight" command renders the same results as a table.
//
// Network checks use short timeouts and a single attempt.
package preflight
