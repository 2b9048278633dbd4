// Command systemqa runs the manual screenshot worker and offers operator
// commands for inspecting and enqueueing manuals.
//
//	systemqa worker                 consume jobs until SIGINT/SIGTERM
//	systemqa process <id>           run the pipeline for one manual in-process
//	systemqa enqueue <id>...        send job messages for manuals
//	systemqa manuals list|show|create
//	systemqa reap                   reclaim manuals with expired leases
//	systemqa stats                  manual counts per status
//	systemqa preflight              readiness checks
//	systemqa logs [-f] [-m <id>]    recent worker log lines
//	systemqa config init|validate|show
//
// A .env file in the working directory is loaded before configuration so the
// AWS_*, MANUAL_FILES_S3_BUCKET_NAME and GOOGLE_GEMINI_* variables can live there.
package main
