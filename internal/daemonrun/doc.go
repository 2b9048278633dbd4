// Package daemonrun assembles the manual worker from configuration and runs it
// until the process receives SIGINT or SIGTERM.
package daemonrun
