// Package blob moves manual videos and screenshots between object storage and
// job workspaces.
//
// Client abstracts the two object operations the pipeline needs. S3Client is
// the production implementation on aws-sdk-go-v2; MemoryClient keeps objects in
// memory for tests and local dry runs. Download and Publish wrap every failure
// with services.ErrStorage so the orchestrator can route it to the FAIL path.
package blob
