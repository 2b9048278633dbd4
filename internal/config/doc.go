// Package config loads, normalizes, and validates systemqa worker configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours the environment variables the
// authoring service already exports (MANUAL_FILES_S3_BUCKET_NAME, AWS_SQS_*,
// GOOGLE_GEMINI_*). The Config type centralizes every knob the worker and CLI
// need so storage, queue and model credentials are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
