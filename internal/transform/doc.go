// Package transform defines the engine-side client interface for the external
// code transformer. The pipeline only talks to a transform.Client; esbuild
// in-process and remote gRPC transformers both sit behind it.
package transform
