// Package storage provides bucket-backed object storage with reference
// navigation, resumable upload tasks, and multi-file upload fan-out.
// Supported backends: local filesystem, Amazon S3 (and S3-compatible
// services).
//
// A Ref names one object in a bucket. It resolves metadata and download
// URLs, starts uploads as observable tasks, and renders gs:// URIs. A
// MultiUploader turns a batch of files into one upload task per file.
package storage
