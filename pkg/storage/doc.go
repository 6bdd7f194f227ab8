// Package storage defines the persistence interfaces for users and products
// together with the sentinel errors shared by every adapter.
//
// Adapters live in subpackages: memory for tests and single-instance
// deployments, postgres for durable storage.
package storage
