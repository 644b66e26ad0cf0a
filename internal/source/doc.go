// Package source provides the record sources a directory session loads
// pages from.
//
// Two adapters satisfy Source: Simulated pages over a generated in-memory
// dataset with an artificial delay, and Remote calls a paged-query HTTP
// service. New picks exactly one of them from configuration at startup.
package source
