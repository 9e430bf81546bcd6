// Package server implements the HTTP API for the voice codec service.
// It exposes container inspection and verification endpoints alongside
// health, configuration, statistics and Prometheus metrics.
package server
