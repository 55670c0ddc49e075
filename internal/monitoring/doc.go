/*
Package monitoring provides Prometheus metrics for encoding and injection.

# Overview

Metrics are registered against a caller-supplied registerer so several
collectors can coexist (tests build their own prometheus.Registry).

# Metrics

  - scriptenc_encodes_total{result}: encoded | skipped (already encoded)
  - scriptenc_stages_total{stage}: pipeline stages that changed the payload
  - scriptenc_grants_total{kind}: shim | stub
  - scriptenc_payload_bytes: size of produced payloads
  - scriptenc_injections_total{outcome}: delivered | rejected

# Usage

	reg := prometheus.NewRegistry()
	metrics := monitoring.NewMetrics(reg)
	enc := encoder.New(encoder.WithMetrics(metrics))

A nil *Metrics is valid and records nothing.
*/
package monitoring
