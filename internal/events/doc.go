// Finsegment - Customer Segmentation and Product Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/finsegment

/*
Package events carries bundle-published notifications between the process
that trains a bundle and the processes that serve it.

After a training run commits a bundle to the shared model store, the engine
publishes a BundlePublished event through a Bus. Serving processes run a
Reloader that loads the announced version and swaps it in only when it is
newer than the bundle already being served.

Two transports are available:

  - gochannel (watermill in-process pub/sub), used when no NATS URL is set
  - core NATS via watermill-nats, for a trainer CLI and one or more servers

Publishing goes through a gobreaker circuit breaker that opens after
consecutive failures. Watermill logs are routed through
zerolog by NewLoggerAdapter.
*/
package events
