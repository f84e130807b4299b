// CTBridge - CloudTurbine Telemetry Bridge for Open MCT
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ctbridge

/*
Package telemetry implements the Telemetry Source: it polls the archive on a
fixed period, normalizes new samples per channel, retains them in a per-channel
history buffer and fans each accepted sample out to registered listeners.

# State

Every channel owns a last-accepted timestamp (seconds, used as the lower bound
of the next fetch), a typed current value and an ordered history. All three are
mutated only by the source. Readers (History, Query, Current) get copies.

# Ordering

Accepting a sample and notifying listeners happen under one writer lock, so
listeners observe samples in exactly the order they were appended to history,
and timestamps within a channel are strictly increasing. Fetches within a tick
run concurrently (bounded by MaxConcurrentFetches) and a slow fetch is allowed
to overlap the next tick; when its result is applied, samples at or before the
channel's last accepted timestamp are dropped.

# Listeners

	sub := source.Subscribe(func(s models.Sample) { ... })
	defer sub.Cancel()

Listeners are called synchronously and must not block. A panicking listener is
recovered and logged; other listeners still receive the sample.

# Byte Counter

The synthetic comms.sent channel is never fetched. Each tick emits its current
value as a sample stamped with the wall clock, and every emitted sample adds
its JSON-encoded size to the counter.
*/
package telemetry
