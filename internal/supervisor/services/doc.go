// CTBridge - CloudTurbine Telemetry Bridge for Open MCT
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ctbridge

// Package services adapts the bridge's long-running components to
// suture.Service so they can be placed in the supervisor tree.
//
// Each wrapper delegates to a context-aware run method and implements
// fmt.Stringer so supervisor events name the component.
package services
