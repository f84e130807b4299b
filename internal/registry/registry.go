// CTBridge - CloudTurbine Telemetry Bridge for Open MCT
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ctbridge

// Package registry builds the immutable channel list from discovered archive
// paths and renders it as the dictionary document consumed by Open MCT.
package registry

import (
	"path"
	"strings"

	"github.com/tomtom215/ctbridge/internal/logging"
	"github.com/tomtom215/ctbridge/internal/models"
)

const (
	// CommsSentKey is the synthetic channel that counts serialized bytes of
	// every emitted sample.
	CommsSentKey = "comms.sent"

	// CommsSentName is the display name of CommsSentKey.
	CommsSentName = "Data sent (bytes)"

	// MetadataKey is the history key that returns the dictionary document
	// instead of samples.
	MetadataKey = "ct_chan_metadata"

	// WAVSuffix marks raw-audio channels whose integer samples are scaled to [-1, 1].
	WAVSuffix = ".wav"
)

// suffixKinds maps archive file extensions to channel kinds.
//
//	.f32 .f64 .csv .wav  float   (.wav is integer PCM rescaled to float)
//	.i16 .i32 .i64 .pcm  integer
//	.txt                 string
//	.jpg                 image
var suffixKinds = map[string]models.Kind{
	"f32": models.KindFloat,
	"f64": models.KindFloat,
	"i16": models.KindInteger,
	"i32": models.KindInteger,
	"i64": models.KindInteger,
	"csv": models.KindFloat,
	"pcm": models.KindInteger,
	"wav": models.KindFloat,
	"txt": models.KindString,
	"jpg": models.KindImage,
}

// Build turns discovered channel paths into the channel list. Paths are
// relative to the archive root. Empty entries, directory entries, duplicates
// and entries colliding with the synthetic counter are skipped. The
// comms.sent channel is always appended last.
func Build(paths []string) []models.Channel {
	channels := make([]models.Channel, 0, len(paths)+1)
	seen := make(map[string]struct{}, len(paths))

	for _, p := range paths {
		key := strings.Trim(strings.TrimSpace(p), "/")
		if key == "" || strings.HasSuffix(strings.TrimSpace(p), "/") {
			logging.Debug().Str("path", p).Msg("Skipping malformed channel entry")
			continue
		}
		if key == CommsSentKey {
			logging.Warn().Str("channel", key).Msg("Channel collides with synthetic byte counter, skipping")
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		channels = append(channels, models.Channel{
			Key:  key,
			Name: key,
			Kind: InferKind(key),
		})
	}

	return append(channels, models.Channel{
		Key:  CommsSentKey,
		Name: CommsSentName,
		Kind: models.KindInteger,
	})
}

// InferKind returns the kind for a channel name from its file extension.
// Names without an extension are float; unknown extensions are float with a warning.
func InferKind(name string) models.Kind {
	ext := path.Ext(path.Base(name))
	if ext == "" || ext == "." {
		return models.KindFloat
	}

	if kind, ok := suffixKinds[strings.TrimPrefix(ext, ".")]; ok {
		return kind
	}

	logging.Warn().
		Str("channel", name).
		Str("suffix", ext).
		Msg("Unknown channel suffix, assuming float")
	return models.KindFloat
}

// IsWAV reports whether samples on the channel need PCM scaling.
func IsWAV(key string) bool {
	return strings.HasSuffix(key, WAVSuffix)
}
