// CTBridge - CloudTurbine Telemetry Bridge for Open MCT
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ctbridge

package registry

import "github.com/tomtom215/ctbridge/internal/models"

const (
	dictionaryName = "CloudTurbine Telemetry"
	dictionaryKey  = "ct"
)

// Dictionary renders the channel list as the metadata document. Every
// measurement carries a value descriptor and a utc domain descriptor; image
// channels expose a url descriptor in place of the value.
func Dictionary(channels []models.Channel) models.Dictionary {
	measurements := make([]models.Measurement, 0, len(channels))
	for _, ch := range channels {
		measurements = append(measurements, measurement(ch))
	}

	return models.Dictionary{
		Name:         dictionaryName,
		Key:          dictionaryKey,
		Measurements: measurements,
	}
}

func measurement(ch models.Channel) models.Measurement {
	value := models.ValueDescriptor{
		Key:    "value",
		Name:   "Value",
		Format: string(ch.Kind),
		Hints:  map[string]int{"range": 1},
	}
	if ch.Kind == models.KindImage {
		value = models.ValueDescriptor{
			Key:    "url",
			Name:   "Image",
			Source: "value",
			Format: string(models.KindImage),
			Hints:  map[string]int{"image": 1},
		}
	}

	return models.Measurement{
		Name: ch.Name,
		Key:  ch.Key,
		Values: []models.ValueDescriptor{
			value,
			{
				Key:    "utc",
				Name:   "Timestamp",
				Source: "timestamp",
				Format: "utc",
				Hints:  map[string]int{"domain": 1},
			},
		},
	}
}
