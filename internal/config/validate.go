// CTBridge - CloudTurbine Telemetry Bridge for Open MCT
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ctbridge

package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/tomtom215/ctbridge/internal/validation"
)

// Validate checks field ranges and cross-field constraints.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c); err != nil {
		return err
	}

	if err := validateHTTPURL(c.Upstream.BaseURL, "upstream.base_url"); err != nil {
		return err
	}
	if strings.HasSuffix(c.Upstream.ArchivePath, "/") && c.Upstream.ArchivePath != "/" {
		return errors.New("upstream.archive_path must not end with /")
	}

	return c.validateServer()
}

func (c *Config) validateServer() error {
	if c.Server.RealtimePort != 0 && c.Server.RealtimePort == c.Server.Port {
		return fmt.Errorf("server.realtime_port must differ from server.port (%d)", c.Server.Port)
	}
	return nil
}

// validateHTTPURL requires an http or https URL with a host and no query.
// A path prefix is allowed for archives served below the server root.
func validateHTTPURL(rawURL, fieldName string) error {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%s failed to parse URL: %w", fieldName, err)
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("%s scheme must be http or https, got: %q", fieldName, parsedURL.Scheme)
	}

	if parsedURL.Host == "" {
		return fmt.Errorf("%s host is required", fieldName)
	}

	if parsedURL.RawQuery != "" {
		return fmt.Errorf("%s should not contain query parameters, remove: ?%s", fieldName, parsedURL.RawQuery)
	}

	return nil
}
