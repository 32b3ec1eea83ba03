// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/halnav/pkg/halnav/transport"
)

// profileValidate is the validator instance for profile files.
var profileValidate = validator.New()

// Profile is one saved API target in ~/.halnav.yaml.
type Profile struct {
	// Root is the API root URL.
	Root string `yaml:"root" validate:"required,url"`

	// Name overrides the derived API display name.
	Name string `yaml:"name"`

	// DefaultCurie is the CURIE prefix tried for bare relations.
	DefaultCurie string `yaml:"default_curie"`

	// Headers are sent with every request.
	Headers map[string]string `yaml:"headers"`

	// Auth selects at most one credential.
	Auth *AuthConfig `yaml:"auth"`

	// RateLimit throttles requests per second. 0 disables.
	RateLimit float64 `yaml:"rate_limit" validate:"gte=0"`

	// Retries is the max attempt count for idempotent requests.
	Retries int `yaml:"retries" validate:"gte=0,lte=10"`
}

// AuthConfig holds the credential for a profile.
type AuthConfig struct {
	Bearer string           `yaml:"bearer"`
	Basic  *BasicAuthConfig `yaml:"basic"`
}

// BasicAuthConfig is a username/password pair.
type BasicAuthConfig struct {
	Username string `yaml:"username" validate:"required"`
	Password string `yaml:"password"`
}

// ProfileFile is the top-level shape of ~/.halnav.yaml.
type ProfileFile struct {
	Profiles map[string]Profile `yaml:"profiles" validate:"dive"`
}

// credential converts the profile auth block to a transport credential, or
// nil when none is configured.
func (p *Profile) credential() transport.Credential {
	if p.Auth == nil {
		return nil
	}
	if p.Auth.Bearer != "" {
		return transport.BearerToken(p.Auth.Bearer)
	}
	if p.Auth.Basic != nil {
		return transport.BasicAuth{
			Username: p.Auth.Basic.Username,
			Password: p.Auth.Basic.Password,
		}
	}
	return nil
}

// defaultProfilePath is ~/.halnav.yaml.
func defaultProfilePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, ".halnav.yaml"), nil
}

// loadProfiles parses and validates a profile file.
func loadProfiles(path string) (*ProfileFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var file ProfileFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	for name, profile := range file.Profiles {
		if err := profileValidate.Struct(profile); err != nil {
			return nil, fmt.Errorf("profile %q: %w", name, err)
		}
	}
	return &file, nil
}

// lookupProfile loads the default profile file and returns the named entry.
func lookupProfile(name string) (*Profile, error) {
	path, err := defaultProfilePath()
	if err != nil {
		return nil, err
	}
	file, err := loadProfiles(path)
	if err != nil {
		return nil, err
	}
	profile, ok := file.Profiles[name]
	if !ok {
		return nil, fmt.Errorf("no profile %q in %s", name, path)
	}
	return &profile, nil
}
