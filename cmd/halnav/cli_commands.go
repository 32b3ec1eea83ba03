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
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/halnav/pkg/halnav"
	"github.com/AleutianAI/halnav/pkg/halnav/transport"
	"github.com/AleutianAI/halnav/pkg/logging"
)

var (
	rootCmd = &cobra.Command{
		Use:   "halnav",
		Short: "A command line navigator for HAL+JSON hypermedia APIs",
		Long: `halnav walks HAL+JSON APIs by link relation instead of by URL.

Point it at an API root (or a saved profile) and follow relations the way
the server advertises them:

  halnav get https://api.example.com users 'crew[name=spock]'
  halnav links https://api.example.com
  halnav post https://api.example.com/users --data '{"name":"kirk"}'`,
	}

	// Persistent flags shared by every subcommand.
	profileName  string
	apiName      string
	defaultCurie string
	extraHeaders []string
	bearerToken  string
	basicAuth    string
	timeout      time.Duration
	retries      int
	rateLimit    float64
	verbose      bool

	logger *logging.Logger
)

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&profileName, "profile", "", "Named profile from ~/.halnav.yaml to use as the API root")
	pf.StringVar(&apiName, "name", "", "Display name for the API (default: derived from the root URL)")
	pf.StringVar(&defaultCurie, "curie", "", "Default CURIE prefix for bare relation lookups")
	pf.StringArrayVarP(&extraHeaders, "header", "H", nil, "Extra request header as 'Key: Value' (repeatable)")
	pf.StringVar(&bearerToken, "bearer", "", "Bearer token for the Authorization header")
	pf.StringVar(&basicAuth, "basic", "", "Basic auth credentials as user:password")
	pf.DurationVar(&timeout, "timeout", transport.DefaultTimeout, "Per-request timeout")
	pf.IntVar(&retries, "retries", 3, "Max attempts for idempotent requests")
	pf.Float64Var(&rateLimit, "rps", 0, "Client-side request rate limit (0 disables)")
	pf.BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		level := logging.LevelWarn
		if verbose {
			level = logging.LevelDebug
		}
		logger = logging.New(logging.Config{Level: level, Service: "halnav"})
	}
	rootCmd.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Close()
		}
	}
}

// resolveRoot splits the CLI args into the API root and the traversal path.
// With --profile the root comes from the profile and every arg is a path
// element; otherwise the first arg is the root URL.
func resolveRoot(args []string) (root string, path []string, profile *Profile) {
	if profileName != "" {
		p, err := lookupProfile(profileName)
		if err != nil {
			log.Fatalf("Error loading profile %q: %v", profileName, err)
		}
		return p.Root, args, p
	}
	if len(args) == 0 {
		log.Fatalf("Error: an API root URL is required (or use --profile)")
	}
	return args[0], args[1:], nil
}

// buildNavigator assembles the root navigator from flags and the optional
// profile. Flags win over profile values.
func buildNavigator(root string, profile *Profile, extra ...halnav.Option) *halnav.Navigator {
	name := apiName
	curie := defaultCurie
	attempts := retries
	rps := rateLimit
	headers := make(http.Header)
	var cred transport.Credential

	if profile != nil {
		if name == "" {
			name = profile.Name
		}
		if curie == "" {
			curie = profile.DefaultCurie
		}
		if rps == 0 {
			rps = profile.RateLimit
		}
		if profile.Retries > 0 && !rootCmd.PersistentFlags().Changed("retries") {
			attempts = profile.Retries
		}
		for k, v := range profile.Headers {
			headers.Set(k, v)
		}
		cred = profile.credential()
	}
	for _, h := range extraHeaders {
		key, val, ok := strings.Cut(h, ":")
		if !ok {
			log.Fatalf("Error: malformed header %q, want 'Key: Value'", h)
		}
		headers.Set(strings.TrimSpace(key), strings.TrimSpace(val))
	}
	switch {
	case bearerToken != "":
		cred = transport.BearerToken(bearerToken)
	case basicAuth != "":
		user, pass, ok := strings.Cut(basicAuth, ":")
		if !ok {
			log.Fatalf("Error: malformed --basic value, want user:password")
		}
		cred = transport.BasicAuth{Username: user, Password: pass}
	}

	var requester transport.Requester = transport.New(transport.Config{
		HTTPClient: &http.Client{Timeout: timeout},
		Credential: cred,
		Headers:    headers,
		Logger:     logger.Slog(),
	})
	requester = transport.NewRetryRequester(requester, transport.RetryConfig{
		MaxAttempts: attempts,
		Logger:      logger.Slog(),
	})
	if rps > 0 {
		requester = transport.NewRateLimitedRequester(requester, rps, 1)
	}

	opts := []halnav.Option{
		halnav.WithRequester(requester),
		halnav.WithLogger(logger.Slog()),
	}
	if name != "" {
		opts = append(opts, halnav.WithAPIName(name))
	}
	if curie != "" {
		opts = append(opts, halnav.WithDefaultCurie(curie))
	}
	opts = append(opts, extra...)

	nav, err := halnav.New(root, opts...)
	if err != nil {
		log.Fatalf("Error creating navigator for %s: %v", root, err)
	}
	return nav
}

// navigate walks the traversal path and requires a single concrete resource
// at the end.
func navigate(cmd *cobra.Command, root string, path []string, profile *Profile) *halnav.Navigator {
	nav := buildNavigator(root, profile)
	steps, err := parseSteps(path)
	if err != nil {
		log.Fatalf("Error parsing path: %v", err)
	}
	if len(steps) == 0 {
		return nav
	}
	spin := newSpinner(fmt.Sprintf("traversing %s", root))
	spin.Start()
	res, err := nav.Traverse(cmd.Context(), steps...)
	spin.Stop()
	if err != nil {
		log.Fatalf("Error traversing: %v", err)
	}
	target, err := res.Navigator()
	if err != nil {
		if thunk, terr := res.Thunk(); terr == nil {
			log.Fatalf("Error: the path ends on a templated link %s; bind its variables (%s)",
				thunk.TargetURI(), strings.Join(thunk.Variables(), ", "))
		}
		log.Fatalf("Error resolving path: %v", err)
	}
	return target
}
