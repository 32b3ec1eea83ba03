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

	"github.com/spf13/cobra"

	"github.com/AleutianAI/halnav/pkg/halnav"
)

var docsOpen bool

// docsCmd resolves the documentation URL for a link relation.
var docsCmd = &cobra.Command{
	Use:   "docs [url] <relation>",
	Short: "Resolve the documentation URL for a link relation via its CURIE",
	Args:  cobra.MinimumNArgs(1),
	Run:   runDocsCommand,
}

func init() {
	rootCmd.AddCommand(docsCmd)
	docsCmd.Flags().BoolVar(&docsOpen, "open", false, "Open the URL in a browser instead of printing it")
}

func runDocsCommand(cmd *cobra.Command, args []string) {
	root, path, profile := resolveRoot(args)
	if len(path) != 1 {
		log.Fatalf("Error: docs takes exactly one relation after the root")
	}
	rel := path[0]

	// DocsFor hands the URL to the configured viewer; printing is the
	// default, the browser is opt-in.
	var opts []halnav.Option
	if !docsOpen {
		opts = append(opts, halnav.WithDocsViewer(&halnav.NopViewer{}))
	}
	nav := buildNavigator(root, profile, opts...)

	url, err := nav.DocsFor(cmd.Context(), rel)
	if err != nil {
		log.Fatalf("Error resolving docs for %q: %v", rel, err)
	}
	fmt.Println(url)
}
