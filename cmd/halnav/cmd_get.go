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
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
)

var getFollowPages bool

// getCmd fetches a resource and prints its state as JSON.
//
// # Examples
//
//	halnav get https://api.example.com                 # the root resource
//	halnav get https://api.example.com users           # follow a relation
//	halnav get --profile prod 'crew[name=spock]'       # filter a multi-link
//	halnav get https://api.example.com search q=gold   # expand a template
var getCmd = &cobra.Command{
	Use:   "get [url] [path...]",
	Short: "Fetch a resource by walking link relations and print its state",
	Long: `Fetches the resource the path lands on and prints its state as JSON.

The path is a sequence of link relations. Multi-valued relations can be
narrowed with [index] or [prop=value]; key=value arguments bind URI template
variables for the final link.`,
	Run: runGetCommand,
}

func init() {
	rootCmd.AddCommand(getCmd)
	getCmd.Flags().BoolVar(&getFollowPages, "pages", false, "Follow the next chain and print every page")
}

func runGetCommand(cmd *cobra.Command, args []string) {
	root, path, profile := resolveRoot(args)
	nav := navigate(cmd, root, path, profile)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	if !getFollowPages {
		state, err := nav.State(cmd.Context())
		if err != nil {
			log.Fatalf("Error fetching %s: %v", nav.URI(), err)
		}
		if err := enc.Encode(state); err != nil {
			log.Fatalf("Error encoding state: %v", err)
		}
		return
	}

	for page, err := range nav.Pages(cmd.Context()) {
		if err != nil {
			log.Fatalf("Error following next chain: %v", err)
		}
		state, err := page.State(cmd.Context())
		if err != nil {
			log.Fatalf("Error fetching %s: %v", page.URI(), err)
		}
		fmt.Printf("-- %s\n", page.RelativeURI())
		if err := enc.Encode(state); err != nil {
			log.Fatalf("Error encoding state: %v", err)
		}
	}
}
