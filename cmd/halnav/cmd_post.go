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
	"strings"

	"github.com/spf13/cobra"
)

var postData string

// postCmd creates a subordinate resource.
//
// # Examples
//
//	halnav post https://api.example.com/users --data '{"name":"kirk"}'
//	halnav post --profile prod users --data @payload.json
var postCmd = &cobra.Command{
	Use:   "post [url] [path...]",
	Short: "POST a JSON body to the resource the path lands on",
	Long: `Creates a subordinate resource. The body comes from --data, either
inline JSON or @file. When the server answers with a Location header the new
resource URL is printed; otherwise the response body is.`,
	Run: runPostCommand,
}

func init() {
	rootCmd.AddCommand(postCmd)
	postCmd.Flags().StringVarP(&postData, "data", "d", "", "Request body: inline JSON or @file")
	_ = postCmd.MarkFlagRequired("data")
}

func runPostCommand(cmd *cobra.Command, args []string) {
	root, path, profile := resolveRoot(args)
	nav := navigate(cmd, root, path, profile)

	body := readBody(postData)
	created, err := nav.Create(cmd.Context(), body, nil)
	if err != nil {
		log.Fatalf("Error posting to %s: %v", nav.URI(), err)
	}

	if created.Orphan() {
		fmt.Printf("created (status %d)\n", created.Status())
		state, err := created.State(cmd.Context())
		if err == nil && len(state) > 0 {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			_ = enc.Encode(state)
		}
		return
	}
	fmt.Println(created.URI())
}

// readBody resolves --data: @path reads the file, anything else passes
// through raw.
func readBody(data string) []byte {
	if file, ok := strings.CutPrefix(data, "@"); ok {
		raw, err := os.ReadFile(file)
		if err != nil {
			log.Fatalf("Error reading body file: %v", err)
		}
		return raw
	}
	return []byte(data)
}
