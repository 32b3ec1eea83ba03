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
)

var deleteForce bool

// deleteCmd deletes the resource the path lands on.
var deleteCmd = &cobra.Command{
	Use:   "delete [url] [path...]",
	Short: "DELETE the resource the path lands on",
	Run:   runDeleteCommand,
}

func init() {
	rootCmd.AddCommand(deleteCmd)
	deleteCmd.Flags().BoolVar(&deleteForce, "force", false, "Required to confirm the deletion")
}

func runDeleteCommand(cmd *cobra.Command, args []string) {
	root, path, profile := resolveRoot(args)
	nav := navigate(cmd, root, path, profile)

	if !deleteForce {
		log.Fatalf("Refusing to delete %s without --force", nav.URI())
	}
	res, err := nav.Delete(cmd.Context())
	if err != nil {
		log.Fatalf("Error deleting %s: %v", nav.URI(), err)
	}
	fmt.Printf("deleted %s (status %d)\n", nav.URI(), res.Status())
}
