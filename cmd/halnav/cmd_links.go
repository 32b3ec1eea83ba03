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
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/halnav/pkg/halnav"
)

// linksCmd lists the link relations a resource advertises.
var linksCmd = &cobra.Command{
	Use:   "links [url] [path...]",
	Short: "List the link relations and embedded resources of a resource",
	Run:   runLinksCommand,
}

func init() {
	rootCmd.AddCommand(linksCmd)
}

func runLinksCommand(cmd *cobra.Command, args []string) {
	root, path, profile := resolveRoot(args)
	nav := navigate(cmd, root, path, profile)

	links, err := nav.Links(cmd.Context())
	if err != nil {
		log.Fatalf("Error fetching %s: %v", nav.URI(), err)
	}
	embedded, err := nav.Embedded(cmd.Context())
	if err != nil {
		log.Fatalf("Error fetching %s: %v", nav.URI(), err)
	}

	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	defer func() { _ = w.Flush() }()

	printCollection(w, "link", links)
	printCollection(w, "embedded", embedded)
}

func printCollection(w *tabwriter.Writer, kind string, c *halnav.LinkCollection) {
	for _, rel := range c.Relations() {
		ll, _ := c.Get(rel)
		for _, node := range ll.Nodes() {
			marker := ""
			if _, ok := node.(*halnav.TemplateThunk); ok {
				marker = " (templated)"
			}
			fmt.Fprintf(w, "%s\t%s\t%s%s\n", kind, rel, node.TargetURI(), marker)
		}
	}
}
