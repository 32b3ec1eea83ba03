// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package halnav

import (
	"fmt"
	"os/exec"
	"runtime"
)

// DocsViewer receives resolved documentation URLs from Navigator.DocsFor.
// Opening the URL is purely a side effect; it is not part of the navigation
// state machine.
type DocsViewer interface {
	Open(url string) error
}

// BrowserViewer opens documentation URLs in the system browser.
type BrowserViewer struct{}

// Open shells out to the platform opener.
func (v *BrowserViewer) Open(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("opening %s: %w", url, err)
	}
	// Don't wait: browsers may not exit until closed.
	go func() { _ = cmd.Wait() }()
	return nil
}

// NopViewer discards documentation URLs. Useful for headless environments
// where DocsFor is only used to resolve the URL.
type NopViewer struct{}

// Open implements DocsViewer.
func (v *NopViewer) Open(string) error { return nil }
