// Copyright 2026 The CompTrack Authors
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/oweaver/comptrack/cmd"
)

var Version = "development"

func main() {
	cmd.Execute(Version)
}
