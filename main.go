// Copyright 2025 The GeoScope Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/jcodagnone/geoscope/cmd"
)

var Version = "development"

func main() {
	cmd.Execute(Version)
}
