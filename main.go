// Copyright 2026 The ArtVision Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/artvision/artvision/cmd"
)

var Version = "development"

func main() {
	cmd.Execute(Version)
}
