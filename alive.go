// SPDX-FileCopyrightText: 2025 M. Shulhan <ms@kilabit.info>
// SPDX-License-Identifier: GPL-3.0-only

// Package alive contains the version, configuration file, and input
// readers of the alive program.
// The checker itself is in package liveness.
package alive

import (
	_ "embed"
)

// Version of alive program and module.
var Version = `0.1.0`

// GoEmbedReadme embed the README for showing the usage of program.
//
//go:embed README
var GoEmbedReadme string
