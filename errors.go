// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Maxim Levchenko (WoozyMasta)
// Source: github.com/woozymasta/efidecompress

package efidecompress

import "errors"

// Package errors. Use errors.New for static messages, fmt.Errorf when values are needed.
var (
	ErrMalformedHeader     = errors.New("malformed compressed header")
	ErrBadTable            = errors.New("corrupt huffman table")
	ErrDestinationTooSmall = errors.New("destination buffer smaller than original size")
	ErrUnexpectedEOF       = errors.New("unexpected end of input inside compressed payload")
	ErrNilReader           = errors.New("reader is nil")
	ErrOutputTooLarge      = errors.New("declared original size exceeds limit")
)
