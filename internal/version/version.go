// Copyright (c) 2013-2014 The btcsuite developers
// Copyright (c) 2025 The Syscoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package version holds the version of mempoold.
package version

import (
	"fmt"
	"strings"
)

// The pre-release and build alphabets of semantic versioning 2.0.0.
const (
	preRelAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz-"
	buildAlphabet  = preRelAlphabet + "."
)

// Application version components.
const (
	Major uint = 0
	Minor uint = 3
	Patch uint = 0
)

var (
	// PreRelease may be overridden at link time with
	// '-ldflags "-X github.com/syscoin/sysd/internal/version.PreRelease=foo"'.
	PreRelease = "beta"

	// BuildMetadata may be overridden at link time with
	// '-ldflags "-X github.com/syscoin/sysd/internal/version.BuildMetadata=foo"'.
	BuildMetadata = ""
)

// String returns the semantic version string.  Characters outside the
// allowed alphabets are dropped from the pre-release and build parts.
func String() string {
	version := fmt.Sprintf("%d.%d.%d", Major, Minor, Patch)
	if pre := normalize(PreRelease, preRelAlphabet); pre != "" {
		version += "-" + pre
	}
	if build := normalize(BuildMetadata, buildAlphabet); build != "" {
		version += "+" + build
	}
	return version
}

func normalize(str, alphabet string) string {
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(alphabet, r) {
			return r
		}
		return -1
	}, str)
}
