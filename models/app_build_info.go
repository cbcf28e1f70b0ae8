// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import "fmt"

// AppBuildInfo carries build-time metadata injected by linker flags.
//
// It is printed by the CLI on startup and sent to the backend as part of the
// User-Agent header.
type AppBuildInfo struct {
	buildVersion string
	buildDate    string
	buildCommit  string
}

// NewAppBuildInfo constructs [AppBuildInfo]. Empty values are reported as
// "N/A".
func NewAppBuildInfo(buildVersion, buildDate, buildCommit string) AppBuildInfo {
	return AppBuildInfo{
		buildVersion: orNA(buildVersion),
		buildDate:    orNA(buildDate),
		buildCommit:  orNA(buildCommit),
	}
}

// BuildVersion returns the semantic version string of the build.
func (a AppBuildInfo) BuildVersion() string {
	return orNA(a.buildVersion)
}

// BuildDate returns the build timestamp string.
func (a AppBuildInfo) BuildDate() string {
	return orNA(a.buildDate)
}

// BuildCommit returns the source-control commit hash used for the build.
func (a AppBuildInfo) BuildCommit() string {
	return orNA(a.buildCommit)
}

// UserAgent returns the value sent in the User-Agent request header.
func (a AppBuildInfo) UserAgent() string {
	return fmt.Sprintf("amestris-client/%s (%s)", a.BuildVersion(), a.BuildCommit())
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
