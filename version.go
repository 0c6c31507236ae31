/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package modelstore

import (
	"fmt"
	"runtime"
)

// Build metadata, overridable with
//
//	go build -ldflags "-X github.com/suparena/modelstore.GitCommit=$(git rev-parse HEAD)"
var (
	Version   = "0.3.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// VersionInfo describes the running build.
type VersionInfo struct {
	Version   string   `json:"version"`
	GitCommit string   `json:"gitCommit"`
	BuildDate string   `json:"buildDate"`
	GoVersion string   `json:"goVersion"`
	Engines   []string `json:"engines"`
}

// GetVersionInfo returns the build metadata and the registered engines.
func GetVersionInfo() VersionInfo {
	return VersionInfo{
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Engines:   Engines(),
	}
}

func (v VersionInfo) String() string {
	return fmt.Sprintf("modelstore %s (commit %s, built %s, %s)", v.Version, v.GitCommit, v.BuildDate, v.GoVersion)
}
