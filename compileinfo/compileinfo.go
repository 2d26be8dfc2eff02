// Package compileinfo reports which commit a binary was built from, so that
// analyses can be traced back to the code that produced them.
package compileinfo

import (
	"fmt"
	"io"
	"os"
	"runtime/debug"
)

type CompileInfo struct {
	Package    string `json:"package"`
	GoVersion  string `json:"go_version"`
	Commit     string `json:"commit,omitempty"`
	CommitTime string `json:"commit_time,omitempty"`
	Modified   bool   `json:"modified"`
}

func (c CompileInfo) String() string {
	if c.Commit == "" {
		return fmt.Sprintf("%s built with %s from an unknown commit.", c.name(), c.GoVersion)
	}

	mod := ""
	if c.Modified {
		mod = " Files in the repo were modified after that commit."
	}

	return fmt.Sprintf("%s built with %s at commit %s (%s).%s", c.name(), c.GoVersion, c.Commit, c.CommitTime, mod)
}

func (c CompileInfo) name() string {
	if c.Package == "" {
		return "This binary was"
	}

	return fmt.Sprintf("This %s binary was", c.Package)
}

// Get reads the build information embedded by the Go toolchain. Fields are
// left empty when it is unavailable, as in tests.
func Get() CompileInfo {
	out := CompileInfo{}

	z, ok := debug.ReadBuildInfo()
	if !ok {
		return out
	}

	out.GoVersion = z.GoVersion
	out.Package = z.Path
	for _, s := range z.Settings {
		switch s.Key {
		case "vcs.revision":
			out.Commit = s.Value
		case "vcs.time":
			out.CommitTime = s.Value
		case "vcs.modified":
			out.Modified = s.Value == "true"
		}
	}

	return out
}

func Fprint(w io.Writer) {
	fmt.Fprintf(w, "%s\n", Get())
}

func PrintToStdErr() {
	Fprint(os.Stderr)
}
