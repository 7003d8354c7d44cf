package version

import (
	"fmt"
	"io"
	"runtime"
	"runtime/debug"
)

// Set through -ldflags "-X .../internal/version.Version=...".
var (
	App       = "FleetAuth"
	Version   string
	GitCommit string
	BuildTime string
)

// Info is the resolved build identity of the running binary.
type Info struct {
	App      string
	Version  string
	Commit   string
	Built    string
	Go       string
	Platform string
}

// Current resolves build information, falling back to the module build info
// embedded by the Go toolchain when ldflags were not supplied.
func Current() Info {
	info := Info{
		App:      App,
		Version:  Version,
		Commit:   GitCommit,
		Built:    BuildTime,
		Go:       runtime.Version(),
		Platform: runtime.GOOS + "/" + runtime.GOARCH,
	}

	if bi, ok := debug.ReadBuildInfo(); ok {
		if info.Version == "" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
			info.Version = bi.Main.Version
		}
		for _, s := range bi.Settings {
			switch s.Key {
			case "vcs.revision":
				if info.Commit == "" {
					info.Commit = s.Value
				}
			case "vcs.time":
				if info.Built == "" {
					info.Built = s.Value
				}
			}
		}
	}

	if info.Version == "" {
		info.Version = "dev"
	}
	if len(info.Commit) > 7 {
		info.Commit = info.Commit[:7]
	}
	return info
}

// Fprint writes a human-readable version block to w.
func (i Info) Fprint(w io.Writer) {
	fmt.Fprintf(w, "%s %s (%s)\n", i.App, i.Version, i.Platform)
	if i.Commit != "" {
		fmt.Fprintf(w, "  commit: %s\n", i.Commit)
	}
	if i.Built != "" {
		fmt.Fprintf(w, "  built:  %s\n", i.Built)
	}
	fmt.Fprintf(w, "  go:     %s\n", i.Go)
}
