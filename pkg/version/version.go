package version

import "runtime/debug"

// Build variables injected with ldflags:
// -X 'github.com/compozy/helpdesk/pkg/version.Version=v1.0.0'
// -X 'github.com/compozy/helpdesk/pkg/version.CommitHash=abc123'
// -X 'github.com/compozy/helpdesk/pkg/version.BuildDate=2024-01-01T00:00:00Z'
var (
	Version    = "dev"
	CommitHash = "unknown"
	BuildDate  = "unknown"
)

// Info returns build information in a structured format
type Info struct {
	Version    string `json:"version"`
	CommitHash string `json:"commit_hash"`
	BuildDate  string `json:"build_date"`
}

// Get returns the current build information. Values not injected at link time
// fall back to the module build info recorded by the Go toolchain.
func Get() Info {
	info := Info{
		Version:    Version,
		CommitHash: CommitHash,
		BuildDate:  BuildDate,
	}
	build, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	if info.Version == "dev" && build.Main.Version != "" && build.Main.Version != "(devel)" {
		info.Version = build.Main.Version
	}
	for _, setting := range build.Settings {
		switch setting.Key {
		case "vcs.revision":
			if info.CommitHash == "unknown" {
				info.CommitHash = setting.Value
			}
		case "vcs.time":
			if info.BuildDate == "unknown" {
				info.BuildDate = setting.Value
			}
		}
	}
	return info
}

// String renders the build information for --version output.
func (i Info) String() string {
	return i.Version + " (commit " + i.CommitHash + ", built " + i.BuildDate + ")"
}
