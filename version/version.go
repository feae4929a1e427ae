// Package version carries build information stamped with -ldflags, e.g.
// -X github.com/pitabwire/telereso/version.Version=v1.2.0.
package version //nolint:revive // package name intentionally matches build-info convention

import (
	"fmt"
	"runtime/debug"
)

//nolint:gochecknoglobals //version information is set at build time
var (
	Repository = "github.com/pitabwire/telereso"
	Version    string
	Commit     string
	Date       string
)

// Info is the build information reported by the CLI.
type Info struct {
	Repository string `yaml:"repository"`
	Version    string `yaml:"version"`
	Commit     string `yaml:"commit,omitempty"`
	Date       string `yaml:"date,omitempty"`
}

// Get returns the stamped build information, completed from the module build
// info when the binary was built without ldflags.
func Get() Info {
	info := Info{
		Repository: Repository,
		Version:    Version,
		Commit:     Commit,
		Date:       Date,
	}

	build, ok := debug.ReadBuildInfo()
	if !ok {
		return info.withDefaults()
	}

	if info.Version == "" && build.Main.Version != "" && build.Main.Version != "(devel)" {
		info.Version = build.Main.Version
	}
	for _, setting := range build.Settings {
		switch setting.Key {
		case "vcs.revision":
			if info.Commit == "" {
				info.Commit = setting.Value
			}
		case "vcs.time":
			if info.Date == "" {
				info.Date = setting.Value
			}
		}
	}

	return info.withDefaults()
}

func (i Info) withDefaults() Info {
	if i.Version == "" {
		i.Version = "dev"
	}
	return i
}

func (i Info) String() string {
	if i.Commit == "" {
		return fmt.Sprintf("%s %s", i.Repository, i.Version)
	}
	return fmt.Sprintf("%s %s (%s %s)", i.Repository, i.Version, i.Commit, i.Date)
}
