// Package version reports the build of the uploadwatch binaries.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
	"time"
)

const (
	devVersion     = "0.1.0-dev"
	unknownCommit  = "HEAD"
	agentCommitLen = 7
)

// Overridden at link time, e.g. -ldflags "-X .../version.Version=1.2.0"
var (
	AppName   = "uploadwatch"
	Version   = devVersion
	Revision  = unknownCommit
	BuildDate = ""
)

// Info is a snapshot of the build metadata
type Info struct {
	App       string
	Version   string
	Revision  string
	BuildDate string
	GoVersion string
	Platform  string
}

// Get returns the current build metadata
func Get() Info {
	return Info{
		App:       AppName,
		Version:   Version,
		Revision:  Revision,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// Short returns `0.1.0 (5e23a4)`
func (i Info) Short() string {
	return i.Version + " (" + i.Revision + ")"
}

// Detailed returns `0.1.0 (5e23a4; go1.23.6; linux/amd64; 2025-01-01T00:00:00Z)`
func (i Info) Detailed() string {
	return fmt.Sprintf("%s (%s)", i.Version, strings.Join([]string{i.Revision, i.GoVersion, i.Platform, i.BuildDate}, "; "))
}

// UserAgent carries an abbreviated commit so the header stays short
func (i Info) UserAgent() string {
	return fmt.Sprintf("%s/%s (%s; %s)", i.App, i.Version, abbrev(i.Revision), strings.Replace(i.Platform, "/", "; ", 1))
}

func abbrev(revision string) string {
	commit, dirty := strings.CutSuffix(revision, "-dirty")
	if len(commit) > agentCommitLen {
		commit = commit[:agentCommitLen]
	}
	if dirty {
		commit += "-dirty"
	}
	return commit
}

func Short() string           { return Get().Short() }
func ShortWithApp() string    { return AppName + " " + Short() }
func Detailed() string        { return Get().Detailed() }
func DetailedWithApp() string { return AppName + " " + Detailed() }

// UserAgent is sent by the http and websocket clients
func UserAgent() string { return Get().UserAgent() }

// applyBuildInfo fills in whatever the linker left at its default from the module
// version and vcs stamps the go tool embeds
func applyBuildInfo(bi *debug.BuildInfo) {
	if bi == nil {
		return
	}

	if v := bi.Main.Version; (Version == "" || Version == devVersion) && v != "" && v != "(devel)" {
		Version = strings.TrimPrefix(v, "v")
	}

	var revision, modified, stamped string
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			revision = s.Value
		case "vcs.modified":
			modified = s.Value
		case "vcs.time":
			stamped = s.Value
		}
	}

	if (Revision == "" || Revision == unknownCommit) && revision != "" {
		if modified == "true" {
			revision += "-dirty"
		}
		Revision = revision
	}
	if BuildDate == "" {
		BuildDate = stamped
	}
}

func init() {
	bi, _ := debug.ReadBuildInfo()
	applyBuildInfo(bi)
	if BuildDate == "" {
		BuildDate = time.Now().UTC().Format(time.RFC3339)
	}
}
