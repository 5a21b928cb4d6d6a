package version

import (
	"runtime/debug"
	"strings"
	"time"
)

const defaultModule = "pkt.systems/inkbridge"

// buildVersion is set via -ldflags "-X pkt.systems/inkbridge/internal/version.buildVersion=...".
var buildVersion = ""

// Details describes the running build.
type Details struct {
	Module    string `json:"module"`
	Version   string `json:"version"`
	Revision  string `json:"revision,omitempty"`
	Modified  bool   `json:"modified,omitempty"`
	GoVersion string `json:"go_version,omitempty"`
}

// Current returns the best available version string without a dirty suffix.
func Current() string {
	return Read().Version
}

// Read collects build details from link flags and the embedded build info.
func Read() Details {
	info, _ := debug.ReadBuildInfo()
	return detailsFrom(info, buildVersion)
}

func detailsFrom(info *debug.BuildInfo, override string) Details {
	d := Details{Module: defaultModule, Version: "v0.0.0-unknown"}
	vcs := readVCS(info)
	d.Revision = vcs.revision
	d.Modified = vcs.modified
	if info != nil {
		if path := strings.TrimSpace(info.Main.Path); path != "" {
			d.Module = path
		}
		d.GoVersion = info.GoVersion
	}
	switch {
	case strings.TrimSpace(override) != "":
		d.Version = strings.TrimSpace(override)
	case info != nil && info.Main.Version != "" && info.Main.Version != "(devel)":
		d.Version = info.Main.Version
	default:
		if pseudo := vcs.pseudoVersion(); pseudo != "" {
			d.Version = pseudo
		}
	}
	d.Version = strings.TrimSuffix(d.Version, "+dirty")
	return d
}

type vcsSettings struct {
	revision string
	time     string
	modified bool
}

func readVCS(info *debug.BuildInfo) vcsSettings {
	var out vcsSettings
	if info == nil {
		return out
	}
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			out.revision = setting.Value
		case "vcs.time":
			out.time = setting.Value
		case "vcs.modified":
			out.modified = setting.Value == "true"
		}
	}
	return out
}

func (v vcsSettings) pseudoVersion() string {
	if v.revision == "" || v.time == "" {
		return ""
	}
	parsed, err := time.Parse(time.RFC3339, v.time)
	if err != nil {
		return ""
	}
	rev := v.revision
	if len(rev) > 12 {
		rev = rev[:12]
	}
	return "v0.0.0-" + parsed.UTC().Format("20060102150405") + "-" + rev
}

// String renders the details for humans.
func (d Details) String() string {
	var b strings.Builder
	b.WriteString(d.Module)
	b.WriteString(" ")
	b.WriteString(d.Version)
	if d.Modified {
		b.WriteString(" (modified)")
	}
	if d.GoVersion != "" {
		b.WriteString(" ")
		b.WriteString(d.GoVersion)
	}
	return b.String()
}
