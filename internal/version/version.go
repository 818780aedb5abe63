package version

// Build-time variables. Override via -ldflags.
var (
	Version   = "1.0.0"
	Commit    = "dev"
	BuildDate = "dev"
)

const (
	// ServiceName is reported by the health and welcome endpoints.
	ServiceName = "Simple Chat API"
	// Description is logged in the startup banner.
	Description = "A simple API that responds to messages"
)

// Info describes build/version metadata.
type Info struct {
	Service   string `json:"service"`
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"buildDate"`
}

// Get returns version info. An empty Version falls back to "dev" like the other fields.
func Get() Info {
	return Info{
		Service:   ServiceName,
		Version:   defaultOr(Version, "dev"),
		Commit:    defaultOr(Commit, "dev"),
		BuildDate: defaultOr(BuildDate, "dev"),
	}
}

// String renders the info as a single banner-friendly line.
func (i Info) String() string {
	return i.Service + " " + i.Version + " (commit " + i.Commit + ", built " + i.BuildDate + ")"
}

func defaultOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
