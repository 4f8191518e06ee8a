package cli

var version = "dev"

// SetVersionInfo records the build version reported by the CLI and the MCP server
func SetVersionInfo(v string) {
	version = v
}

// GetVersion returns the build version
func GetVersion() string {
	return version
}
