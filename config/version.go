package config

const (

	// Title represents the name of this tool.
	Title string = "OnigKit"

	// Description represents a short description of this tool.
	Description string = "A toolkit for parsing and optimizing Oniguruma regular expressions."
)

// Version represents the SemVer of the tool.
var Version = "[unset]"

// Buildtime represents the timestamp of the build.
var Buildtime = "[unset]"

// Buildhash represents a unique hash of the build.
var Buildhash = "[unset]"
