package config

// ConfigFileNames are the recognized configuration file names, in lookup
// order.
var ConfigFileNames = []string{"typeobj.yaml", "typeobj.yml"}

// DefaultStubIndex is where the stub index lives, relative to the config
// directory, when stub_index is set to "default".
const DefaultStubIndex = ".typeobj/stubs.db"

// Environment variables read by the command line.
const (
	EnvDebug   = "DEBUG"
	EnvVerbose = "TYPEOBJ_VERBOSE"
	EnvNoColor = "NO_COLOR"
)

// IsVerbose is set once at startup when verbose logging was requested on
// the command line. New pipeline contexts start verbose when it is set.
var IsVerbose = false
