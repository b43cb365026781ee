package params

import "os"

// IoConfig defines the shared io parameters.
type IoConfig struct {
	ReadWritePermissions        os.FileMode
	ReadWriteExecutePermissions os.FileMode
}

var defaultIoConfig = &IoConfig{
	ReadWritePermissions:        0600, // rw------- for data files.
	ReadWriteExecutePermissions: 0700, // rwx------ for the data directory.
}

// AavewatchIoConfig returns the current io config.
func AavewatchIoConfig() *IoConfig {
	return defaultIoConfig
}
