package buildenv

import "os"

// Environment is the resolver's only view of the host: environment
// variables and file existence. Tests substitute a fake.
type Environment interface {
	LookupEnv(key string) (string, bool)
	Exists(path string) bool
}

// OSEnvironment reads the real process environment and filesystem.
type OSEnvironment struct{}

func (OSEnvironment) LookupEnv(key string) (string, bool) {
	return os.LookupEnv(key)
}

func (OSEnvironment) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
