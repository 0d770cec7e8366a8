package packagekit

import "fmt"

type PlatformFlavor string

const (
	Win7 PlatformFlavor = "win7"
)

// Target names the installer being produced: which product, and which
// platform it is built for.
type Target struct {
	Product  string
	Platform PlatformFlavor
}

// HoneWS is the Hone Wireshark Shim installer.
var HoneWS = Target{Product: "Hone-WS", Platform: Win7}

func (t *Target) String() string {
	return fmt.Sprintf("%s-%s", t.Product, t.Platform)
}

// InstallerName is the canonical file name of the installer for
// version, eg: Hone-WS-2.1-win7.exe
func (t *Target) InstallerName(version string) string {
	return fmt.Sprintf("%s-%s-%s.exe", t.Product, version, t.Platform)
}
