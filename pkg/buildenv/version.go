package buildenv

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Masterminds/semver"
	"github.com/pkg/errors"
)

const (
	maxMajor = 255
	maxMinor = 255
	maxBuild = 65535
)

var versionRegex = regexp.MustCompile(`^[0-9]+\.[0-9]+(\.[0-9]+)?$`)

// Version is a validated product version, major.minor[.build].
type Version struct {
	Major    int
	Minor    int
	Build    int
	HasBuild bool

	raw string
}

// String returns the dotted form, as typed on the command line.
func (v Version) String() string {
	if v.raw != "" {
		return v.raw
	}
	if v.HasBuild {
		return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Build)
	}
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// ResourceTuple returns the comma separated form used by the Windows
// resource compiler in VERSIONINFO blocks.
func (v Version) ResourceTuple() string {
	return strings.Replace(v.String(), ".", ",", -1)
}

// ParseVersion validates raw against major.minor[.build]. Every
// violated constraint is returned, not only the first.
func ParseVersion(raw string) (Version, []error) {
	if raw == "" {
		return Version{}, []error{errors.New("Version required")}
	}

	if !versionRegex.MatchString(raw) {
		return Version{}, []error{errors.Errorf(
			`Invalid version "%s": version format must be "major.minor" or "major.minor.build", where each version element is a number`,
			raw,
		)}
	}

	if errs := boundErrors(raw); len(errs) > 0 {
		return Version{}, errs
	}

	sv, err := semver.NewVersion(raw)
	if err != nil {
		return Version{}, []error{errors.Wrapf(err, `Invalid version "%s"`, raw)}
	}

	return Version{
		Major:    int(sv.Major()),
		Minor:    int(sv.Minor()),
		Build:    int(sv.Patch()),
		HasBuild: strings.Count(raw, ".") == 2,
		raw:      raw,
	}, nil
}

var versionComponents = []struct {
	name string
	max  uint64
}{
	{name: "major", max: maxMajor},
	{name: "minor", max: maxMinor},
	{name: "build", max: maxBuild},
}

// boundErrors checks each component of a grammatical version against
// its bound. Components too large for any integer type are out of
// bounds too.
func boundErrors(raw string) []error {
	var errs []error
	for i, part := range strings.Split(raw, ".") {
		c := versionComponents[i]
		n, err := strconv.ParseUint(part, 10, 64)
		if err == nil && n <= c.max {
			continue
		}
		errs = append(errs, errors.Errorf(`Invalid version "%s": %s version number must be less than %d`, raw, c.name, c.max+1))
	}
	return errs
}
