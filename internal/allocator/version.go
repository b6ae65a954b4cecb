package allocator

import (
	"github.com/Masterminds/semver/v3"
)

// versionString is the module's release version. It is parsed once at
// init time so a malformed literal fails the build's first test run rather
// than surfacing as a confusing runtime error deep in some integrator's
// capability check.
const versionString = "1.0.0"

var parsedVersion = semver.MustParse(versionString)

// Version returns the module's semantic version string.
func Version() string {
	return parsedVersion.String()
}

// AtLeast reports whether the module's version satisfies the given semver
// constraint (e.g. ">= 1.0.0, < 2.0.0"), letting integrators gate on
// capabilities without hardcoding a version comparison.
func AtLeast(constraint string) (bool, error) {
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return false, err
	}

	return c.Check(parsedVersion), nil
}
