package manifest

import (
	"github.com/glorpus-work/wabbaget/pkg/errors"
	"github.com/hashicorp/go-version"
)

// GetWabbajackVersion returns the parsed version of the Wabbajack release that
// compiled the modlist, or nil when it is absent or unparsable.
func (i Info) GetWabbajackVersion() *version.Version {
	v, err := version.NewVersion(i.WabbajackVersion)
	if err != nil {
		return nil
	}
	return v
}

// CheckWabbajackVersion verifies the compiling Wabbajack release satisfies constraint.
// An empty constraint accepts every manifest.
func (i Info) CheckWabbajackVersion(constraint string) error {
	if constraint == "" {
		return nil
	}
	c, err := version.NewConstraint(constraint)
	if err != nil {
		return errors.Wrapf(errors.ErrConfigValidation, "min_wabbajack_version %q: %v", constraint, err)
	}
	v := i.GetWabbajackVersion()
	if v == nil {
		return errors.NewManifestFormatError(i.Name, "unparsable WabbajackVersion "+i.WabbajackVersion, nil)
	}
	if !c.Check(v) {
		return errors.Wrapf(errors.ErrIncompatible, "wabbajack %s does not satisfy %s", v, constraint)
	}
	return nil
}
