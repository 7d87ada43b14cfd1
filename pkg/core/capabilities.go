package core

import "strconv"

// Minimum engine levels for the generated query: LAG and THROW need 11,
// FOR SYSTEM_TIME needs 13 and OPENJSON needs compatibility level 130.
const (
	MinMajorVersion       = 13
	MinCompatibilityLevel = 130
)

// Capabilities describe the host engine.
type Capabilities struct {
	ProductVersion     string
	MajorVersion       int
	CompatibilityLevel int
}

// Check returns a *CapabilityError listing every missing feature, or nil.
func (c Capabilities) Check() error {
	var missing []string
	if c.MajorVersion < 11 {
		missing = append(missing, "LAG window function", "THROW")
	}
	if c.MajorVersion < MinMajorVersion {
		missing = append(missing, "FOR SYSTEM_TIME")
	}
	if c.MajorVersion < MinMajorVersion || c.CompatibilityLevel < MinCompatibilityLevel {
		missing = append(missing, "OPENJSON")
	}
	if len(missing) == 0 {
		return nil
	}
	return &CapabilityError{Have: c, Missing: missing}
}

func (c Capabilities) versionString() string {
	if c.ProductVersion != "" {
		return c.ProductVersion
	}
	return strconv.Itoa(c.MajorVersion)
}
