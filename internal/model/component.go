package model

import (
	goruntime "runtime"
	"time"
)

// Default timeouts applied when a catalog entry leaves them unset.
const (
	DefaultCommandTimeout = 900 * time.Second
	DefaultCheckTimeout   = 120 * time.Second
)

// Category groups catalog components for display
type Category string

const (
	CategorySystem   Category = "system"
	CategoryRuntimes Category = "runtimes"
	CategoryCLI      Category = "cli"
	CategoryApps     Category = "apps"
	CategoryAuth     Category = "auth"
)

// Title returns the human-readable category heading.
func (c Category) Title() string {
	switch c {
	case CategorySystem:
		return "System"
	case CategoryRuntimes:
		return "Runtimes"
	case CategoryCLI:
		return "CLI Tools"
	case CategoryApps:
		return "Desktop Apps"
	case CategoryAuth:
		return "Authentication"
	default:
		return string(c)
	}
}

// Architecture is a CPU architecture a component can be installed on
type Architecture string

const (
	ArchARM64 Architecture = "arm64"
	ArchX8664 Architecture = "x86_64"
)

// AllArchitectures lists every architecture the catalog knows about.
var AllArchitectures = []Architecture{ArchARM64, ArchX8664}

// CurrentArchitecture maps the running binary's GOARCH onto a catalog architecture.
func CurrentArchitecture() Architecture {
	if goruntime.GOARCH == "arm64" {
		return ArchARM64
	}
	return ArchX8664
}

// ParseArchitecture accepts catalog names as well as Go's GOARCH spelling.
func ParseArchitecture(v string) (Architecture, bool) {
	switch v {
	case "arm64", "aarch64":
		return ArchARM64, true
	case "x86_64", "amd64":
		return ArchX8664, true
	default:
		return "", false
	}
}

// AuthMode selects how a command is elevated
type AuthMode string

const (
	// AuthStandard runs as the current user.
	AuthStandard AuthMode = "standard"
	// AuthAdminPrompt runs through the platform's interactive elevation dialog.
	AuthAdminPrompt AuthMode = "adminPrompt"
	// AuthSudoAskpass primes sudo through a SUDO_ASKPASS helper so a long
	// non-interactive chain can elevate without a modal dialog.
	AuthSudoAskpass AuthMode = "sudoAskpass"
)

// PackageKind distinguishes Homebrew formulae from casks
type PackageKind string

const (
	PackageFormula PackageKind = "formula"
	PackageCask    PackageKind = "cask"
)

// PackageRef names a package-manager package backing a verification check
type PackageRef struct {
	Name string      `yaml:"name" json:"name"`
	Kind PackageKind `yaml:"kind,omitempty" json:"kind,omitempty"`
}

// EffectiveKind defaults an unset kind to formula.
func (p PackageRef) EffectiveKind() PackageKind {
	if p.Kind == "" {
		return PackageFormula
	}
	return p.Kind
}

// InstallCommand is a single install step of a component
type InstallCommand struct {
	Shell    string        `yaml:"shell" json:"shell"`
	AuthMode AuthMode      `yaml:"authMode,omitempty" json:"authMode,omitempty"`
	Timeout  time.Duration `yaml:"timeout,omitempty" json:"timeout,omitempty"`
}

func (c InstallCommand) EffectiveAuthMode() AuthMode {
	if c.AuthMode == "" {
		return AuthStandard
	}
	return c.AuthMode
}

func (c InstallCommand) EffectiveTimeout() time.Duration {
	if c.Timeout <= 0 {
		return DefaultCommandTimeout
	}
	return c.Timeout
}

// VerificationCheck is a named probe confirming a component is usable
type VerificationCheck struct {
	Name    string        `yaml:"name" json:"name"`
	Command string        `yaml:"command" json:"command"`
	Timeout time.Duration `yaml:"timeout,omitempty" json:"timeout,omitempty"`
	Package *PackageRef   `yaml:"package,omitempty" json:"package,omitempty"`
}

func (c VerificationCheck) EffectiveTimeout() time.Duration {
	if c.Timeout <= 0 {
		return DefaultCheckTimeout
	}
	return c.Timeout
}

// Component is an immutable catalog entry: one independently verifiable unit of setup
type Component struct {
	ID                     string              `yaml:"id" json:"id"`
	Name                   string              `yaml:"name" json:"name"`
	Summary                string              `yaml:"summary" json:"summary"`
	Category               Category            `yaml:"category" json:"category"`
	Required               bool                `yaml:"required,omitempty" json:"required,omitempty"`
	DefaultSelected        bool                `yaml:"defaultSelected,omitempty" json:"defaultSelected,omitempty"`
	Dependencies           []string            `yaml:"dependencies,omitempty" json:"dependencies,omitempty"`
	Commands               []InstallCommand    `yaml:"commands" json:"commands"`
	VerificationChecks     []VerificationCheck `yaml:"verificationChecks" json:"verificationChecks"`
	RemediationHints       []string            `yaml:"remediationHints,omitempty" json:"remediationHints,omitempty"`
	SupportedArchitectures []Architecture      `yaml:"architectures,omitempty" json:"architectures,omitempty"`
}

// Supports reports whether the component can be installed on arch. An empty
// architecture list means every architecture.
func (c Component) Supports(arch Architecture) bool {
	if len(c.SupportedArchitectures) == 0 {
		return true
	}
	for _, a := range c.SupportedArchitectures {
		if a == arch {
			return true
		}
	}
	return false
}

// Catalog is the top-level document describing installable components
type Catalog struct {
	APIVersion string      `yaml:"apiVersion" json:"apiVersion"`
	Kind       string      `yaml:"kind" json:"kind"`
	Metadata   Metadata    `yaml:"metadata" json:"metadata"`
	Components []Component `yaml:"components" json:"components"`
}

// Metadata holds standard object metadata
type Metadata struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description"`
}
