package shell

import "strings"

// deniedFragments are matched case-insensitively anywhere in a command.
var deniedFragments = []string{
	"rm -rf /",
	"sudo rm -rf",
	"mkfs",
	"diskutil erase",
	"dd if=",
	"shutdown -h",
	"reboot",
	"launchctl unload",
	"| sh",
	"| bash",
}

// IsAllowed reports whether a remediation command may be shown or run. It is a
// substring heuristic, not a sandbox. Catalog commands are trusted and never
// pass through here.
func IsAllowed(command string) bool {
	lowered := strings.ToLower(command)
	for _, fragment := range deniedFragments {
		if strings.Contains(lowered, fragment) {
			return false
		}
	}
	return true
}

// FilterAllowed keeps the commands IsAllowed accepts, dropping blanks.
func FilterAllowed(commands []string) []string {
	allowed := make([]string, 0, len(commands))
	for _, c := range commands {
		c = strings.TrimSpace(c)
		if c == "" || !IsAllowed(c) {
			continue
		}
		allowed = append(allowed, c)
	}
	return allowed
}
