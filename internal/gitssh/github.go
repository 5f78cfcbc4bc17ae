package gitssh

// GitHub authentication commands shared by the catalog's gh-auth step and
// remediation advice.
const (
	GitHubHostname      = "github.com"
	GitHubGitProtocol   = "ssh"
	GitHubStatusCommand = "gh auth status >/dev/null 2>&1"
	GitHubLoginCommand  = "gh auth login --hostname " + GitHubHostname + " --web --git-protocol " + GitHubGitProtocol
)
