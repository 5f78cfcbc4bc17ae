package gitssh

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/sourceplane/devsetup/internal/model"
	"github.com/sourceplane/devsetup/internal/shell"
)

const (
	gitTimeout     = 30 * time.Second
	keygenTimeout  = 90 * time.Second
	uploadTimeout  = 120 * time.Second
	privateKeyName = "id_ed25519"
)

var (
	ErrPartialKey       = errors.New("detected partial SSH key files; keep both id_ed25519 and id_ed25519.pub together")
	ErrIdentityMismatch = errors.New("git identity write verification failed; please retry")
	ErrEmptyPublicKey   = errors.New("SSH public key file is empty")
	ErrMissingKey       = errors.New("ssh-keygen reported success but key files are missing")
)

// CommandError is a setup command that exited non-zero
type CommandError struct {
	Action   string
	Command  string
	ExitCode int32
	Output   string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s failed (exit %d): %s", e.Action, e.ExitCode, e.Output)
}

// NotAuthenticatedError means the GitHub CLI has no usable login
type NotAuthenticatedError struct {
	Output string
}

func (e *NotAuthenticatedError) Error() string {
	if e.Output == "" {
		return "GitHub CLI is not authenticated; run `gh auth login` first"
	}
	return "GitHub CLI is not authenticated: " + e.Output
}

// Identity is the global git author
type Identity struct {
	Name  string
	Email string
}

// KeyMaterial describes an existing ed25519 key pair
type KeyMaterial struct {
	PrivateKeyPath string
	PublicKeyPath  string
	PublicKey      string
	Fingerprint    string
}

// UploadOutcome reports whether GitHub accepted a new key
type UploadOutcome string

const (
	Uploaded      UploadOutcome = "uploaded"
	AlreadyExists UploadOutcome = "already-exists"
)

// Service configures git identity and the GitHub SSH key through the shell
type Service struct {
	shell    shell.Executor
	home     string
	hostname func() (string, error)
	username func() string
}

// Options overrides the environment the service inspects
type Options struct {
	Home     string
	Hostname func() (string, error)
	Username func() string
}

func New(executor shell.Executor, opts Options) (*Service, error) {
	home := opts.Home
	if home == "" {
		h, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolving home directory: %w", err)
		}
		home = h
	}
	hostname := opts.Hostname
	if hostname == nil {
		hostname = os.Hostname
	}
	username := opts.Username
	if username == nil {
		username = currentUsername
	}
	return &Service{shell: executor, home: home, hostname: hostname, username: username}, nil
}

func (s *Service) sshDir() string {
	return filepath.Join(s.home, ".ssh")
}

func (s *Service) PrivateKeyPath() string {
	return filepath.Join(s.sshDir(), privateKeyName)
}

func (s *Service) PublicKeyPath() string {
	return s.PrivateKeyPath() + ".pub"
}

// ReadIdentity reads the global git user.name and user.email. Unset values are empty.
func (s *Service) ReadIdentity(ctx context.Context) (Identity, error) {
	name, err := s.readGitValue(ctx, "user.name")
	if err != nil {
		return Identity{}, err
	}
	email, err := s.readGitValue(ctx, "user.email")
	if err != nil {
		return Identity{}, err
	}
	return Identity{Name: name, Email: email}, nil
}

// WriteIdentity sets the global identity and reads it back. Values are
// trimmed since git config reads come back trimmed.
func (s *Service) WriteIdentity(ctx context.Context, id Identity) (Identity, error) {
	id = Identity{Name: strings.TrimSpace(id.Name), Email: strings.TrimSpace(id.Email)}
	setName := "git config --global user.name " + shell.SingleQuoted(id.Name)
	if err := s.mustRun(ctx, "set_git_user_name", setName, gitTimeout); err != nil {
		return Identity{}, err
	}
	setEmail := "git config --global user.email " + shell.SingleQuoted(id.Email)
	if err := s.mustRun(ctx, "set_git_user_email", setEmail, gitTimeout); err != nil {
		return Identity{}, err
	}

	readBack, err := s.ReadIdentity(ctx)
	if err != nil {
		return Identity{}, err
	}
	if readBack != id {
		return Identity{}, ErrIdentityMismatch
	}
	return readBack, nil
}

// LoadKey returns the existing key pair, or nil when neither file exists.
func (s *Service) LoadKey(ctx context.Context) (*KeyMaterial, error) {
	hasPrivate := fileExists(s.PrivateKeyPath())
	hasPublic := fileExists(s.PublicKeyPath())
	if !hasPrivate && !hasPublic {
		return nil, nil
	}
	if !hasPrivate || !hasPublic {
		return nil, ErrPartialKey
	}

	raw, err := os.ReadFile(s.PublicKeyPath())
	if err != nil {
		return nil, fmt.Errorf("unable to read SSH key files: %w", err)
	}
	publicKey := strings.TrimSpace(string(raw))
	if publicKey == "" {
		return nil, ErrEmptyPublicKey
	}

	cmd := "ssh-keygen -lf " + shell.SingleQuoted(s.PublicKeyPath())
	res := s.shell.Run(ctx, cmd, model.AuthStandard, gitTimeout)
	if !res.Succeeded() {
		return nil, commandError("read_ssh_fingerprint", cmd, res)
	}
	fingerprint, _, _ := strings.Cut(strings.TrimSpace(res.Stdout), "\n")
	fingerprint = strings.TrimSpace(fingerprint)
	if fingerprint == "" {
		return nil, errors.New("SSH fingerprint is unavailable")
	}

	return &KeyMaterial{
		PrivateKeyPath: s.PrivateKeyPath(),
		PublicKeyPath:  s.PublicKeyPath(),
		PublicKey:      publicKey,
		Fingerprint:    fingerprint,
	}, nil
}

// GenerateKey creates an unencrypted ed25519 key pair in ~/.ssh
func (s *Service) GenerateKey(ctx context.Context, comment string) (*KeyMaterial, error) {
	dir := shell.SingleQuoted(s.sshDir())
	prepare := "mkdir -p " + dir + " && chmod 700 " + dir
	if err := s.mustRun(ctx, "prepare_ssh_directory", prepare, gitTimeout); err != nil {
		return nil, err
	}

	generate := fmt.Sprintf("ssh-keygen -t ed25519 -C %s -f %s -N ''",
		shell.SingleQuoted(comment), shell.SingleQuoted(s.PrivateKeyPath()))
	if err := s.mustRun(ctx, "generate_ssh_key", generate, keygenTimeout); err != nil {
		return nil, err
	}

	key, err := s.LoadKey(ctx)
	if err != nil {
		return nil, err
	}
	if key == nil {
		return nil, ErrMissingKey
	}
	return key, nil
}

// UploadKey adds the public key to the authenticated GitHub account
func (s *Service) UploadKey(ctx context.Context, publicKeyPath, title string) (UploadOutcome, error) {
	status := s.shell.Run(ctx, GitHubStatusCommand, model.AuthStandard, gitTimeout)
	if !status.Succeeded() {
		return "", &NotAuthenticatedError{Output: strings.TrimSpace(status.Stdout + status.Stderr)}
	}

	cmd := fmt.Sprintf("gh ssh-key add %s --title %s", shell.SingleQuoted(publicKeyPath), shell.SingleQuoted(title))
	res := s.shell.Run(ctx, cmd, model.AuthStandard, uploadTimeout)
	if res.Succeeded() {
		return Uploaded, nil
	}

	output := strings.ToLower(res.Stdout + "\n" + res.Stderr)
	for _, marker := range []string{"already in use", "already exists", "key is already"} {
		if strings.Contains(output, marker) {
			return AlreadyExists, nil
		}
	}
	return "", commandError("upload_ssh_key", cmd, res)
}

var unsafeTitleChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// DefaultKeyTitle names the uploaded key after the local user and host
func (s *Service) DefaultKeyTitle() string {
	host, err := s.hostname()
	if err != nil {
		host = ""
	}
	return fmt.Sprintf("devsetup-%s-%s-ed25519", sanitizeTitle(s.username()), sanitizeTitle(host))
}

func sanitizeTitle(v string) string {
	v = strings.Trim(unsafeTitleChars.ReplaceAllString(v, "-"), "-")
	if v == "" {
		return "unknown"
	}
	return v
}

func (s *Service) readGitValue(ctx context.Context, key string) (string, error) {
	cmd := "git config --global --get " + key
	res := s.shell.Run(ctx, cmd, model.AuthStandard, gitTimeout)
	switch res.ExitCode {
	case 0:
		return strings.TrimSpace(res.Stdout), nil
	case 1:
		// git exits 1 when the key is unset
		return "", nil
	default:
		return "", commandError("read_"+strings.ReplaceAll(key, ".", "_"), cmd, res)
	}
}

func (s *Service) mustRun(ctx context.Context, action, cmd string, timeout time.Duration) error {
	res := s.shell.Run(ctx, cmd, model.AuthStandard, timeout)
	if !res.Succeeded() {
		return commandError(action, cmd, res)
	}
	return nil
}

func commandError(action, cmd string, res shell.Result) *CommandError {
	return &CommandError{
		Action:   action,
		Command:  cmd,
		ExitCode: res.ExitCode,
		Output:   strings.TrimSpace(res.CombinedOutput()),
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func currentUsername() string {
	if u, err := user.Current(); err == nil {
		return u.Username
	}
	return os.Getenv("USER")
}
