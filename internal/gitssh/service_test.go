package gitssh

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sourceplane/devsetup/internal/shell"
	"github.com/sourceplane/devsetup/internal/shell/shelltest"
)

func newService(t *testing.T, mock *shelltest.Mock, home string) *Service {
	t.Helper()
	svc, err := New(mock, Options{
		Home:     home,
		Hostname: func() (string, error) { return "Kai's MacBook.local", nil },
		Username: func() string { return "kai" },
	})
	require.NoError(t, err)
	return svc
}

func writeKeyPair(t *testing.T, home string) {
	t.Helper()
	dir := filepath.Join(home, ".ssh")
	require.NoError(t, os.MkdirAll(dir, 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "id_ed25519"), []byte("PRIVATE"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "id_ed25519.pub"), []byte("ssh-ed25519 AAAAC3NzaC1lZDI1NTE5AAAAITest me@example.com\n"), 0o644))
}

func TestWriteIdentityEscapesArguments(t *testing.T) {
	mock := shelltest.New()
	mock.On("git config --global --get user.name", shelltest.OK("Kai O'Connor\n"))
	mock.On("git config --global --get user.email", shelltest.OK("kai.o'connor@example.com\n"))
	svc := newService(t, mock, t.TempDir())

	id := Identity{Name: "Kai O'Connor", Email: "kai.o'connor@example.com"}
	written, err := svc.WriteIdentity(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, id, written)

	cmds := mock.Commands()
	require.Len(t, cmds, 4)
	assert.Equal(t, "git config --global user.name "+shell.SingleQuoted(id.Name), cmds[0])
	assert.Equal(t, "git config --global user.email "+shell.SingleQuoted(id.Email), cmds[1])
}

func TestWriteIdentityTrimsValues(t *testing.T) {
	mock := shelltest.New()
	mock.On("git config --global --get user.name", shelltest.OK("Kai\n"))
	mock.On("git config --global --get user.email", shelltest.OK("kai@example.com\n"))
	svc := newService(t, mock, t.TempDir())

	written, err := svc.WriteIdentity(context.Background(), Identity{Name: "  Kai ", Email: "kai@example.com\t"})
	require.NoError(t, err)
	assert.Equal(t, Identity{Name: "Kai", Email: "kai@example.com"}, written)

	cmds := mock.Commands()
	require.Len(t, cmds, 4)
	assert.Equal(t, "git config --global user.name 'Kai'", cmds[0])
	assert.Equal(t, "git config --global user.email 'kai@example.com'", cmds[1])
}

func TestWriteIdentityReadBackMismatch(t *testing.T) {
	mock := shelltest.New()
	mock.On("git config --global --get user.name", shelltest.OK("Someone Else"))
	svc := newService(t, mock, t.TempDir())

	_, err := svc.WriteIdentity(context.Background(), Identity{Name: "Kai", Email: "kai@example.com"})
	assert.ErrorIs(t, err, ErrIdentityMismatch)
}

func TestReadIdentity(t *testing.T) {
	mock := shelltest.New()
	mock.On("git config --global --get user.name", shelltest.OK("Kai\n"))
	mock.On("git config --global --get user.email", shelltest.Fail(1, ""))
	svc := newService(t, mock, t.TempDir())

	id, err := svc.ReadIdentity(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Identity{Name: "Kai"}, id, "exit 1 means unset")

	mock.On("git config --global --get user.email", shelltest.Fail(128, "fatal: bad config"))
	_, err = svc.ReadIdentity(context.Background())
	var cmdErr *CommandError
	require.ErrorAs(t, err, &cmdErr)
	assert.Equal(t, "read_user_email", cmdErr.Action)
	assert.Equal(t, int32(128), cmdErr.ExitCode)
}

func TestLoadKeyMissing(t *testing.T) {
	mock := shelltest.New()
	svc := newService(t, mock, t.TempDir())

	key, err := svc.LoadKey(context.Background())
	require.NoError(t, err)
	assert.Nil(t, key)
	assert.Empty(t, mock.Calls())
}

func TestLoadKeyPartial(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(home, ".ssh"), 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(home, ".ssh", "id_ed25519"), []byte("PRIVATE"), 0o600))
	svc := newService(t, shelltest.New(), home)

	_, err := svc.LoadKey(context.Background())
	assert.ErrorIs(t, err, ErrPartialKey)
}

func TestLoadKeyReadsFingerprint(t *testing.T) {
	home := t.TempDir()
	writeKeyPair(t, home)
	mock := shelltest.New()
	mock.OnContains("ssh-keygen -lf", shelltest.OK("256 SHA256:abc me@example.com (ED25519)\n"))
	svc := newService(t, mock, home)

	key, err := svc.LoadKey(context.Background())
	require.NoError(t, err)
	require.NotNil(t, key)
	assert.Equal(t, filepath.Join(home, ".ssh", "id_ed25519"), key.PrivateKeyPath)
	assert.Contains(t, key.PublicKey, "ssh-ed25519")
	assert.Equal(t, "256 SHA256:abc me@example.com (ED25519)", key.Fingerprint)
	assert.Len(t, mock.Calls(), 1)
}

func TestGenerateKeyCommandFlags(t *testing.T) {
	home := t.TempDir()
	writeKeyPair(t, home)
	mock := shelltest.New()
	mock.OnContains("ssh-keygen -lf", shelltest.OK("256 SHA256:new me@example.com (ED25519)\n"))
	svc := newService(t, mock, home)

	key, err := svc.GenerateKey(context.Background(), "me@example.com")
	require.NoError(t, err)
	assert.Contains(t, key.Fingerprint, "SHA256:new")

	cmds := mock.Commands()
	require.Len(t, cmds, 3)
	assert.Contains(t, cmds[0], "mkdir -p")
	assert.Contains(t, cmds[0], "chmod 700")
	assert.Contains(t, cmds[1], "ssh-keygen -t ed25519")
	assert.Contains(t, cmds[1], "-N ''")
	assert.Contains(t, cmds[1], shell.SingleQuoted(svc.PrivateKeyPath()))
}

func TestGenerateKeyMissingAfterSuccess(t *testing.T) {
	svc := newService(t, shelltest.New(), t.TempDir())

	_, err := svc.GenerateKey(context.Background(), "me@example.com")
	assert.ErrorIs(t, err, ErrMissingKey)
}

func TestUploadKey(t *testing.T) {
	tests := map[string]struct {
		upload  shell.Result
		want    UploadOutcome
		wantErr bool
	}{
		"uploaded":       {upload: shelltest.OK(""), want: Uploaded},
		"already in use": {upload: shelltest.Fail(1, "key is already in use"), want: AlreadyExists},
		"other failure":  {upload: shelltest.Fail(1, "HTTP 500"), wantErr: true},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			mock := shelltest.New()
			mock.OnContains("gh ssh-key add", tt.upload)
			svc := newService(t, mock, t.TempDir())

			got, err := svc.UploadKey(context.Background(), "/tmp/home/.ssh/id_ed25519.pub", "devsetup-key")
			if tt.wantErr {
				var cmdErr *CommandError
				require.ErrorAs(t, err, &cmdErr)
				assert.Equal(t, "upload_ssh_key", cmdErr.Action)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			cmds := mock.Commands()
			require.Len(t, cmds, 2)
			assert.Equal(t, GitHubStatusCommand, cmds[0])
			assert.Equal(t, "gh ssh-key add '/tmp/home/.ssh/id_ed25519.pub' --title 'devsetup-key'", cmds[1])
		})
	}
}

func TestUploadKeyRequiresGitHubAuth(t *testing.T) {
	mock := shelltest.New()
	mock.On(GitHubStatusCommand, shelltest.Fail(1, "not logged in"))
	svc := newService(t, mock, t.TempDir())

	_, err := svc.UploadKey(context.Background(), "/tmp/key.pub", "title")
	var authErr *NotAuthenticatedError
	require.True(t, errors.As(err, &authErr))
	assert.Equal(t, "not logged in", authErr.Output)
	assert.Len(t, mock.Calls(), 1)
}

func TestDefaultKeyTitle(t *testing.T) {
	svc := newService(t, shelltest.New(), t.TempDir())
	assert.Equal(t, "devsetup-kai-Kai-s-MacBook.local-ed25519", svc.DefaultKeyTitle())

	svc.hostname = func() (string, error) { return "", errors.New("no host") }
	svc.username = func() string { return "!!" }
	assert.Equal(t, "devsetup-unknown-unknown-ed25519", svc.DefaultKeyTitle())
}
