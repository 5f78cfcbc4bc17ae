package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/sourceplane/devsetup/internal/gitssh"
)

var (
	gitName   string
	gitEmail  string
	keyTitle  string
	uploadKey bool
)

var gitSSHCmd = &cobra.Command{
	Use:   "git-ssh",
	Short: "Configure git identity and an SSH key for GitHub",
	Long:  "Set the global git user.name and user.email, reuse or generate ~/.ssh/id_ed25519, and optionally add the public key to GitHub with the gh CLI.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return setupGitSSH(cmd.Context(), cmd.OutOrStdout())
	},
}

func registerGitSSHCommand(root *cobra.Command) {
	root.AddCommand(gitSSHCmd)

	gitSSHCmd.Flags().StringVar(&gitName, "name", "", "Git user.name (default: keep current)")
	gitSSHCmd.Flags().StringVar(&gitEmail, "email", "", "Git user.email (default: keep current)")
	gitSSHCmd.Flags().StringVar(&keyTitle, "title", "", "Title for the key on GitHub (default: devsetup-<user>-<host>-ed25519)")
	gitSSHCmd.Flags().BoolVar(&uploadKey, "upload", false, "Add the public key to GitHub")
}

func setupGitSSH(ctx context.Context, out io.Writer) error {
	executor, err := newExecutor()
	if err != nil {
		return err
	}
	svc, err := gitssh.New(executor, gitssh.Options{})
	if err != nil {
		return err
	}

	current, err := svc.ReadIdentity(ctx)
	if err != nil {
		return err
	}
	want := current
	if gitName != "" {
		want.Name = gitName
	}
	if gitEmail != "" {
		want.Email = gitEmail
	}
	if want.Name == "" || want.Email == "" {
		return errors.New("git identity is incomplete; pass --name and --email")
	}
	if want != current {
		fmt.Fprintln(out, "□ Writing git identity...")
		if _, err := svc.WriteIdentity(ctx, want); err != nil {
			return err
		}
	}
	fmt.Fprintf(out, "✓ Git identity: %s <%s>\n", want.Name, want.Email)

	key, err := svc.LoadKey(ctx)
	if err != nil {
		return err
	}
	if key == nil {
		fmt.Fprintln(out, "□ Generating ed25519 key...")
		key, err = svc.GenerateKey(ctx, want.Email)
		if err != nil {
			return err
		}
	}
	fmt.Fprintf(out, "✓ SSH key: %s\n  %s\n", key.PublicKeyPath, key.Fingerprint)

	if !uploadKey {
		return nil
	}
	title := keyTitle
	if title == "" {
		title = svc.DefaultKeyTitle()
	}
	outcome, err := svc.UploadKey(ctx, key.PublicKeyPath, title)
	if err != nil {
		return err
	}
	switch outcome {
	case gitssh.AlreadyExists:
		fmt.Fprintln(out, "✓ Key already registered on GitHub")
	default:
		fmt.Fprintf(out, "✓ Key uploaded to GitHub as %q\n", title)
	}
	return nil
}
