// Package history versions a ledger directory with git, one commit per
// ledger write.
package history

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// ErrNoChanges is returned by Commit when the working tree is clean.
var ErrNoChanges = errors.New("nothing to commit")

// Author identifies who history commits are attributed to.
type Author struct {
	Name  string `yaml:"author_name"`
	Email string `yaml:"author_email"`
}

func (a Author) String() string {
	return fmt.Sprintf("%s <%s>", a.Name, a.Email)
}

// Repo is a git repository holding a ledger directory.
type Repo struct {
	dir    string
	author Author
}

// Open returns the repository at dir, initializing it when dir is not one
// yet.
func Open(dir string, author Author) (*Repo, error) {
	r := &Repo{dir: dir, author: author}
	if IsRepo(dir) {
		return r, nil
	}
	if _, err := r.git("init", "--quiet"); err != nil {
		return nil, err
	}
	return r, nil
}

// IsRepo reports whether dir is the root of a git repository.
func IsRepo(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ".git"))
	return err == nil
}

// Commit stages every change and commits it. Returns the short commit hash,
// or ErrNoChanges when there is nothing to record.
func (r *Repo) Commit(message string) (string, error) {
	if _, err := r.git("add", "-A"); err != nil {
		return "", err
	}
	status, err := r.git("status", "--porcelain")
	if err != nil {
		return "", err
	}
	if status == "" {
		return "", ErrNoChanges
	}
	if _, err := r.git(
		"-c", "user.name="+r.author.Name,
		"-c", "user.email="+r.author.Email,
		"commit", "--quiet", "-m", message, "--author", r.author.String(),
	); err != nil {
		return "", err
	}
	return r.git("rev-parse", "--short", "HEAD")
}

// Log returns the subjects of the last n commits, newest first.
func (r *Repo) Log(n int) ([]string, error) {
	out, err := r.git("log", fmt.Sprintf("-%d", n), "--format=%s")
	if err != nil {
		return nil, err
	}
	if out == "" {
		return nil, nil
	}
	return strings.Split(out, "\n"), nil
}

func (r *Repo) git(args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = r.dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("git %s: %s: %w", args[0], strings.TrimSpace(string(out)), err)
	}
	return strings.TrimSpace(string(out)), nil
}
