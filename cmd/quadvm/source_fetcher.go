package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/fedehuguet/compiler/pkg/driver"
)

// sourceFetcher checks out git repositories holding compiled images into a
// local cache, one directory per pinned revision.
type sourceFetcher struct {
	cacheDir string
}

func newSourceFetcher(cacheDir string) *sourceFetcher {
	if cacheDir == "" {
		return nil
	}
	return &sourceFetcher{cacheDir: cacheDir}
}

// Fetch returns the path of the image named by src and the commit it came from.
func (f *sourceFetcher) Fetch(name string, src *driver.SourceSpec) (string, string, error) {
	if f == nil {
		return "", "", errors.New("source fetcher unavailable")
	}
	if src == nil {
		return "", "", errors.New("no source configured")
	}
	url := strings.TrimSpace(src.Git)
	if url == "" {
		return "", "", fmt.Errorf("source %q: git URL required", name)
	}
	if name == "" {
		name = filepath.Base(strings.TrimSuffix(url, ".git"))
	}

	baseDir := filepath.Join(f.cacheDir, "src", sanitizePathSegment(name))
	version, commit, err := ensureGitCheckout(baseDir, url, src)
	if err != nil {
		return "", "", err
	}

	imagePath := filepath.Join(baseDir, sanitizePathSegment(version), filepath.FromSlash(src.Path))
	info, err := os.Stat(imagePath)
	if err != nil {
		return "", "", fmt.Errorf("source %q: image %s: %w", name, src.Path, err)
	}
	if info.IsDir() {
		return "", "", fmt.Errorf("source %q: image %s is a directory", name, src.Path)
	}
	return imagePath, commit, nil
}

func ensureGitCheckout(baseDir, url string, src *driver.SourceSpec) (string, string, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return "", "", err
	}

	revision, descriptor := gitRevisionFromSource(src)

	if explicitRev := strings.TrimSpace(src.Rev); explicitRev != "" {
		existing := filepath.Join(baseDir, sanitizePathSegment(explicitRev))
		if _, err := os.Stat(existing); err == nil {
			return explicitRev, explicitRev, nil
		}
	}

	tmpDir, err := os.MkdirTemp(baseDir, "git-fetch-*")
	if err != nil {
		return "", "", err
	}
	if err := os.RemoveAll(tmpDir); err != nil {
		return "", "", err
	}

	repo, err := git.PlainClone(tmpDir, false, &git.CloneOptions{URL: url})
	if err != nil {
		_ = os.RemoveAll(tmpDir)
		return "", "", fmt.Errorf("git clone %s: %w", url, err)
	}

	hash, err := repo.ResolveRevision(revision)
	if err != nil {
		_ = os.RemoveAll(tmpDir)
		return "", "", fmt.Errorf("resolve revision %s: %w", revision, err)
	}

	version := gitPinnedVersion(descriptor, hash.String())
	targetDir := filepath.Join(baseDir, sanitizePathSegment(version))
	if _, err := os.Stat(targetDir); err == nil {
		_ = os.RemoveAll(tmpDir)
		return version, hash.String(), nil
	}

	worktree, err := repo.Worktree()
	if err != nil {
		_ = os.RemoveAll(tmpDir)
		return "", "", err
	}
	if err := worktree.Checkout(&git.CheckoutOptions{Hash: *hash, Force: true}); err != nil {
		_ = os.RemoveAll(tmpDir)
		return "", "", fmt.Errorf("git checkout %s: %w", revision, err)
	}

	if err := os.Rename(tmpDir, targetDir); err != nil {
		_ = os.RemoveAll(tmpDir)
		return "", "", err
	}
	return version, hash.String(), nil
}

func gitPinnedVersion(descriptor, commit string) string {
	commit = strings.TrimSpace(commit)
	descriptor = strings.TrimSpace(descriptor)
	if commit == "" {
		return descriptor
	}
	if descriptor == "" || descriptor == commit {
		return commit
	}
	return fmt.Sprintf("%s@%s", descriptor, commit)
}

// gitRevisionFromSource prefers rev, then tag, then branch; an unpinned
// source follows the remote HEAD.
func gitRevisionFromSource(src *driver.SourceSpec) (plumbing.Revision, string) {
	if rev := strings.TrimSpace(src.Rev); rev != "" {
		return plumbing.Revision(rev), rev
	}
	if tag := strings.TrimSpace(src.Tag); tag != "" {
		return plumbing.Revision("refs/tags/" + tag), tag
	}
	if branch := strings.TrimSpace(src.Branch); branch != "" {
		return plumbing.Revision("refs/remotes/origin/" + branch), branch
	}
	return plumbing.Revision(plumbing.HEAD), string(plumbing.HEAD)
}

func sanitizePathSegment(segment string) string {
	segment = strings.TrimSpace(segment)
	if segment == "" {
		return "head"
	}
	var b strings.Builder
	for _, r := range segment {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '.' || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}

func resolveQuadvmHome() (string, error) {
	if home := strings.TrimSpace(os.Getenv("QUADVM_HOME")); home != "" {
		abs, err := filepath.Abs(home)
		if err != nil {
			return "", fmt.Errorf("resolve QUADVM_HOME %q: %w", home, err)
		}
		return abs, nil
	}
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("resolve user cache dir: %w", err)
	}
	return filepath.Join(cacheDir, "quadvm"), nil
}
