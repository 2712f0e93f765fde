// Package buildid derives the short hash that makes image tags unique per build.
package buildid

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/go-git/go-git/v5"
	"golang.org/x/mod/sumdb/dirhash"
)

// Length is the number of hex characters of a build id.
const Length = 7

// FromGit returns the abbreviated hash of the HEAD commit of the repository
// containing dir.
func FromGit(dir string) (string, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return "", fmt.Errorf("unable to open git repository at %s: %w", dir, err)
	}
	head, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("unable to resolve HEAD: %w", err)
	}
	return head.Hash().String()[:Length], nil
}

// FromContent hashes every file below dir, so identical content yields the
// same id regardless of git history.
func FromContent(dir string) (string, error) {
	h1, err := dirhash.HashDir(dir, "", dirhash.Hash1)
	if err != nil {
		return "", fmt.Errorf("unable to hash %s: %w", dir, err)
	}
	sum, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(h1, "h1:"))
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(sum)[:Length], nil
}
