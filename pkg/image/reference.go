package image

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/distribution/reference"
	"github.com/opencontainers/go-digest"
)

// Reference is an immutable reference to a container image in a registry.
type Reference struct {
	domain string
	path   string
	tag    string
	digest digest.Digest
}

var isTag = regexp.MustCompile(`^[A-Za-z0-9_][-.A-Za-z0-9_]{0,127}$`).MatchString

// NewReference builds {registry}/{repo}:{tag}. registry may carry an
// organisation path, e.g. quay.io/osd-addons.
func NewReference(registry, repo, tag string) (Reference, error) {
	registry = strings.TrimSuffix(registry, "/")
	if registry == "" {
		return Reference{}, fmt.Errorf("empty registry for repository %q", repo)
	}
	if !isTag(tag) {
		return Reference{}, fmt.Errorf("invalid tag: %q", tag)
	}
	return ParseReference(registry + "/" + repo + ":" + tag)
}

// ParseReference parses and validates a fully qualified image reference.
func ParseReference(ref string) (Reference, error) {
	named, err := reference.ParseNormalizedNamed(ref)
	if err != nil {
		return Reference{}, fmt.Errorf("invalid image reference %q: %w", ref, err)
	}

	r := Reference{
		domain: reference.Domain(named),
		path:   reference.Path(named),
	}
	if tagged, ok := named.(reference.Tagged); ok {
		r.tag = tagged.Tag()
	}
	if digested, ok := named.(reference.Digested); ok {
		r.digest = digested.Digest()
	}
	return r, nil
}

// MustParseReference is like ParseReference but panics on invalid input.
func MustParseReference(ref string) Reference {
	r, err := ParseReference(ref)
	if err != nil {
		panic(err)
	}
	return r
}

// String provides a string corresponding to the ref.
func (r Reference) String() string {
	ref := r.Repository()
	if len(r.tag) != 0 {
		ref += ":" + r.tag
	}
	if len(r.digest) != 0 {
		ref += "@" + r.digest.String()
	}
	return ref
}

// IsZero reports whether the reference is unset.
func (r Reference) IsZero() bool {
	return r.domain == "" && r.path == ""
}

// Registry returns the registry host, e.g. quay.io or localhost:5000.
func (r Reference) Registry() string {
	return r.domain
}

// Repository returns the reference without tag and digest.
func (r Reference) Repository() string {
	if r.domain == "" {
		return r.path
	}
	return r.domain + "/" + r.path
}

// Namespace returns the repository path minus its final component.
func (r Reference) Namespace() string {
	if idx := strings.LastIndex(r.path, "/"); idx != -1 {
		return r.path[:idx]
	}
	return ""
}

// Name returns the final component of the repository path.
func (r Reference) Name() string {
	if idx := strings.LastIndex(r.path, "/"); idx != -1 {
		return r.path[idx+1:]
	}
	return r.path
}

// Tag returns the tag portion of the reference
func (r Reference) Tag() string {
	return r.tag
}

// Digest returns the digest portion of the reference
func (r Reference) Digest() digest.Digest {
	return r.digest
}

// WithTag returns a copy of the reference with the tag replaced.
func (r Reference) WithTag(tag string) (Reference, error) {
	if len(tag) > 0 && !isTag(tag) {
		return Reference{}, fmt.Errorf("invalid tag: %q", tag)
	}
	r.tag = tag
	return r, nil
}

// WithDigest returns a copy of the reference with the digest replaced.
func (r Reference) WithDigest(dgst digest.Digest) (Reference, error) {
	if len(dgst) > 0 {
		if err := dgst.Validate(); err != nil {
			return Reference{}, err
		}
	}
	r.digest = dgst
	return r, nil
}

// MarshalText encodes the reference as its string form.
func (r Reference) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText parses a reference from its string form.
func (r *Reference) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*r = Reference{}
		return nil
	}
	parsed, err := ParseReference(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
