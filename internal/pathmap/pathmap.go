// Package pathmap turns artwork and media references stored by Kodi into
// paths that can be probed on the current host.
//
// Resolution is a pure function of the reference, the substitution rules and
// the host platform and never touches the filesystem.
package pathmap

import (
	"fmt"
	"os"
	"runtime"
	"strings"
)

// Platform is the host convention used when normalising paths.
type Platform string

const (
	Linux   Platform = "linux"
	Darwin  Platform = "darwin"
	Windows Platform = "windows"
	// WSL is Linux with Windows drives mounted under /mnt/<letter>.
	WSL Platform = "wsl"
)

// ParsePlatform validates a platform name.
func ParsePlatform(s string) (Platform, error) {
	switch p := Platform(strings.ToLower(s)); p {
	case Linux, Darwin, Windows, WSL:
		return p, nil
	default:
		return "", fmt.Errorf("invalid platform: %s (valid values: linux, darwin, windows, wsl)", s)
	}
}

// DetectPlatform reports the platform of the running process. kernelRelease is
// the uname release string; WSL kernels contain "microsoft".
func DetectPlatform(kernelRelease string) Platform {
	switch runtime.GOOS {
	case "windows":
		return Windows
	case "darwin":
		return Darwin
	}
	if strings.Contains(strings.ToLower(kernelRelease), "microsoft") {
		return WSL
	}
	return Linux
}

// HostPlatform detects the platform of the running process, reading the
// kernel release from procfs on Linux.
func HostPlatform() Platform {
	release, _ := os.ReadFile("/proc/sys/kernel/osrelease")
	return DetectPlatform(string(release))
}

// Separator returns the path separator for the platform.
func (p Platform) Separator() string {
	if p == Windows {
		return `\`
	}
	return "/"
}

// Substitution rewrites a literal path prefix.
type Substitution struct {
	From string `json:"from" yaml:"from"`
	To   string `json:"to" yaml:"to"`
}

// ParseSubstitution parses a FROM=TO rule. The first '=' splits the rule.
func ParseSubstitution(s string) (Substitution, error) {
	from, to, ok := strings.Cut(s, "=")
	if !ok || from == "" {
		return Substitution{}, fmt.Errorf("invalid substitution %q (expected FROM=TO)", s)
	}
	return Substitution{From: from, To: to}, nil
}

func (s Substitution) String() string {
	return s.From + "=" + s.To
}

// Reason codes for references that cannot be resolved.
const (
	ReasonRemoteScheme  = "remote-scheme"
	ReasonEmpty         = "empty-reference"
	ReasonMalformed     = "malformed-reference"
	ReasonWrapped       = "wrapped-reference"
	ReasonUnmappedShare = "unmapped-share"
)

// UnresolvableError describes why a reference has no local form.
type UnresolvableError struct {
	Reference string
	Reason    string
}

func (e *UnresolvableError) Error() string {
	return fmt.Sprintf("unresolvable reference %q: %s", e.Reference, e.Reason)
}

// Resolved is a reference mapped for the host.
//
// Store is the reference exactly as the library stores it; texture rows are
// keyed by this form. Local is the probeable path after substitution and
// normalisation.
type Resolved struct {
	Store string `json:"store"`
	Local string `json:"local"`
}

// Resolver applies a fixed rule set for one host. The zero value resolves
// with no substitutions for Linux.
type Resolver struct {
	rules    []Substitution
	platform Platform
}

// NewResolver snapshots the rules so later edits by the caller have no effect.
func NewResolver(rules []Substitution, platform Platform) *Resolver {
	if platform == "" {
		platform = Linux
	}
	return &Resolver{
		rules:    append([]Substitution(nil), rules...),
		platform: platform,
	}
}

// Platform returns the host platform the resolver maps for.
func (r *Resolver) Platform() Platform {
	if r == nil || r.platform == "" {
		return Linux
	}
	return r.platform
}

// IsRemote reports whether the reference uses an http(s) scheme.
func IsRemote(ref string) bool {
	lower := strings.ToLower(strings.TrimSpace(ref))
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// Resolve maps ref for the host. It returns *UnresolvableError for remote,
// empty, wrapped or malformed references.
func (r *Resolver) Resolve(ref string) (Resolved, error) {
	if strings.TrimSpace(ref) == "" {
		return Resolved{}, &UnresolvableError{Reference: ref, Reason: ReasonEmpty}
	}
	if IsRemote(ref) {
		return Resolved{}, &UnresolvableError{Reference: ref, Reason: ReasonRemoteScheme}
	}
	if strings.HasPrefix(strings.ToLower(ref), "image://") {
		return Resolved{}, &UnresolvableError{Reference: ref, Reason: ReasonWrapped}
	}
	if strings.ContainsRune(ref, 0) {
		return Resolved{}, &UnresolvableError{Reference: ref, Reason: ReasonMalformed}
	}

	local := r.substitute(ref)
	local, ok := normalize(local, r.Platform())
	if !ok {
		return Resolved{Store: ref}, &UnresolvableError{Reference: ref, Reason: ReasonUnmappedShare}
	}
	return Resolved{Store: ref, Local: local}, nil
}

// ResolveDir is Resolve for directory references; the result never carries a
// trailing separator unless it is a root.
func (r *Resolver) ResolveDir(ref string) (Resolved, error) {
	res, err := r.Resolve(ref)
	if err != nil {
		return res, err
	}
	res.Local = trimTrailingSep(res.Local, r.Platform())
	return res, nil
}

// Join appends a file name to a resolved directory using host separators.
func (r *Resolver) Join(dir, name string) string {
	sep := r.Platform().Separator()
	if dir == "" {
		return name
	}
	if strings.HasSuffix(dir, sep) {
		return dir + name
	}
	return dir + sep + name
}

func (r *Resolver) substitute(ref string) string {
	if r == nil {
		return ref
	}
	for _, rule := range r.rules {
		if strings.HasPrefix(ref, rule.From) {
			return rule.To + strings.TrimPrefix(ref, rule.From)
		}
	}
	return ref
}

func normalize(p string, platform Platform) (string, bool) {
	lower := strings.ToLower(p)
	isShare := strings.HasPrefix(lower, "smb://") || strings.HasPrefix(lower, "nfs://")

	switch platform {
	case Windows:
		if isShare {
			// smb://host/share/x -> \\host\share\x
			rest := p[len("smb://"):]
			return `\\` + strings.ReplaceAll(rest, "/", `\`), true
		}
		if hasDriveLetter(p) {
			return strings.ReplaceAll(p, "/", `\`), true
		}
		if strings.HasPrefix(p, "//") {
			return strings.ReplaceAll(p, "/", `\`), true
		}
		return p, true

	case WSL:
		if isShare {
			return "", false
		}
		if hasDriveLetter(p) {
			drive := strings.ToLower(p[:1])
			rest := strings.ReplaceAll(p[2:], `\`, "/")
			if !strings.HasPrefix(rest, "/") {
				rest = "/" + rest
			}
			return "/mnt/" + drive + rest, true
		}
		if strings.HasPrefix(p, `\\`) {
			return strings.ReplaceAll(p, `\`, "/"), true
		}
		return p, true

	default:
		if isShare {
			return "", false
		}
		if strings.HasPrefix(p, `\\`) {
			// UNC notation seen from a POSIX host: //host/share/x
			return strings.ReplaceAll(p, `\`, "/"), true
		}
		return p, true
	}
}

func hasDriveLetter(p string) bool {
	if len(p) < 2 || p[1] != ':' {
		return false
	}
	c := p[0] | 0x20
	return c >= 'a' && c <= 'z'
}

func trimTrailingSep(p string, platform Platform) string {
	for len(p) > 1 {
		last := p[len(p)-1]
		if last != '/' && !(platform == Windows && last == '\\') {
			break
		}
		trimmed := p[:len(p)-1]
		if platform == Windows && len(trimmed) == 2 && hasDriveLetter(trimmed) {
			break
		}
		p = trimmed
	}
	return p
}
