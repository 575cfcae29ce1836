package registry

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/google/go-github/v67/github"
	"golang.org/x/oauth2"
)

const (
	batchPageSize  = 100
	batchMaxPages  = 3
	fallbackLimit  = 50
	releasesSuffix = "/releases"
)

// Resolver fills in each mod's version and download URL by querying the
// hosting platform's release API. Release tags follow the
// <modId>-v<version> convention, and drafts and prereleases never resolve
// anything.
type Resolver struct {
	gh     *github.Client
	logger *log.Logger
}

// NewResolver creates a resolver. A non-empty token authenticates release
// API requests, which raises the rate limit; anonymous access works too.
func NewResolver(token string, logger *log.Logger) *Resolver {
	var gh *github.Client
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		gh = github.NewClient(oauth2.NewClient(context.Background(), ts))
	} else {
		gh = github.NewClient(nil)
	}

	return NewResolverWithClient(gh, logger)
}

// NewResolverWithClient creates a resolver around an existing GitHub client.
func NewResolverWithClient(gh *github.Client, logger *log.Logger) *Resolver {
	if logger == nil {
		logger = log.Default()
	}
	return &Resolver{gh: gh, logger: logger}
}

// Resolve returns a copy of reg with version, download URL and release page
// populated for every mod it can resolve. Mods that resolve nowhere keep
// empty fields; that is logged, never fatal, so one broken repository cannot
// take the rest of the catalog down with it.
func (r *Resolver) Resolve(ctx context.Context, reg Registry) Registry {
	out := reg
	out.Mods = make([]Mod, len(reg.Mods))
	copy(out.Mods, reg.Mods)

	if len(out.Mods) == 0 {
		return out
	}

	unresolved := r.resolveBatch(ctx, &out)
	if unresolved > 0 {
		unresolved = r.resolveIndividually(ctx, &out)
	}

	if unresolved > 0 {
		for i := range out.Mods {
			if !out.Mods[i].Resolved() {
				r.logger.Warn("mod has no resolvable release", "mod", out.Mods[i].ID)
			}
		}
	}

	return out
}

// resolveBatch pages through the shared release list once and matches tags
// against every still-unresolved mod. Releases arrive newest first, so the
// first matching release per mod is its latest; later matches are ignored.
// Returns the number of mods left unresolved.
func (r *Resolver) resolveBatch(ctx context.Context, reg *Registry) int {
	owner, repo, err := r.batchRepository(reg)
	if err != nil {
		r.logger.Warn("no batch release source", "err", err)
		return countUnresolved(reg)
	}

	remaining := countUnresolved(reg)

	for page := 1; page <= batchMaxPages && remaining > 0; page++ {
		releases, resp, err := r.gh.Repositories.ListReleases(ctx, owner, repo, &github.ListOptions{
			PerPage: batchPageSize,
			Page:    page,
		})
		if err != nil {
			r.logger.Warn("release list query failed", "repo", owner+"/"+repo, "page", page, "err", err)
			break
		}

		remaining -= r.applyReleases(reg, releases)

		if resp.NextPage == 0 {
			break
		}
	}

	return countUnresolved(reg)
}

// resolveIndividually queries each unresolved mod's own repository.
func (r *Resolver) resolveIndividually(ctx context.Context, reg *Registry) int {
	for i := range reg.Mods {
		mod := &reg.Mods[i]
		if mod.Resolved() || mod.RepositoryURL == "" {
			continue
		}

		owner, repo, err := parseRepositoryURL(mod.RepositoryURL)
		if err != nil {
			r.logger.Warn("unparseable repository url", "mod", mod.ID, "url", mod.RepositoryURL)
			continue
		}

		releases, _, err := r.gh.Repositories.ListReleases(ctx, owner, repo, &github.ListOptions{
			PerPage: fallbackLimit,
		})
		if err != nil {
			r.logger.Warn("fallback release query failed", "mod", mod.ID, "repo", owner+"/"+repo, "err", err)
			continue
		}

		for _, release := range releases {
			if applyRelease(mod, release) {
				break
			}
		}
	}

	return countUnresolved(reg)
}

// applyReleases matches a page of releases against unresolved mods and
// returns how many it resolved.
func (r *Resolver) applyReleases(reg *Registry, releases []*github.RepositoryRelease) int {
	resolved := 0
	for _, release := range releases {
		id, _, ok := parseReleaseTag(release.GetTagName())
		if !ok {
			continue
		}

		mod := reg.FindMod(id)
		if mod == nil || mod.Resolved() {
			continue
		}

		if applyRelease(mod, release) {
			resolved++
		}
	}
	return resolved
}

// applyRelease resolves mod from release if the release is eligible and
// carries a usable asset.
func applyRelease(mod *Mod, release *github.RepositoryRelease) bool {
	if release.GetDraft() || release.GetPrerelease() {
		return false
	}

	id, ver, ok := parseReleaseTag(release.GetTagName())
	if !ok || id != mod.ID {
		return false
	}

	asset := matchAsset(release.Assets, mod.FileName)
	if asset == nil {
		return false
	}

	mod.Version = ver
	mod.DownloadURL = asset.GetBrowserDownloadURL()
	mod.ReleasePageURL = release.GetHTMLURL()
	return true
}

// matchAsset picks the first asset either named exactly after the payload
// file or carrying a .zip extension.
func matchAsset(assets []*github.ReleaseAsset, fileName string) *github.ReleaseAsset {
	for _, asset := range assets {
		name := asset.GetName()
		if name == fileName || strings.HasSuffix(strings.ToLower(name), ".zip") {
			return asset
		}
	}
	return nil
}

// parseReleaseTag splits a <modId>-v<version> tag at its last "-v".
func parseReleaseTag(tag string) (id, ver string, ok bool) {
	idx := strings.LastIndex(tag, "-v")
	if idx <= 0 || idx+2 >= len(tag) {
		return "", "", false
	}
	return tag[:idx], tag[idx+2:], true
}

// batchRepository determines where the shared release list lives: the
// registry's explicit releases API URL when present, otherwise the first
// mod's repository.
func (r *Resolver) batchRepository(reg *Registry) (owner, repo string, err error) {
	if reg.ReleasesAPIURL != "" {
		return parseReleasesAPIURL(reg.ReleasesAPIURL)
	}

	for i := range reg.Mods {
		if reg.Mods[i].RepositoryURL != "" {
			return parseRepositoryURL(reg.Mods[i].RepositoryURL)
		}
	}

	return "", "", fmt.Errorf("registry lists no repository urls")
}

// parseRepositoryURL extracts owner and repo from a GitHub repository URL,
// accepting both https and ssh forms.
func parseRepositoryURL(repoURL string) (owner, repo string, err error) {
	if !strings.Contains(repoURL, "github.com") {
		return "", "", fmt.Errorf("not a GitHub URL: %s", repoURL)
	}

	repoURL = strings.TrimSuffix(repoURL, ".git")
	repoURL = strings.Replace(repoURL, "github.com:", "github.com/", 1)

	parts := strings.Split(repoURL, "/")
	for i, part := range parts {
		if strings.HasSuffix(part, "github.com") && i+2 < len(parts) {
			owner = parts[i+1]
			repo = parts[i+2]
			break
		}
	}

	if owner == "" || repo == "" {
		return "", "", fmt.Errorf("could not parse owner/repo from %s", repoURL)
	}

	return owner, repo, nil
}

// parseReleasesAPIURL extracts owner and repo from an API URL of the form
// .../repos/{owner}/{repo}/releases.
func parseReleasesAPIURL(apiURL string) (owner, repo string, err error) {
	trimmed := strings.TrimSuffix(strings.TrimRight(apiURL, "/"), releasesSuffix)

	parts := strings.Split(trimmed, "/")
	for i, part := range parts {
		if part == "repos" && i+2 < len(parts) {
			return parts[i+1], parts[i+2], nil
		}
	}

	return "", "", fmt.Errorf("could not parse releases API URL %s", apiURL)
}

// countUnresolved reports how many mods still lack a version or download URL.
func countUnresolved(reg *Registry) int {
	n := 0
	for i := range reg.Mods {
		if !reg.Mods[i].Resolved() {
			n++
		}
	}
	return n
}
