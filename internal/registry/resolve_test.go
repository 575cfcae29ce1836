package registry

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/google/go-github/v67/github"
)

// newTestResolver builds a resolver whose GitHub client talks to srv.
func newTestResolver(t *testing.T, srv *httptest.Server) *Resolver {
	t.Helper()

	gh := github.NewClient(nil)
	base, err := url.Parse(srv.URL + "/")
	if err != nil {
		t.Fatalf("url.Parse() error = %v", err)
	}
	gh.BaseURL = base

	return NewResolverWithClient(gh, nil)
}

func releasesJSON(releases ...string) string {
	out := "["
	for i, r := range releases {
		if i > 0 {
			out += ","
		}
		out += r
	}
	return out + "]"
}

func release(tag string, draft, prerelease bool, assets ...string) string {
	assetList := ""
	for i, name := range assets {
		if i > 0 {
			assetList += ","
		}
		assetList += fmt.Sprintf(`{"name": %q, "browser_download_url": "https://dl.example.com/%s"}`, name, name)
	}
	return fmt.Sprintf(`{
		"tag_name": %q,
		"draft": %v,
		"prerelease": %v,
		"html_url": "https://github.com/example/mods/releases/tag/%s",
		"assets": [%s]
	}`, tag, draft, prerelease, tag, assetList)
}

func TestResolveBatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/example/mods/releases" {
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
			return
		}
		fmt.Fprint(w, releasesJSON(
			release("Foo-v2.3.1", false, false, "Foo.dll"),
			release("Foo-v2.0.0", false, false, "Foo.dll"),
		))
	}))
	defer srv.Close()

	reg := Registry{Mods: []Mod{{
		ID:            "Foo",
		RepositoryURL: "https://github.com/example/mods",
		FileName:      "Foo.dll",
	}}}

	out := newTestResolver(t, srv).Resolve(context.Background(), reg)

	mod := out.FindMod("Foo")
	if mod.Version != "2.3.1" {
		t.Errorf("Version = %q, want 2.3.1 (first release wins)", mod.Version)
	}
	if mod.DownloadURL != "https://dl.example.com/Foo.dll" {
		t.Errorf("DownloadURL = %q", mod.DownloadURL)
	}
	if mod.ReleasePageURL == "" {
		t.Error("ReleasePageURL not populated")
	}

	// Input registry stays untouched: stages return new records.
	if reg.Mods[0].Version != "" {
		t.Errorf("input registry mutated: Version = %q", reg.Mods[0].Version)
	}
}

func TestResolveSkipsDraftsAndPrereleases(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, releasesJSON(
			release("Bar-v1.0.0", false, true, "Bar.dll"),
			release("Bar-v0.9.0", true, false, "Bar.dll"),
		))
	}))
	defer srv.Close()

	reg := Registry{Mods: []Mod{{
		ID:            "Bar",
		RepositoryURL: "https://github.com/example/mods",
		FileName:      "Bar.dll",
	}}}

	out := newTestResolver(t, srv).Resolve(context.Background(), reg)

	if mod := out.FindMod("Bar"); mod.Resolved() {
		t.Errorf("prerelease/draft must never resolve, got version %q", mod.Version)
	}
}

func TestResolveZipAssetFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, releasesJSON(
			release("Foo-v1.5.0", false, false, "checksums.txt", "Foo-bundle.zip"),
		))
	}))
	defer srv.Close()

	reg := Registry{Mods: []Mod{{
		ID:            "Foo",
		RepositoryURL: "https://github.com/example/mods",
		FileName:      "Foo.dll",
	}}}

	out := newTestResolver(t, srv).Resolve(context.Background(), reg)

	mod := out.FindMod("Foo")
	if mod.DownloadURL != "https://dl.example.com/Foo-bundle.zip" {
		t.Errorf("DownloadURL = %q, want the zip asset", mod.DownloadURL)
	}
}

func TestResolveFallbackPerEntry(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/repos/example/mods/releases":
			// Shared repo knows nothing about Baz.
			fmt.Fprint(w, releasesJSON(release("Foo-v1.0.0", false, false, "Foo.dll")))
		case "/repos/other/baz/releases":
			fmt.Fprint(w, releasesJSON(release("Baz-v4.2.0", false, false, "Baz.dll")))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	reg := Registry{Mods: []Mod{
		{ID: "Foo", RepositoryURL: "https://github.com/example/mods", FileName: "Foo.dll"},
		{ID: "Baz", RepositoryURL: "https://github.com/other/baz", FileName: "Baz.dll"},
	}}

	out := newTestResolver(t, srv).Resolve(context.Background(), reg)

	if mod := out.FindMod("Baz"); mod.Version != "4.2.0" {
		t.Errorf("fallback resolution failed: Version = %q, want 4.2.0", mod.Version)
	}
}

func TestResolveUnresolvableEntrySurvives(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, releasesJSON(release("Foo-v1.0.0", false, false, "Foo.dll")))
	}))
	defer srv.Close()

	reg := Registry{Mods: []Mod{
		{ID: "Foo", RepositoryURL: "https://github.com/example/mods", FileName: "Foo.dll"},
		{ID: "Ghost", RepositoryURL: "https://github.com/example/mods", FileName: "Ghost.dll"},
	}}

	out := newTestResolver(t, srv).Resolve(context.Background(), reg)

	if mod := out.FindMod("Foo"); !mod.Resolved() {
		t.Error("Foo should resolve despite Ghost being unresolvable")
	}
	if mod := out.FindMod("Ghost"); mod.Resolved() {
		t.Errorf("Ghost unexpectedly resolved to %q", mod.Version)
	}
}

func TestResolveUsesExplicitReleasesAPIURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/central/releasehub/releases" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		fmt.Fprint(w, releasesJSON(release("Foo-v3.0.0", false, false, "Foo.dll")))
	}))
	defer srv.Close()

	reg := Registry{
		ReleasesAPIURL: "https://api.github.com/repos/central/releasehub/releases",
		Mods: []Mod{{
			ID:            "Foo",
			RepositoryURL: "https://github.com/somewhere/else",
			FileName:      "Foo.dll",
		}},
	}

	out := newTestResolver(t, srv).Resolve(context.Background(), reg)

	if mod := out.FindMod("Foo"); mod.Version != "3.0.0" {
		t.Errorf("Version = %q, want 3.0.0 from explicit releases API", mod.Version)
	}
}

func TestParseReleaseTag(t *testing.T) {
	tests := []struct {
		tag    string
		wantID string
		wantV  string
		wantOK bool
	}{
		{"Foo-v2.3.1", "Foo", "2.3.1", true},
		{"my-mod-v1.0", "my-mod", "1.0", true},
		{"plain-tag", "", "", false},
		{"-v1.0", "", "", false},
		{"Foo-v", "", "", false},
		{"v1.0.0", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			id, ver, ok := parseReleaseTag(tt.tag)
			if id != tt.wantID || ver != tt.wantV || ok != tt.wantOK {
				t.Errorf("parseReleaseTag(%q) = %q, %q, %v; want %q, %q, %v",
					tt.tag, id, ver, ok, tt.wantID, tt.wantV, tt.wantOK)
			}
		})
	}
}

func TestParseRepositoryURL(t *testing.T) {
	tests := []struct {
		url       string
		wantOwner string
		wantRepo  string
		wantErr   bool
	}{
		{"https://github.com/example/mods", "example", "mods", false},
		{"https://github.com/example/mods.git", "example", "mods", false},
		{"git@github.com:example/mods.git", "example", "mods", false},
		{"https://gitlab.com/example/mods", "", "", true},
		{"https://github.com/onlyowner", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			owner, repo, err := parseRepositoryURL(tt.url)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseRepositoryURL(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
			}
			if owner != tt.wantOwner || repo != tt.wantRepo {
				t.Errorf("parseRepositoryURL(%q) = %q/%q, want %q/%q",
					tt.url, owner, repo, tt.wantOwner, tt.wantRepo)
			}
		})
	}
}
