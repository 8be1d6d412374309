package assets_test

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/albapepper/sportsmeta/internal/assets"
	"github.com/albapepper/sportsmeta/internal/provider/sportsdb"
	"github.com/albapepper/sportsmeta/internal/testsupport"
)

const base = "https://raw.example.test/repo/main"

func newResolver(t *testing.T, skip bool) (*assets.Resolver, *testsupport.FakeSportsDB, string) {
	t.Helper()
	fake := testsupport.NewFakeSportsDB(t)
	root := t.TempDir()
	client := sportsdb.NewClient(sportsdb.Options{}, nil)
	r := assets.NewResolver(client, assets.Options{Root: root, PublicBase: base + "/", SkipDownload: skip}, nil)
	return r, fake, root
}

func TestResolveDownloadsAndOverwrites(t *testing.T) {
	r, fake, root := newResolver(t, false)
	rel := assets.Expand(assets.DefaultSeasonPosterTemplate, assets.Tokens{Sport: "Formula1", Season: "2025", Round: 3})
	if rel != "posters/formula1/2025/s3/poster.jpg" {
		t.Fatalf("expanded path = %q", rel)
	}

	local := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(local), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(local, []byte("stale"), 0o644); err != nil {
		t.Fatal(err)
	}

	ref := r.Resolve(context.Background(), fake.MediaURL("poster.png"), rel)
	if ref.Status != assets.StatusDownloaded || ref.Err != nil {
		t.Fatalf("unexpected ref: %+v", ref)
	}
	if ref.PublicURL != base+"/"+rel {
		t.Fatalf("public URL = %q", ref.PublicURL)
	}
	got, err := os.ReadFile(local)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, testsupport.PNG) {
		t.Fatalf("file not overwritten in place: %q", got)
	}
	entries, _ := os.ReadDir(filepath.Dir(local))
	if len(entries) != 1 {
		t.Fatalf("temp files left behind: %v", entries)
	}
}

func TestResolveFallsBackOn404(t *testing.T) {
	r, fake, root := newResolver(t, false)
	fake.SetMediaStatus("missing.png", http.StatusNotFound)
	rel := "posters/moto3/2025/s1/e2.jpg"

	ref := r.Resolve(context.Background(), fake.MediaURL("missing.png"), rel)
	if ref.PublicURL != base+"/"+rel {
		t.Fatalf("public URL = %q, want %q", ref.PublicURL, base+"/"+rel)
	}
	if ref.Status != assets.StatusURLOnly {
		t.Fatalf("status = %s", ref.Status)
	}
	var dlErr *assets.AssetDownloadError
	if !errors.As(ref.Err, &dlErr) {
		t.Fatalf("expected AssetDownloadError, got %v", ref.Err)
	}
	if _, err := os.Stat(filepath.Join(root, rel)); !os.IsNotExist(err) {
		t.Fatalf("no file should be written, stat err = %v", err)
	}
}

func TestResolveRejectsNonImage(t *testing.T) {
	r, fake, _ := newResolver(t, false)
	fake.SetMediaStatus("page.png", http.StatusOK)
	ref := r.Resolve(context.Background(), fake.MediaURL("page.png"), "posters/x/poster.jpg")
	if ref.Status != assets.StatusURLOnly || !errors.Is(ref.Err, assets.ErrNotImage) {
		t.Fatalf("unexpected ref: %+v", ref)
	}
}

func TestResolveSkipDownload(t *testing.T) {
	r, fake, root := newResolver(t, true)
	ref := r.Resolve(context.Background(), fake.MediaURL("poster.png"), "posters/a/poster.jpg")
	if ref.Status != assets.StatusSkipped || ref.PublicURL != base+"/posters/a/poster.jpg" {
		t.Fatalf("unexpected ref: %+v", ref)
	}
	if fake.Hits("media:poster.png") != 0 {
		t.Fatal("skip mode must not touch the network")
	}
	if entries, _ := os.ReadDir(root); len(entries) != 0 {
		t.Fatal("skip mode must not touch the filesystem")
	}
}

func TestResolveAbsoluteTemplatePassesThrough(t *testing.T) {
	r, fake, _ := newResolver(t, false)
	ref := r.Resolve(context.Background(), fake.MediaURL("poster.png"), "https://cdn.test/custom.jpg")
	if ref.PublicURL != "https://cdn.test/custom.jpg" || ref.Status != assets.StatusURLOnly {
		t.Fatalf("unexpected ref: %+v", ref)
	}
	if fake.Hits("media:poster.png") != 0 {
		t.Fatal("absolute templates must not download")
	}
}

func TestResolveWithoutSource(t *testing.T) {
	r, _, _ := newResolver(t, false)
	ref := r.Resolve(context.Background(), "", "posters/a/s1/e1.jpg")
	if ref.Status != assets.StatusURLOnly || ref.PublicURL != base+"/posters/a/s1/e1.jpg" || ref.Err != nil {
		t.Fatalf("unexpected ref: %+v", ref)
	}
}

func TestResolveAllKeepsRequestOrder(t *testing.T) {
	r, fake, _ := newResolver(t, false)
	fake.SetMediaStatus("bad.png", http.StatusInternalServerError)
	reqs := []assets.Request{
		{SourceURL: fake.MediaURL("a.png"), RelPath: "p/s1/e1.jpg"},
		{SourceURL: fake.MediaURL("bad.png"), RelPath: "p/s1/e2.jpg"},
		{SourceURL: "", RelPath: "p/s1/e3.jpg"},
		{SourceURL: fake.MediaURL("b.png"), RelPath: "p/s1/e4.jpg"},
	}
	refs := r.ResolveAll(context.Background(), reqs, 3)
	if len(refs) != len(reqs) {
		t.Fatalf("got %d refs", len(refs))
	}
	want := []assets.Status{assets.StatusDownloaded, assets.StatusURLOnly, assets.StatusURLOnly, assets.StatusDownloaded}
	for i, ref := range refs {
		if ref.RelPath != reqs[i].RelPath || ref.Status != want[i] {
			t.Errorf("ref %d = %+v, want status %s for %s", i, ref, want[i], reqs[i].RelPath)
		}
	}
}

func TestExpandRoundToken(t *testing.T) {
	got := assets.Expand("art/{sport}/{season}/{round_token}/{episode}.png",
		assets.Tokens{Sport: "ISU Grand Prix", Season: "2025-2026", Round: 4, Episode: 9})
	if got != "art/isu_grand_prix/2025-2026/04/9.png" {
		t.Fatalf("Expand = %q", got)
	}
}
