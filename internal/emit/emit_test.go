package emit

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/gofrs/flock"
	"gopkg.in/yaml.v3"
)

func sampleShow() Show {
	return Show{
		Key:        "formula1_2025",
		Title:      "Formula 1 2025",
		SortTitle:  "Formula 1 2025",
		Poster:     "https://raw.example.test/posters/formula1/2025/poster.jpg",
		Background: "",
		Summary:    "The 2025 season.\n  Twenty-four rounds.",
		Seasons: []Season{
			{Number: 10, Title: "Spanish Grand Prix", SortTitle: "12_Spanish Grand Prix", Episodes: []Episode{
				{Number: 2, Title: "Race"},
				{Number: 1, Title: "Qualifying", OriginallyAvailable: "2025-06-01"},
			}},
			{Number: 2, Title: "Saudi Arabian Grand Prix", Summary: "Round 2.", Episodes: []Episode{
				{Number: 1, Title: "Race", OriginallyAvailable: "2025-04-20", Poster: "https://x.test/e1.jpg", Summary: "Night race."},
			}},
			{Number: 1, Title: "Bahrain Grand Prix", Episodes: []Episode{{Number: 1, Title: "10"}}},
		},
	}
}

func TestMarshalIsByteIdentical(t *testing.T) {
	a, err := Marshal(sampleShow())
	if err != nil {
		t.Fatalf("Marshal returned error: %v", err)
	}
	b, err := Marshal(sampleShow())
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a, b) {
		t.Fatalf("output differs between runs:\n%s\n---\n%s", a, b)
	}
}

func TestMarshalOrdersNumericKeys(t *testing.T) {
	out, err := Marshal(sampleShow())
	if err != nil {
		t.Fatal(err)
	}

	var root yaml.Node
	if err := yaml.Unmarshal(out, &root); err != nil {
		t.Fatalf("output is not valid YAML: %v\n%s", err, out)
	}
	show := lookup(t, root.Content[0], "metadata", "formula1_2025")
	seasons := lookup(t, show, "seasons")
	assertKeys(t, seasons, []int{1, 2, 10})
	assertKeys(t, lookup(t, seasons, "10", "episodes"), []int{1, 2})

	for _, key := range mappingKeys(show) {
		if key == "url_background" {
			t.Fatal("empty values must be omitted")
		}
	}
	want := []string{"title", "sort_title", "url_poster", "summary", "seasons"}
	if got := mappingKeys(show); strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("show keys = %v, want %v", got, want)
	}

	text := string(out)
	for _, frag := range []string{
		"metadata:\n  formula1_2025:\n    title: Formula 1 2025\n",
		"summary: >-\n      The 2025 season. Twenty-four rounds.\n",
		"originally_available: 2025-04-20\n",
		`title: "10"`,
	} {
		if !strings.Contains(text, frag) {
			t.Errorf("output missing %q:\n%s", frag, text)
		}
	}
}

func TestMarshalRejectsDuplicateKeys(t *testing.T) {
	show := sampleShow()
	show.Seasons = append(show.Seasons, Season{Number: 2, Title: "dup"})
	if _, err := Marshal(show); err == nil {
		t.Fatal("expected duplicate season key error")
	}
}

func TestWriteReplacesAtomically(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "metadata", "formula1.yml")

	if err := Write(path, sampleShow()); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}
	first, _ := os.ReadFile(path)
	if err := Write(path, sampleShow()); err != nil {
		t.Fatal(err)
	}
	second, _ := os.ReadFile(path)
	if !bytes.Equal(first, second) {
		t.Fatal("re-running the emitter changed the file")
	}

	bad := sampleShow()
	bad.Key = ""
	var emitErr *EmitError
	if err := Write(path, bad); !errors.As(err, &emitErr) {
		t.Fatalf("expected EmitError, got %v", err)
	}
	after, _ := os.ReadFile(path)
	if !bytes.Equal(first, after) {
		t.Fatal("failed emit modified the previous output")
	}

	entries, _ := os.ReadDir(filepath.Dir(path))
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tmp") {
			t.Fatalf("temp file left behind: %s", e.Name())
		}
	}
}

func TestWriteFailsWhenLocked(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yml")
	lock := flock.New(path + ".lock")
	ok, err := lock.TryLock()
	if err != nil || !ok {
		t.Fatalf("could not take lock: %v", err)
	}
	defer lock.Unlock()

	err = WriteFile(path, []byte("metadata: {}\n"))
	if !errors.Is(err, ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}
	if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
		t.Fatal("locked write must not create the output")
	}
}

func TestWriteUnwritablePath(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	err := WriteFile(filepath.Join(blocker, "out.yml"), []byte("x"))
	var emitErr *EmitError
	if !errors.As(err, &emitErr) || emitErr.Op != "create directory" {
		t.Fatalf("expected create directory EmitError, got %v", err)
	}
}

func lookup(t *testing.T, n *yaml.Node, path ...string) *yaml.Node {
	t.Helper()
	for _, key := range path {
		found := false
		for i := 0; i+1 < len(n.Content); i += 2 {
			if n.Content[i].Value == key {
				n = n.Content[i+1]
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("key %q not found", key)
		}
	}
	return n
}

func mappingKeys(n *yaml.Node) []string {
	var keys []string
	for i := 0; i+1 < len(n.Content); i += 2 {
		keys = append(keys, n.Content[i].Value)
	}
	return keys
}

func assertKeys(t *testing.T, n *yaml.Node, want []int) {
	t.Helper()
	keys := mappingKeys(n)
	if len(keys) != len(want) {
		t.Fatalf("keys = %v, want %v", keys, want)
	}
	for i, k := range keys {
		if k != strconv.Itoa(want[i]) || n.Content[2*i].Tag != "!!int" {
			t.Fatalf("keys = %v (tag %s), want %v", keys, n.Content[2*i].Tag, want)
		}
	}
}
