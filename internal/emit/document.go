// Package emit renders the season/episode tree as a Kometa metadata
// document and writes it atomically.
package emit

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Show is the top-level entry under metadata:.
type Show struct {
	Key        string
	Title      string
	SortTitle  string
	Poster     string
	Background string
	Summary    string
	Seasons    []Season
}

// Season is keyed by Number in the output.
type Season struct {
	Number    int
	Title     string
	SortTitle string
	Poster    string
	Summary   string
	Episodes  []Episode
}

// Episode is keyed by Number within its season.
type Episode struct {
	Number int
	Title  string
	// OriginallyAvailable is a YYYY-MM-DD date, empty when unknown.
	OriginallyAvailable string
	Poster              string
	Summary             string
}

// Marshal renders the document. Seasons and episodes are emitted in
// ascending numeric key order whatever order they are given in; identical
// input always yields identical bytes.
func Marshal(show Show) ([]byte, error) {
	if strings.TrimSpace(show.Key) == "" {
		return nil, fmt.Errorf("show key is required")
	}

	seasons := append([]Season(nil), show.Seasons...)
	sort.SliceStable(seasons, func(i, j int) bool { return seasons[i].Number < seasons[j].Number })

	seasonMap := mapping()
	for i, s := range seasons {
		if i > 0 && s.Number == seasons[i-1].Number {
			return nil, fmt.Errorf("duplicate season key %d", s.Number)
		}
		node, err := seasonNode(s)
		if err != nil {
			return nil, fmt.Errorf("season %d: %w", s.Number, err)
		}
		seasonMap.Content = append(seasonMap.Content, intKey(s.Number), node)
	}

	showNode := mapping()
	addString(showNode, "title", show.Title)
	addString(showNode, "sort_title", show.SortTitle)
	addString(showNode, "url_poster", show.Poster)
	addString(showNode, "url_background", show.Background)
	addSummary(showNode, show.Summary)
	if len(seasonMap.Content) > 0 {
		showNode.Content = append(showNode.Content, strKey("seasons"), seasonMap)
	}

	shows := mapping()
	shows.Content = append(shows.Content, strKey(show.Key), showNode)
	root := mapping()
	root.Content = append(root.Content, strKey("metadata"), shows)
	doc := &yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{root}}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encode yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode yaml: %w", err)
	}
	return buf.Bytes(), nil
}

func seasonNode(s Season) (*yaml.Node, error) {
	episodes := append([]Episode(nil), s.Episodes...)
	sort.SliceStable(episodes, func(i, j int) bool { return episodes[i].Number < episodes[j].Number })

	episodeMap := mapping()
	for i, e := range episodes {
		if i > 0 && e.Number == episodes[i-1].Number {
			return nil, fmt.Errorf("duplicate episode key %d", e.Number)
		}
		node := mapping()
		addString(node, "title", e.Title)
		if e.OriginallyAvailable != "" {
			node.Content = append(node.Content, strKey("originally_available"),
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!timestamp", Value: e.OriginallyAvailable})
		}
		addString(node, "url_poster", e.Poster)
		addSummary(node, e.Summary)
		episodeMap.Content = append(episodeMap.Content, intKey(e.Number), node)
	}

	node := mapping()
	addString(node, "title", s.Title)
	addString(node, "sort_title", s.SortTitle)
	addString(node, "url_poster", s.Poster)
	addSummary(node, s.Summary)
	if len(episodeMap.Content) > 0 {
		node.Content = append(node.Content, strKey("episodes"), episodeMap)
	}
	return node, nil
}

func mapping() *yaml.Node {
	return &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
}

func strKey(k string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k}
}

func intKey(n int) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.Itoa(n)}
}

// addString appends key: value, skipping empty values.
func addString(m *yaml.Node, key, value string) {
	value = strings.TrimSpace(value)
	if value == "" {
		return
	}
	m.Content = append(m.Content, strKey(key), &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value})
}

func addSummary(m *yaml.Node, summary string) {
	summary = strings.Join(strings.Fields(summary), " ")
	if summary == "" {
		return
	}
	m.Content = append(m.Content, strKey("summary"),
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Style: yaml.FoldedStyle, Value: summary})
}
