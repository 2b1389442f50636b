// Bookshelf - Book Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package cache

import (
	"sort"
	"strings"
	"unicode"
)

// trieNode is one rune step in the title tree.
type trieNode struct {
	children map[rune]*trieNode
	end      bool
	title    string
	weight   int
}

func newTrieNode() *trieNode {
	return &trieNode{children: make(map[rune]*trieNode)}
}

// Suggestion is one autocomplete match.
type Suggestion struct {
	Title  string `json:"title"`
	Weight int    `json:"rating_count"`
}

// TitleIndex answers case-insensitive prefix queries over model titles.
// It is built once per model and never modified afterwards, so lookups
// need no locking.
type TitleIndex struct {
	root *trieNode
	size int
}

// NewTitleIndex indexes titles. weights[i] ranks titles[i]; a nil weights
// slice ranks every title equally. Duplicate titles keep the first weight.
func NewTitleIndex(titles []string, weights []int) *TitleIndex {
	idx := &TitleIndex{root: newTrieNode()}
	for i, title := range titles {
		w := 0
		if i < len(weights) {
			w = weights[i]
		}
		idx.insert(title, w)
	}
	return idx
}

func normalizeTitle(s string) string {
	return strings.ToLower(strings.TrimLeftFunc(s, unicode.IsSpace))
}

func (t *TitleIndex) insert(title string, weight int) {
	if title == "" {
		return
	}
	node := t.root
	for _, ch := range normalizeTitle(title) {
		child := node.children[ch]
		if child == nil {
			child = newTrieNode()
			node.children[ch] = child
		}
		node = child
	}
	if node.end {
		return
	}
	node.end = true
	node.title = title
	node.weight = weight
	t.size++
}

// Contains reports whether title is indexed, ignoring case.
func (t *TitleIndex) Contains(title string) bool {
	node := t.find(title)
	return node != nil && node.end
}

// Suggest returns up to limit titles starting with prefix, highest weight
// first and then alphabetically. An empty prefix matches nothing.
func (t *TitleIndex) Suggest(prefix string, limit int) []Suggestion {
	if strings.TrimSpace(prefix) == "" || limit <= 0 {
		return nil
	}
	node := t.find(prefix)
	if node == nil {
		return nil
	}

	var out []Suggestion
	collect(node, &out)

	sort.Slice(out, func(i, j int) bool {
		if out[i].Weight != out[j].Weight {
			return out[i].Weight > out[j].Weight
		}
		return out[i].Title < out[j].Title
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Len returns the number of distinct indexed titles.
func (t *TitleIndex) Len() int { return t.size }

func (t *TitleIndex) find(s string) *trieNode {
	node := t.root
	for _, ch := range normalizeTitle(s) {
		node = node.children[ch]
		if node == nil {
			return nil
		}
	}
	return node
}

func collect(node *trieNode, out *[]Suggestion) {
	if node.end {
		*out = append(*out, Suggestion{Title: node.title, Weight: node.weight})
	}
	for _, child := range node.children {
		collect(child, out)
	}
}
