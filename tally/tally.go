// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package tally

import (
	"maps"
	"slices"
	"sort"
)

// Vote is one voter's rank for one activity.
type Vote struct {
	Email        string `json:"email"`
	ActivityName string `json:"activity_name"`
	ActivityType string `json:"activity_type"`
	RankPosition int    `json:"rank_position"` // 1-indexed
}

// Item is a canonical activity that can be ranked.
type Item struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Result is the aggregate for a single activity.
type Result struct {
	Rank        int         `json:"rank"` // 1-indexed position within the category
	Name        string      `json:"name"`
	Type        string      `json:"type"`
	Score       int         `json:"score"`
	TotalVotes  int         `json:"total_votes"`
	VotesByRank map[int]int `json:"votes_by_rank"`
}

// Category holds the ranked results for one activity type.
type Category struct {
	Type  string   `json:"type"`
	Size  int      `json:"size"`
	Items []Result `json:"items"`
}

// Tally scores every activity with position-weighted points. In a category of
// N items, rank r is worth N-r+1 points. N counts canonical items plus any
// voted names missing from the canonical list.
func Tally(votes []Vote, canonical []Item) []Category {
	// type -> name -> result
	byType := make(map[string]map[string]*Result)

	entry := func(typ, name string) *Result {
		names, ok := byType[typ]
		if !ok {
			names = make(map[string]*Result)
			byType[typ] = names
		}
		r, ok := names[name]
		if !ok {
			r = &Result{Name: name, Type: typ, VotesByRank: make(map[int]int)}
			names[name] = r
		}
		return r
	}

	for _, item := range canonical {
		entry(item.Type, item.Name)
	}
	for _, v := range votes {
		entry(v.ActivityType, v.ActivityName)
	}

	for _, v := range votes {
		if v.RankPosition < 1 {
			continue
		}
		n := len(byType[v.ActivityType])
		r := byType[v.ActivityType][v.ActivityName]
		if points := n - v.RankPosition + 1; points > 0 {
			r.Score += points
		}
		r.TotalVotes++
		// votes_by_rank only covers ranks 1..N
		if v.RankPosition <= n {
			r.VotesByRank[v.RankPosition]++
		}
	}

	types := slices.Sorted(maps.Keys(byType))

	categories := make([]Category, 0, len(types))
	for _, typ := range types {
		names := byType[typ]
		n := len(names)

		items := make([]Result, 0, n)
		for _, r := range names {
			for rank := 1; rank <= n; rank++ {
				if _, ok := r.VotesByRank[rank]; !ok {
					r.VotesByRank[rank] = 0
				}
			}
			items = append(items, *r)
		}

		sort.Slice(items, func(i, j int) bool {
			a, b := items[i], items[j]

			// 1. Higher score wins
			if a.Score != b.Score {
				return a.Score > b.Score
			}

			// 2. More voters wins
			if a.TotalVotes != b.TotalVotes {
				return a.TotalVotes > b.TotalVotes
			}

			// 3. Stable tie-breaking by name (ascending)
			return a.Name < b.Name
		})

		for i := range items {
			items[i].Rank = i + 1
		}

		categories = append(categories, Category{Type: typ, Size: n, Items: items})
	}

	return categories
}
