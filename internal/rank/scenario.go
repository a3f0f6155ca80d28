// Confluo - Meeting Venue Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/confluo

package rank

import (
	"strings"

	"github.com/tomtom215/confluo/internal/models"
)

// scenarioGroup is one venue-type vocabulary entry: the synonyms users mix
// freely for the same kind of venue, plus the AMap top-level category the
// kind belongs to (the first segment of the provider's "大类;中类;小类"
// type string).
type scenarioGroup struct {
	terms    []string
	category string
}

// scenarioVocabulary covers the venue kinds meeting requests actually ask
// for. A request term not in the vocabulary still matches by substring.
var scenarioVocabulary = []scenarioGroup{
	{[]string{"咖啡馆", "咖啡厅", "咖啡店", "咖啡", "cafe", "coffee"}, "餐饮服务"},
	{[]string{"餐厅", "饭店", "餐馆", "美食", "restaurant"}, "餐饮服务"},
	{[]string{"火锅", "火锅店"}, "餐饮服务"},
	{[]string{"茶馆", "茶楼", "茶室", "奶茶"}, "餐饮服务"},
	{[]string{"酒吧", "清吧", "bar"}, "餐饮服务"},
	{[]string{"图书馆", "自习室", "书店", "library"}, "科教文化服务"},
	{[]string{"商场", "购物中心", "百货", "mall"}, "购物服务"},
	{[]string{"KTV", "唱歌"}, "休闲娱乐"},
	{[]string{"电影院", "影城", "影院"}, "休闲娱乐"},
	{[]string{"公园", "广场"}, "风景名胜"},
	{[]string{"健身房", "健身"}, "运动健身"},
	{[]string{"酒店", "宾馆", "hotel"}, "住宿服务"},
}

// lookupScenario returns the vocabulary group for term, falling back to a
// single-term group with no category.
func lookupScenario(term string) scenarioGroup {
	lowered := strings.ToLower(term)
	for _, g := range scenarioVocabulary {
		for _, syn := range g.terms {
			if strings.ToLower(syn) == lowered {
				return g
			}
		}
	}
	return scenarioGroup{terms: []string{term}}
}

// scenarioScore awards the full 15 points when the venue's name or declared
// type matches a requested term or one of its synonyms, and 8 points when
// only the broad provider category matches (a restaurant when a cafe was
// asked for). Multi-term requests ("咖啡馆 茶馆") match on any term;
// keywords may carry AMap's OR separator from the fallback venue set.
func scenarioScore(c models.Candidate, keyword string) float64 {
	if keyword == "" {
		return 0
	}
	name := strings.ToLower(c.Name)
	venueType := strings.ToLower(c.Type)

	var categoryMatch bool
	for _, term := range splitKeyword(keyword) {
		g := lookupScenario(term)
		for _, syn := range g.terms {
			s := strings.ToLower(syn)
			if strings.Contains(name, s) || strings.Contains(venueType, s) {
				return maxScenario
			}
		}
		if g.category != "" && strings.Contains(venueType, strings.ToLower(g.category)) {
			categoryMatch = true
		}
	}
	if categoryMatch {
		return 8
	}
	return 0
}

func splitKeyword(keyword string) []string {
	return strings.FieldsFunc(keyword, func(r rune) bool {
		return r == ' ' || r == '|' || r == '、'
	})
}
