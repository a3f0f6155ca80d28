// Confluo - Meeting Venue Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/confluo

// Package brands holds the static brand and venue-type knowledge base used
// for requirement matching during ranking.
//
// A feature score is a float in [0,1] expressing how well a brand (or, as a
// fallback, a venue type) serves a canonical requirement such as parking or
// quiet. Scores at or above SatisfiedThreshold count as satisfying the
// requirement. The table is loaded once at startup and never mutated.
package brands

import "strings"

// Canonical requirement feature names. These double as the keys of every
// feature profile and as the canonical output of ParseRequirements.
const (
	FeatureParking  = "停车"
	FeatureQuiet    = "安静"
	FeatureBusiness = "商务"
	FeatureTransit  = "交通"
	FeaturePrivate  = "包间"
	FeatureWiFi     = "WiFi"
	FeatureLinger   = "可以久坐"
	FeatureKids     = "适合儿童"
	FeatureAllNight = "24小时营业"
)

// SatisfiedThreshold is the minimum feature score that counts as satisfying
// a requirement.
const SatisfiedThreshold = 0.7

// Source tells where a feature score came from, used to qualify
// recommendation reasons.
type Source int

const (
	// SourceNone means no profile covered the feature.
	SourceNone Source = iota
	// SourceBrand means the score came from a recognized brand profile.
	SourceBrand
	// SourceType means the score came from a venue-type default profile.
	SourceType
)

// Profile maps canonical feature names to scores in [0,1].
type Profile map[string]float64

// profileEntry preserves table order so that brand detection is
// deterministic. Go map iteration order is randomized; detection must always
// pick the same brand for the same venue name.
type profileEntry struct {
	name     string
	features Profile
}

// brandTable lists known chains with hand-assigned feature scores. Grouped
// by venue category. A score reflects the typical store, not any particular
// branch.
var brandTable = []profileEntry{
	// Coffee chains.
	{"星巴克", Profile{FeatureQuiet: 0.8, FeatureWiFi: 1.0, FeatureBusiness: 0.7, FeatureParking: 0.3, FeatureLinger: 0.9}},
	{"瑞幸", Profile{FeatureQuiet: 0.4, FeatureWiFi: 0.7, FeatureBusiness: 0.4, FeatureParking: 0.3, FeatureLinger: 0.5}},
	{"Costa", Profile{FeatureQuiet: 0.9, FeatureWiFi: 1.0, FeatureBusiness: 0.8, FeatureParking: 0.4, FeatureLinger: 0.9}},
	{"漫咖啡", Profile{FeatureQuiet: 0.9, FeatureWiFi: 0.9, FeatureBusiness: 0.6, FeatureParking: 0.5, FeatureLinger: 1.0}},
	{"太平洋咖啡", Profile{FeatureQuiet: 0.8, FeatureWiFi: 0.9, FeatureBusiness: 0.7, FeatureParking: 0.4, FeatureLinger: 0.8}},
	{"Manner", Profile{FeatureQuiet: 0.5, FeatureWiFi: 0.6, FeatureBusiness: 0.4, FeatureParking: 0.2, FeatureLinger: 0.3}},
	{"Seesaw", Profile{FeatureQuiet: 0.8, FeatureWiFi: 0.9, FeatureBusiness: 0.6, FeatureParking: 0.3, FeatureLinger: 0.8}},
	{"M Stand", Profile{FeatureQuiet: 0.7, FeatureWiFi: 0.8, FeatureBusiness: 0.5, FeatureParking: 0.3, FeatureLinger: 0.7}},
	{"Tims", Profile{FeatureQuiet: 0.6, FeatureWiFi: 0.8, FeatureBusiness: 0.5, FeatureParking: 0.4, FeatureLinger: 0.6}},
	{"上岛咖啡", Profile{FeatureQuiet: 0.9, FeatureWiFi: 0.8, FeatureBusiness: 0.8, FeatureParking: 0.6, FeatureLinger: 0.9, FeaturePrivate: 0.7}},
	{"Zoo Coffee", Profile{FeatureQuiet: 0.7, FeatureWiFi: 0.8, FeatureBusiness: 0.5, FeatureParking: 0.4, FeatureLinger: 0.8, FeatureKids: 0.6}},
	{"猫屎咖啡", Profile{FeatureQuiet: 0.8, FeatureWiFi: 0.8, FeatureBusiness: 0.6, FeatureParking: 0.4, FeatureLinger: 0.8}},
	{"皮爷咖啡", Profile{FeatureQuiet: 0.7, FeatureWiFi: 0.8, FeatureBusiness: 0.5, FeatureParking: 0.3, FeatureLinger: 0.7}},
	{"咖世家", Profile{FeatureQuiet: 0.8, FeatureWiFi: 0.9, FeatureBusiness: 0.7, FeatureParking: 0.4, FeatureLinger: 0.8}},
	{"挪瓦咖啡", Profile{FeatureQuiet: 0.5, FeatureWiFi: 0.6, FeatureBusiness: 0.4, FeatureParking: 0.2, FeatureLinger: 0.4}},
	// Chinese restaurants.
	{"海底捞", Profile{FeaturePrivate: 0.9, FeatureParking: 0.8, FeatureQuiet: 0.2, FeatureKids: 0.9, FeatureAllNight: 0.3}},
	{"西贝", Profile{FeaturePrivate: 0.7, FeatureParking: 0.6, FeatureQuiet: 0.5, FeatureKids: 0.7}},
	{"外婆家", Profile{FeaturePrivate: 0.5, FeatureParking: 0.5, FeatureQuiet: 0.3, FeatureKids: 0.6}},
	{"绿茶", Profile{FeaturePrivate: 0.4, FeatureParking: 0.5, FeatureQuiet: 0.4, FeatureKids: 0.5}},
	{"小龙坎", Profile{FeaturePrivate: 0.6, FeatureParking: 0.5, FeatureQuiet: 0.2, FeatureKids: 0.4}},
	{"呷哺呷哺", Profile{FeaturePrivate: 0.0, FeatureParking: 0.4, FeatureQuiet: 0.3, FeatureKids: 0.5}},
	{"大龙燚", Profile{FeaturePrivate: 0.5, FeatureParking: 0.5, FeatureQuiet: 0.2, FeatureKids: 0.4}},
	{"眉州东坡", Profile{FeaturePrivate: 0.8, FeatureParking: 0.7, FeatureQuiet: 0.6, FeatureKids: 0.7, FeatureBusiness: 0.7}},
	{"全聚德", Profile{FeaturePrivate: 0.9, FeatureParking: 0.7, FeatureQuiet: 0.6, FeatureKids: 0.6, FeatureBusiness: 0.8}},
	{"大董", Profile{FeaturePrivate: 0.9, FeatureParking: 0.8, FeatureQuiet: 0.8, FeatureBusiness: 0.9}},
	{"鼎泰丰", Profile{FeaturePrivate: 0.5, FeatureParking: 0.6, FeatureQuiet: 0.6, FeatureKids: 0.7}},
	{"南京大牌档", Profile{FeaturePrivate: 0.6, FeatureParking: 0.5, FeatureQuiet: 0.3, FeatureKids: 0.6}},
	{"九毛九", Profile{FeaturePrivate: 0.4, FeatureParking: 0.5, FeatureQuiet: 0.4, FeatureKids: 0.6}},
	{"太二酸菜鱼", Profile{FeaturePrivate: 0.0, FeatureParking: 0.4, FeatureQuiet: 0.3, FeatureKids: 0.4}},
	{"湘鄂情", Profile{FeaturePrivate: 0.8, FeatureParking: 0.7, FeatureQuiet: 0.5, FeatureBusiness: 0.7}},
	// Western and fast food.
	{"麦当劳", Profile{FeatureParking: 0.5, FeatureWiFi: 0.8, FeatureKids: 0.9, FeatureAllNight: 0.8}},
	{"肯德基", Profile{FeatureParking: 0.5, FeatureWiFi: 0.7, FeatureKids: 0.9, FeatureAllNight: 0.6}},
	{"必胜客", Profile{FeaturePrivate: 0.3, FeatureParking: 0.5, FeatureKids: 0.8, FeatureQuiet: 0.5}},
	{"萨莉亚", Profile{FeatureParking: 0.4, FeatureKids: 0.7, FeatureQuiet: 0.4}},
	{"汉堡王", Profile{FeatureParking: 0.4, FeatureWiFi: 0.6, FeatureKids: 0.7}},
	{"赛百味", Profile{FeatureParking: 0.3, FeatureWiFi: 0.5, FeatureLinger: 0.4}},
	{"棒约翰", Profile{FeatureParking: 0.4, FeatureKids: 0.7, FeaturePrivate: 0.2}},
	{"达美乐", Profile{FeatureParking: 0.3, FeatureKids: 0.6}},
	{"DQ", Profile{FeatureKids: 0.9, FeatureParking: 0.4}},
	{"哈根达斯", Profile{FeatureKids: 0.7, FeatureQuiet: 0.6, FeatureLinger: 0.5}},
	// Tea and drinks.
	{"喜茶", Profile{FeatureQuiet: 0.4, FeatureLinger: 0.5, FeatureParking: 0.3}},
	{"奈雪的茶", Profile{FeatureQuiet: 0.5, FeatureLinger: 0.6, FeatureParking: 0.4, FeatureWiFi: 0.6}},
	{"茶百道", Profile{FeatureQuiet: 0.3, FeatureLinger: 0.3, FeatureParking: 0.2}},
	{"一点点", Profile{FeatureQuiet: 0.2, FeatureLinger: 0.2, FeatureParking: 0.2}},
	{"蜜雪冰城", Profile{FeatureQuiet: 0.2, FeatureLinger: 0.2, FeatureParking: 0.2}},
	{"茶颜悦色", Profile{FeatureQuiet: 0.4, FeatureLinger: 0.4, FeatureParking: 0.3}},
	{"古茗", Profile{FeatureQuiet: 0.3, FeatureLinger: 0.3, FeatureParking: 0.2}},
	{"CoCo", Profile{FeatureQuiet: 0.3, FeatureLinger: 0.3, FeatureParking: 0.2}},
}

// typeTable holds default profiles per venue type, applied when no brand
// profile matches. Matched against both the declared type string and the
// venue name.
var typeTable = []profileEntry{
	{"图书馆", Profile{FeatureQuiet: 1.0, FeatureWiFi: 0.9, FeatureLinger: 1.0}},
	{"书店", Profile{FeatureQuiet: 1.0, FeatureLinger: 0.8, FeatureWiFi: 0.5}},
	{"商场", Profile{FeatureParking: 0.9, FeatureTransit: 0.8, FeatureKids: 0.7}},
	{"酒店", Profile{FeatureQuiet: 0.9, FeatureBusiness: 0.9, FeatureParking: 0.8, FeatureWiFi: 0.9, FeaturePrivate: 0.8}},
	{"电影院", Profile{FeatureParking: 0.7, FeatureKids: 0.6}},
	{"KTV", Profile{FeaturePrivate: 1.0, FeatureParking: 0.6, FeatureAllNight: 0.5}},
	{"健身房", Profile{FeatureParking: 0.6, FeatureWiFi: 0.5}},
	{"网咖", Profile{FeatureWiFi: 1.0, FeatureAllNight: 0.8, FeatureLinger: 0.9}},
	{"便利店", Profile{FeatureAllNight: 0.9}},
}

// requirementAliases maps each canonical feature to the phrasings users
// actually type. Matching is substring, case-insensitive for Latin text.
var requirementAliases = []struct {
	canonical string
	phrases   []string
}{
	{FeatureParking, []string{"停车", "车位", "停车场", "免费停车", "方便停车", "停车方便", "parking"}},
	{FeatureQuiet, []string{"安静", "环境好", "氛围", "静", "舒适", "环境安静", "quiet"}},
	{FeatureBusiness, []string{"商务", "会议", "办公", "谈事", "工作", "business", "meeting"}},
	{FeatureTransit, []string{"交通", "地铁", "公交", "方便", "交通便利", "subway", "transit"}},
	{FeaturePrivate, []string{"包间", "私密", "独立", "包厢", "有包间", "private"}},
	{FeatureWiFi, []string{"wifi", "无线", "网络", "上网", "免费wifi"}},
	{FeatureLinger, []string{"久坐", "可以久坐", "坐着办公", "长时间", "sit long"}},
	{FeatureKids, []string{"儿童", "带娃", "亲子", "小孩", "适合儿童", "kids", "children"}},
	{FeatureAllNight, []string{"24小时", "通宵", "夜间", "凌晨", "24 hour", "overnight"}},
}

// KnowledgeBase answers feature-score lookups for brands and venue types.
// Safe for concurrent use; read-only after construction.
type KnowledgeBase struct {
	brands     []profileEntry
	types      []profileEntry
	brandIndex map[string]Profile
}

// NewKnowledgeBase builds the knowledge base from the builtin tables.
func NewKnowledgeBase() *KnowledgeBase {
	idx := make(map[string]Profile, len(brandTable))
	for _, e := range brandTable {
		idx[e.name] = e.features
	}
	return &KnowledgeBase{
		brands:     brandTable,
		types:      typeTable,
		brandIndex: idx,
	}
}

// DetectBrand returns the first known brand whose name appears in the venue
// name, in table order.
func (kb *KnowledgeBase) DetectBrand(venueName string) (string, bool) {
	for _, e := range kb.brands {
		if strings.Contains(venueName, e.name) {
			return e.name, true
		}
	}
	return "", false
}

// FeatureScore returns the score for one feature of a venue, looking up the
// brand profile first and falling back to the first matching venue-type
// default. The returned Source tells which layer answered; SourceNone means
// score 0.
func (kb *KnowledgeBase) FeatureScore(venueName, venueType, feature string) (float64, Source) {
	if brand, ok := kb.DetectBrand(venueName); ok {
		if score, ok := kb.brandIndex[brand][feature]; ok {
			return score, SourceBrand
		}
		// A recognized brand with no entry for this feature does not fall
		// through to type defaults; the profile is authoritative for its
		// brand.
		return 0, SourceBrand
	}
	for _, e := range kb.types {
		if strings.Contains(venueType, e.name) || strings.Contains(venueName, e.name) {
			if score, ok := e.features[feature]; ok {
				return score, SourceType
			}
			return 0, SourceType
		}
	}
	return 0, SourceNone
}

// Satisfies reports whether the venue meets the requirement at or above
// SatisfiedThreshold.
func (kb *KnowledgeBase) Satisfies(venueName, venueType, requirement string) (bool, Source) {
	score, src := kb.FeatureScore(venueName, venueType, requirement)
	return score >= SatisfiedThreshold, src
}

// ParseRequirements canonicalizes free-text requirements into feature names.
// Each input is matched against the alias phrases by substring; outputs are
// deduplicated and returned in the fixed alias-table order so downstream
// scoring is deterministic.
func ParseRequirements(inputs []string) []string {
	if len(inputs) == 0 {
		return nil
	}
	joined := strings.ToLower(strings.Join(inputs, " "))
	var out []string
	for _, ra := range requirementAliases {
		for _, phrase := range ra.phrases {
			if strings.Contains(joined, strings.ToLower(phrase)) {
				out = append(out, ra.canonical)
				break
			}
		}
	}
	return out
}

// BaseName strips branch decorations from a venue name so that chain outlets
// compare equal for diversity scoring. "星巴克(中关村店)" and "星巴克(五道口店)"
// both reduce to "星巴克".
func BaseName(name string) string {
	if i := strings.IndexAny(name, "(（"); i >= 0 {
		name = name[:i]
	}
	name = strings.ReplaceAll(name, "分店", "")
	name = strings.ReplaceAll(name, "店", "")
	return strings.TrimSpace(name)
}

// Features lists every canonical feature name in a stable order.
func Features() []string {
	return []string{
		FeatureParking, FeatureQuiet, FeatureBusiness, FeatureTransit,
		FeaturePrivate, FeatureWiFi, FeatureLinger, FeatureKids, FeatureAllNight,
	}
}
