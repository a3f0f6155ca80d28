// Confluo - Meeting Venue Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/confluo

package geocode

import "strings"

// Alias maps a common abbreviation to the canonical address the geocoding
// provider resolves reliably. City is the disambiguating qualifier: the same
// landmark short-name can exist in several cities ("中大" is a university in
// both Guangzhou and Taiwan), so queries are issued as City+Address and the
// city is dropped only on the relaxed retry.
type Alias struct {
	Alias   string
	City    string
	Address string
}

// AliasTable answers abbreviation lookups. Read-only after construction and
// safe for concurrent use.
type AliasTable struct {
	exact   map[string]Alias
	ordered []Alias
}

// builtinAliases covers the university and landmark short-names users type
// most often. Addresses are what the provider geocodes cleanly, not postal
// addresses.
var builtinAliases = []Alias{
	{"北大", "北京市", "海淀区北京大学"},
	{"清华", "北京市", "海淀区清华大学"},
	{"人大", "北京市", "海淀区中国人民大学"},
	{"北师大", "北京市", "海淀区北京师范大学"},
	{"北航", "北京市", "海淀区北京航空航天大学"},
	{"复旦", "上海市", "杨浦区复旦大学"},
	{"上交", "上海市", "闵行区上海交通大学"},
	{"同济", "上海市", "杨浦区同济大学"},
	{"浙大", "浙江省杭州市", "浙江大学"},
	{"中大", "广东省广州市", "中山大学"},
	{"华工", "广东省广州市", "华南理工大学"},
	{"华科", "湖北省武汉市", "华中科技大学"},
	{"武大", "湖北省武汉市", "武汉大学"},
	{"川大", "四川省成都市", "四川大学"},
	{"西交", "陕西省西安市", "西安交通大学"},
	{"哈工大", "黑龙江省哈尔滨市", "哈尔滨工业大学"},
}

// NewAliasTable builds the table from the builtin entries.
func NewAliasTable() *AliasTable {
	return newAliasTable(builtinAliases)
}

// NewAliasTableWith builds a table from caller-supplied entries; used by
// tests and by deployments that extend the builtin set.
func NewAliasTableWith(entries []Alias) *AliasTable {
	return newAliasTable(entries)
}

func newAliasTable(entries []Alias) *AliasTable {
	exact := make(map[string]Alias, len(entries))
	for _, a := range entries {
		exact[a.Alias] = a
	}
	return &AliasTable{exact: exact, ordered: entries}
}

// Lookup returns the alias entry for input, trying an exact match first and
// then a prefix match ("北大东门" resolves via "北大"). Prefix matching scans
// in table order so results are deterministic.
func (t *AliasTable) Lookup(input string) (Alias, bool) {
	if a, ok := t.exact[input]; ok {
		return a, true
	}
	for _, a := range t.ordered {
		if strings.HasPrefix(input, a.Alias) {
			return a, true
		}
	}
	return Alias{}, false
}

// Len returns the number of entries, for status reporting.
func (t *AliasTable) Len() int {
	return len(t.ordered)
}
