// Eventlens - Multi-Backend Event Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventlens

package analytics

import (
	"net"
	"regexp"
	"strings"

	"golang.org/x/net/publicsuffix"

	"github.com/tomtom215/eventlens/internal/models"
)

// ReferrerHostPattern extracts the host of an absolute referrer URL in its first
// capture group, skipping any userinfo. It is valid in RE2 (Go, DuckDB) and PCRE (MongoDB) alike.
const ReferrerHostPattern = `^[a-zA-Z][a-zA-Z0-9+.\-]*://(?:[^/?#@]*@)?([^/:?#@]+)`

var referrerHostRegexp = regexp.MustCompile(ReferrerHostPattern)

// ReferrerHost returns the lowercased host of a referrer URL, or "" when the
// value is not an absolute URL.
func ReferrerHost(referrer string) string {
	m := referrerHostRegexp.FindStringSubmatch(referrer)
	if len(m) < 2 {
		return ""
	}
	return strings.ToLower(m[1])
}

// RegistrableDomain returns the eTLD+1 of host ("news.bbc.co.uk" -> "bbc.co.uk").
// Hosts without a registrable domain (IP addresses, bare public suffixes such
// as "localhost" or "co.uk") are returned unchanged.
func RegistrableDomain(host string) string {
	host = strings.TrimSuffix(strings.ToLower(host), ".")
	if host == "" || net.ParseIP(host) != nil {
		return host
	}
	domain, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return host
	}
	return domain
}

// TLDMatch is the set of referrer hosts that RegistrableDomain maps to one
// referrer_tld filter value.
type TLDMatch struct {
	// Domain is the lowercased filter value.
	Domain string

	// Subdomains admits hosts below Domain. Otherwise only Domain itself matches.
	Subdomains bool

	// None is set when no host maps to the value, e.g. "www.google.com".
	None bool
}

// MatchReferrerTLD resolves a referrer_tld filter value. A registrable domain
// matches itself and its subdomains; an IP address or a bare public suffix is
// only ever the key of that exact host.
func MatchReferrerTLD(tld string) TLDMatch {
	domain := strings.TrimSuffix(strings.ToLower(tld), ".")
	if domain == "" {
		return TLDMatch{None: true}
	}
	if net.ParseIP(domain) != nil {
		return TLDMatch{Domain: domain}
	}
	etld1, err := publicsuffix.EffectiveTLDPlusOne(domain)
	switch {
	case err != nil:
		return TLDMatch{Domain: domain}
	case etld1 == domain:
		return TLDMatch{Domain: domain, Subdomains: true}
	default:
		return TLDMatch{Domain: domain, None: true}
	}
}

// MergeByRegistrableDomain folds per-host attribution rows into per-domain rows.
// Each user is attributed to exactly one host, so summing user counts across
// hosts of one domain does not double count. Rows with an empty key are dropped.
func MergeByRegistrableDomain(rows []models.GroupingCount, limit int) []models.GroupingCount {
	index := make(map[string]int, len(rows))
	merged := make([]models.GroupingCount, 0, len(rows))
	for _, row := range rows {
		domain := RegistrableDomain(row.Key)
		if domain == "" {
			continue
		}
		if i, ok := index[domain]; ok {
			merged[i].UserCount += row.UserCount
			merged[i].EventCount += row.EventCount
			continue
		}
		index[domain] = len(merged)
		merged = append(merged, models.GroupingCount{Key: domain, UserCount: row.UserCount, EventCount: row.EventCount})
	}
	SortGroupingCounts(merged)
	return applyLimit(merged, limit)
}
