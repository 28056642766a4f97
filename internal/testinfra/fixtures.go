// Eventlens - Multi-Backend Event Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventlens

package testinfra

import "time"

// FixtureDay is the settled day covered by SampleEvents.
var FixtureDay = time.Date(2025, time.January, 10, 0, 0, 0, 0, time.UTC)

// Event is one stored analytics row. A nil PartitionDate marks a row that is
// still in the streaming buffer.
type Event struct {
	TS            time.Time
	PartitionDate *time.Time
	UserHash      string
	Event         string
	EventGroup    string
	Revision      string
	Environment   string
	UTMSource     string
	UTMMedium     string
	UTMCampaign   string
	Country       string
	Referrer      string
	Page          string
	Browser       string
	OS            string
	Device        string
	Requests      int64
	Bytes         int64
}

// SampleEvents returns the shared fixture used by the engine tests:
//
//   - u1 (desktop, DE): three events 10:00-10:10 from a Google search
//   - u2 (iPhone, US): one bounce at 11:00 from Hacker News
//   - u3 (Android, DE): two events 12:00-12:30 from Google Mail
//   - u4: a buffered row on the following day with no partition date
//   - u5: a row on the previous day, outside FixtureDay
func SampleEvents() []Event {
	day := FixtureDay
	prev := day.AddDate(0, 0, -1)
	at := func(h, m int) time.Time { return day.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute) }

	return []Event{
		{
			TS: at(10, 0), PartitionDate: &day, UserHash: "u1",
			Event: "click", EventGroup: "ui", Revision: "r1", Environment: "prod",
			UTMSource: "newsletter", UTMMedium: "email", UTMCampaign: "launch",
			Country: "DE", Referrer: "https://www.google.com/search?q=eventlens", Page: "/home",
			Browser: "Chrome", OS: "Windows", Requests: 2, Bytes: 100,
		},
		{
			TS: at(10, 5), PartitionDate: &day, UserHash: "u1",
			Event: "view", EventGroup: "nav", Revision: "r1", Environment: "prod",
			Country: "DE", Page: "/pricing",
			Browser: "Chrome", OS: "Windows", Requests: 1, Bytes: 50,
		},
		{
			TS: at(10, 10), PartitionDate: &day, UserHash: "u1",
			Event: "click", EventGroup: "ui", Revision: "r2", Environment: "prod",
			Country: "DE", Page: "/checkout",
			Browser: "Chrome", OS: "Windows", Requests: 1, Bytes: 25,
		},
		{
			TS: at(11, 0), PartitionDate: &day, UserHash: "u2",
			Event: "view", EventGroup: "nav", Revision: "r2", Environment: "prod",
			UTMSource: "hn", Country: "US", Referrer: "https://news.ycombinator.com/item?id=1", Page: "/home",
			Browser: "Mobile Safari", OS: "iOS", Device: "iPhone", Requests: 3, Bytes: 300,
		},
		{
			TS: at(12, 0), PartitionDate: &day, UserHash: "u3",
			Event: "view", EventGroup: "nav", Revision: "r2", Environment: "staging",
			UTMSource: "newsletter", Country: "DE", Referrer: "https://mail.google.com/inbox", Page: "/docs",
			Browser: "Chrome Mobile", OS: "Android", Requests: 1, Bytes: 10,
		},
		{
			TS: at(12, 30), PartitionDate: &day, UserHash: "u3",
			Event: "click", EventGroup: "ui", Revision: "r2", Environment: "staging",
			Country: "DE", Page: "/home",
			Browser: "Chrome Mobile", OS: "Android", Requests: 1, Bytes: 10,
		},
		{
			TS: at(25, 0), UserHash: "u4",
			Event: "view", EventGroup: "nav", Country: "FR", Page: "/home",
			Browser: "Firefox", OS: "Linux", Requests: 1, Bytes: 1,
		},
		{
			TS: prev.Add(23 * time.Hour), PartitionDate: &prev, UserHash: "u5",
			Event: "click", EventGroup: "ui", Country: "DE", Page: "/home",
			Browser: "Chrome", OS: "Windows", Requests: 5, Bytes: 500,
		},
	}
}
