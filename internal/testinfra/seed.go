// Eventlens - Multi-Backend Event Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventlens

package testinfra

import (
	"context"
	"database/sql"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// SeedSQL inserts events into table, which must already exist.
func SeedSQL(ctx context.Context, db *sql.DB, table string, events []Event) error {
	query := fmt.Sprintf(`INSERT INTO %s (
		ts, partition_date, user_hash, event, event_group, revision_id, environment_id,
		utm_source, utm_medium, utm_campaign, user_country, referrer_url, page_url,
		browser_name, os_name, device_name, requests, bytes
	) VALUES (?, CAST(? AS DATE), ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, table)

	for i := range events {
		ev := &events[i]
		var partition interface{}
		if ev.PartitionDate != nil {
			partition = ev.PartitionDate.Format("2006-01-02")
		}
		_, err := db.ExecContext(ctx, query,
			ev.TS.UTC(), partition, ev.UserHash, nullable(ev.Event), nullable(ev.EventGroup),
			nullable(ev.Revision), nullable(ev.Environment), nullable(ev.UTMSource),
			nullable(ev.UTMMedium), nullable(ev.UTMCampaign), nullable(ev.Country),
			nullable(ev.Referrer), nullable(ev.Page), nullable(ev.Browser), nullable(ev.OS),
			nullable(ev.Device), ev.Requests, ev.Bytes)
		if err != nil {
			return fmt.Errorf("insert event %d: %w", i, err)
		}
	}
	return nil
}

// SeedMongo inserts events into coll. Empty strings are stored as missing fields.
func SeedMongo(ctx context.Context, coll *mongo.Collection, events []Event) error {
	docs := make([]interface{}, 0, len(events))
	for i := range events {
		ev := &events[i]
		doc := bson.M{
			"ts":        ev.TS.UTC(),
			"user_hash": ev.UserHash,
			"requests":  ev.Requests,
			"bytes":     ev.Bytes,
		}
		if ev.PartitionDate != nil {
			doc["partition_date"] = *ev.PartitionDate
		} else {
			doc["partition_date"] = nil
		}
		for field, value := range map[string]string{
			"event":          ev.Event,
			"event_group":    ev.EventGroup,
			"revision_id":    ev.Revision,
			"environment_id": ev.Environment,
			"utm_source":     ev.UTMSource,
			"utm_medium":     ev.UTMMedium,
			"utm_campaign":   ev.UTMCampaign,
			"user_country":   ev.Country,
			"referrer_url":   ev.Referrer,
			"page_url":       ev.Page,
			"browser_name":   ev.Browser,
			"os_name":        ev.OS,
			"device_name":    ev.Device,
		} {
			if value != "" {
				doc[field] = value
			}
		}
		docs = append(docs, doc)
	}
	if _, err := coll.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("insert events: %w", err)
	}
	return nil
}

// SeedMongoURI connects to uri and inserts events into database.collection.
func SeedMongoURI(ctx context.Context, uri, database, collection string, events []Event) error {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer client.Disconnect(ctx) //nolint:errcheck
	return SeedMongo(ctx, client.Database(database).Collection(collection), events)
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
