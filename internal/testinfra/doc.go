// Eventlens - Multi-Backend Event Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventlens

// Package testinfra provides shared fixtures and container helpers for tests.
//
// SampleEvents is the fixture every engine test seeds; SeedSQL and SeedMongo
// load it into the warehouse and document store. Container helpers use
// testcontainers-go and only build with the integration tag:
//
//	func TestDocstore_Integration(t *testing.T) {
//	    testinfra.SkipIfNoDocker(t)
//	    ctx := context.Background()
//	    mongo, err := testinfra.NewMongoContainer(ctx)
//	    if err != nil {
//	        t.Fatal(err)
//	    }
//	    defer testinfra.CleanupContainer(t, ctx, mongo)
//
//	    engine, _ := docstore.New(docstore.Config{URI: mongo.URI, Database: "eventlens"})
//	}
//
// Run them with:
//
//	go test -tags integration ./...
package testinfra
