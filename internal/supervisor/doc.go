// Eventlens - Multi-Backend Event Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventlens

/*
Package supervisor runs Eventlens services under a suture v4 supervisor tree.

Services restart with exponential backoff when they fail, and the whole tree
stops cleanly when its context is canceled (SIGINT/SIGTERM in cmd/server).

	tree := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddStorageService(services.NewConfigureService(backend))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.Addr(), 10*time.Second))
	err := tree.Serve(ctx)

Supervisor events go through sutureslog into the zerolog stream.
*/
package supervisor
