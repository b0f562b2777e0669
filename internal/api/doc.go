// Package api implements the HTTP and WebSocket surface of Garden Core.
//
// This package provides:
//   - GET /api/v1/health for liveness probes
//   - the realtime WebSocket endpoint (default /wsinit), authenticated with
//     ?authorization=Bearer%20<token> and registered on the realtime Hub
//   - schedule endpoints for users and agents, enforcing garden access here
//     and the job mutation policy in the automation Service
//   - device control endpoints that switch an actuator kind across a
//     garden or send reset, stop and resume to one board
//   - the schedule audit trail, recorded on every mutation and readable by
//     the garden owner
//   - middleware (request ID, logging, recovery, CORS, body limit, bearer auth)
//
// # Security
//
// Every route except health and the WebSocket upgrade requires an
// Authorization: Bearer header. The WebSocket reads its credential from the
// query string because browsers cannot set headers on the upgrade request;
// rejected sockets are closed with 1008 (policy violation).
package api
