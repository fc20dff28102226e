// Package server is the spindle admin HTTP server, built on gin.
//
// It serves the probe endpoints (/health, /liveness, /readiness), build
// information (/info), runtime metrics (/metrics) and the rendered DAG
// (/dag, JSON by default, ?format=yaml for YAML). Every request passes
// through the middleware chain in server/middleware: recovery, request id,
// request logging and a shared token-bucket rate limit.
//
// The server implements component.Component and is started by
// `spindle serve` through the bootstrap lifecycle.
package server
