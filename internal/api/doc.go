// Package api serves scenario replays over HTTP.
//
// Routes:
//
//	GET  /healthz    liveness probe
//	POST /replay     replay the YAML scenario in the body, answer with the report
//	GET  /runs/{id}  a recent report by run id
//	GET  /metrics    Prometheus metrics of every replayed decision
package api
