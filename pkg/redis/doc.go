// Package redis connects to Redis with retry and exposes healthcheck
// helpers. The flowstate package builds its verifier store on the client
// returned from here.
package redis
