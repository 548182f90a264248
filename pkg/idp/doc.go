// Package idp is a thin client for an external hosted identity provider
// (GoTrue-style REST API). It marshals requests and normalizes every
// provider-specific failure into the package's own error set so consumers
// observe one uniform contract; it holds no authentication logic of its own.
package idp
