// Package server hosts form sessions over HTTP. Each site workspace gets one
// lazily created session, mounted on the server's key bus, whose saves go to
// a workspace.Service.
package server
