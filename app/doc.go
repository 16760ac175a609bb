// Package app holds the service configuration and builds the object graph
// the entry points run. Every dependency is constructed here and passed
// down explicitly.
package app
