// Package services holds the logic behind the HTTP handlers: listing and
// resolving published report documents, the report catalog, and health.
// Handlers depend on the interfaces in the transport package so services
// can be mocked in handler tests.
package services
