// Package http implements the HTTP handlers of the report download server.
// Handlers stay thin: they parse the request, call a service and render the
// response, converting service errors to RFC 7807 problem documents.
//
// Routes:
//
//	GET /api/documents        list of downloadable report documents
//	GET /api/catalog          report catalog
//	GET /download/{filename}  report document download
//	GET /health               service health
package http
