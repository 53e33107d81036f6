// Package api provides the HTTP request/response types for the PolicyNav API.
//
// # API Overview
//
// PolicyNav exposes a RESTful API for:
//   - Policy question answering (query pipeline with intent routing)
//   - Document indexing into the vector store
//   - Conversation history inspection
//   - Policy status and recent-document lookups (Federal Register)
//   - Case-law search (CourtListener)
//   - Policy update subscriptions
//   - Health monitoring and metrics
//
// # Authentication
//
// When an API key is configured, endpoints require the X-API-Key header:
//
//	X-API-Key: your-api-key
//
// Health, version, and metrics endpoints are always open.
//
// # Base URL
//
// The default base URL for the API is:
//
//	http://localhost:8080
//
// # Response Envelope
//
// Every endpoint wraps its payload in a common envelope:
//
//	{"success": true, "data": {...}, "timestamp": "...", "request_id": "..."}
//
// Errors carry an error object instead of data:
//
//	{"success": false, "error": {"code": "INVALID_REQUEST", "message": "..."}}
package api
