// Package graph provides the HTTP plumbing for Microsoft Graph API calls.
//
// This package provides:
//   - An authenticated client with request tagging and rate limiting
//   - Cursor-based pagination over @odata.nextLink responses
//   - Throttle handling for 429 responses
//   - Error mapping for Microsoft Graph status codes
//
// # Pagination
//
// Graph list endpoints return results in pages. Each page carries a "value"
// array and, while more results remain, an "@odata.nextLink" URL that is
// already fully authorized and query-complete. Pager follows these links
// until a response carries no further link.
//
// # Throttling
//
// Microsoft Graph throttles aggressively on tenant-wide queries such as
// audit-log searches. A 429 response is retried a fixed number of times
// with a linearly increasing delay; once the budget is exhausted the pages
// fetched so far are returned together with ErrRateLimitExceeded so callers
// can distinguish a partial result from a complete one.
package graph
