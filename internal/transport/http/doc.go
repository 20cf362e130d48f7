// Package http implements the HTTP surface of the admissions dashboard: the
// JSON API under /api, the server-rendered page at /, and the /ws upgrade.
//
// Handlers stay thin. They bind and validate request parameters with
// middleware.RequestValidator, call the dashboard service, and pass every
// error to errors.ErrorHandler, which renders RFC 7807 problem details:
//
//	{
//	    "type": "/errors/data/unavailable",
//	    "title": "Data Unavailable",
//	    "status": 503,
//	    "detail": "...",
//	    "instance": "/api/dashboard",
//	    "trace_id": "..."
//	}
//
// The HTML page uses the same error mapping but renders a full error page, so
// a failed load never produces a partial dashboard.
//
// Handlers are tested with httptest against a real dataset cache built from
// fixture files.
package http
