// Package server provides HTTP routing, middleware, and the JSON API for the taste profile service.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method-qualified patterns,
// so path variables are read with [http.Request.PathValue].
//
// # API Handler
//
// [TasteHandler] serves the full JSON API:
//
//	GET  /api/auth/developer-token             → signed developer token for client playback/auth
//	POST /api/auth/login                       → upsert a user record from a Music-User-Token
//	POST /api/sync/{userID}                    → rebuild the user's taste profile from recent activity
//	GET  /api/users                            → list registered users
//	GET  /api/users/{userID}/profile           → stored embedding + top summary
//	GET  /api/users/{userID}/similar           → ranked similarity candidates (limit, minPercent query params)
//	GET  /api/users/{userID}/compare/{otherID} → pairwise score + common interests
//
// Handlers depend on narrow interfaces ([TasteEngine], [UserStore], [ProfileReader]) so tests
// can substitute in-memory fakes without a database or upstream service.
//
// # Error Mapping
//
// The shared error taxonomy maps onto HTTP statuses: not-found sentinels become 404,
// an empty profile becomes 409 (distinct, so clients can prompt a re-sync), invalid
// input 400, auth failures 401, upstream failures 502. Anything unrecognized is a
// logged 500.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
