// Package services implements clients for the Apple Music API.
//
// [AppleMusicService] is the concrete [ActivityProvider]: it fetches a user's
// recently played tracks, resolves full catalog metadata (genre names are only
// present on catalog resources, not on history entries), and converts the
// responses into [models.TrackActivity] values for the taste engine.
//
// [DeveloperTokenSource] generates the ES256-signed developer JWT every Apple
// Music request carries. User-level access additionally requires a
// Music-User-Token header, resolved per request through a [UserTokenFunc].
//
// All outbound requests share a rate limiter so bulk resyncs stay inside the
// API's request budget.
package services
