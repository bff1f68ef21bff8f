// Package anilist is the small GraphQL client for the AniList API.
//
// It exposes the two queries the title cache needs: a popularity-ordered page
// listing and a single-title detail search. Requests are plain JSON POSTs with
// a bounded timeout, and each call opens an OpenTelemetry span. Options let
// tests point the client at an httptest server.
package anilist
