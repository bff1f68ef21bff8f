// Package animecmd renders the anime autocomplete and details commands.
//
// It turns title cache results into autocomplete choices and detail cards,
// applying the display fallbacks (English then Romaji titles, placeholder
// score, episode count and status) and the user-facing error messages for
// titles outside the top list or lookups AniList could not answer.
package animecmd
