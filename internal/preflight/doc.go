// Package preflight provides readiness checks for the filesystem paths and
// the AniList endpoint animebot depends on.
//
// These checks run in two contexts:
//   - The daemon calls RunAll at startup and logs failures. A failing AniList
//     check does not stop startup because the title cache retries on demand.
//   - The CLI "animebot status" command renders the results as a table.
package preflight
