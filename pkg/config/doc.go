// Package config loads annograph configuration from TOML.
//
// Every setting has a default, so a file only needs the keys it changes:
//
//	[fetch]
//	timeout = "10s"
//
//	[[classify.media]]
//	kind = "music-notation"
//	suffixes = [".mei"]
//
// Lists and tables present in the file replace the defaults wholesale. A
// file that mentions [[classify.media]] therefore has to list every media
// rule it wants, not only the new one.
//
// The classification tables are deliberately literal: a reference is a music
// notation target because its path ends in one of the configured suffixes,
// and a candidate is traversed because the probed content type is one of
// traverse_content_types. Nothing is inferred beyond those two checks.
package config
