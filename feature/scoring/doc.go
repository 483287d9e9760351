// Package scoring provides ScoreFunction implementations for the refresh
// pipeline.
//
// The production scorer runs a Lua script: the configured global receives the
// character blob as a table and returns score and damage. Damage may be a
// number or a string with thousands separators.
//
//	function score(char)
//	  return 187.5, "12,345"
//	end
//
// A single Lua state is shared and guarded by a mutex, so scoring calls are
// serialized.
package scoring
