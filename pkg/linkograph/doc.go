// Package linkograph implements fuzzy linkography: a link structure between
// the moves of a design or ideation session derived from the cosine similarity
// of their embeddings, together with the statistics computed over it.
//
// The pipeline runs in a fixed order over a closed sequence of moves:
//
//	BuildLinks      similarity of every move against every earlier move
//	ComputeWeights  thresholded, rescaled per-move backlink/forelink weights,
//	                link density and critical moves
//	ComputeEntropy  binary entropy per move and direction, plus horizon entropy
//	AnalyzeActors   link density by ordered actor pair, excluding copies
//
// Analyze runs all of them and returns a new annotated Graph; the input graph
// is never modified. Every stage takes an explicit Config, so graphs with
// different thresholds can be analyzed side by side (see AnalyzeAll).
//
// A score below Config.MinLinkStrength counts as "no link". Surviving scores
// are rescaled from [MinLinkStrength, 1] onto [0, 1] before they are summed;
// TotalLinkWeight is the one weighting primitive every statistic is built on.
package linkograph
