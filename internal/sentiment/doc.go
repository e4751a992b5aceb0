// Package sentiment assigns labels to comments.
//
// A Tagger keeps a pre-computed score and maps it through two thresholds,
// falling back to a lexicon score when the export has no score column.
// The Lexicon also supplies the stopword list used by word statistics.
package sentiment
