// Package dataprocessing implements the sales ingestion pipeline: CSV/XLSX
// tokenization with header normalization, alias-based column resolution,
// locale-heuristic type coercion, aggregation and faceted filtering.
//
// The pipeline runs in a fixed order per load:
//
//	raw text → Tokenize → MapColumns (first record) → NormalizeRows
//	         → {BuildFacets, FilterRows, GroupSum/ComputeKpis}
//
// Only two conditions abort a load: zero data lines and an unresolvable
// required column. Everything else degrades per cell, never per row.
package dataprocessing
