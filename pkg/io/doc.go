// Package io reads flat hierarchy records and writes indexed nested sets.
//
// # Overview
//
// This package is the boundary between files or streams and the
// [nestedset] core. Readers produce an ordered []nestedset.Node; writers
// consume an indexed one. Record order is preserved in both directions since
// it determines sibling order in the nested set.
//
// # Formats
//
// Input and output support CSV, TSV, JSON and YAML. Output additionally
// supports "table", a human-readable grid. [FormatFromPath] infers a format
// from a file extension.
//
// # Input Records
//
// CSV and TSV input needs a header row. Columns are matched by name:
//
//	id,label,parent,leaf
//	Clothing,Clothing,,
//	Men's,Men's,Clothing,
//	Suits,Suits,Men's,true
//
// Required:
//   - id: node identity
//   - label: display text
//
// Optional:
//   - parent: parent identity; empty or null marks the root
//   - leaf: boolean; empty or absent means false
//
// JSON and YAML input is a list of objects with the same keys:
//
//	[
//	  {"id": "Clothing", "label": "Clothing", "parent": null},
//	  {"id": "Men's", "label": "Men's", "parent": "Clothing", "leaf": false}
//	]
//
// A malformed record is an error naming its row; records are never skipped.
//
// # Output Records
//
// Output fields, in order:
//
//	pid, classification, classification_label, classification_origin,
//	classification_parent, parent_id, leaf, lft, rgt, count
//
// Absent values (the root's parent, the origin of nodes that were not
// copied) are empty cells in CSV/TSV and null in JSON/YAML.
//
// [nestedset]: github.com/matzehuels/nestree/pkg/nestedset
package io
