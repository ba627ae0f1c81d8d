// Package config provides ingestion configuration for filereader.
//
// # File Format
//
// Configuration files are YAML. Every key is optional; missing keys keep the
// defaults of NewIngestionConfig.
//
//	name: orders
//	source:
//	  charset: windows-1252
//	  compression: auto
//	  s3_region: ${AWS_REGION}
//	format:
//	  column_delimiters: [";"]
//	  quote: '"'
//	  escape: '"'
//	  comment: "#"
//	  decimal_separator: ","
//	  thousands_separator: "."
//	  missing_pattern: "NA"
//	  has_column_header: true
//	rows:
//	  short_rows: pad
//	  uniquify_row_ids: true
//	  max_rows: 100000
//	schema:
//	  row_id_column: true
//	  columns:
//	    - name: amount
//	      type: double
//	      read_possible_values: true
//	    - name: status
//	      type: string
//	      missing_pattern: "-"
//	      possible_values: [open, closed]
//	    - name: internal_note
//	      type: string
//	      skip: true
//
// # Environment Variable Substitution
//
// ${VAR_NAME} references are replaced before parsing. Unset variables expand
// to the empty string.
//
// # Validation
//
// Validate checks separator and delimiter consistency, the short-row policy,
// the charset and compression names, and the schema (unique column names,
// non-empty types). Type availability of extension columns is not checked
// here; unavailable types degrade to string at read time.
package config
