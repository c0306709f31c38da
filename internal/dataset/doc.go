// Finsegment - Customer Segmentation and Product Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/finsegment

/*
Package dataset reads, writes and synthesizes labelled training data.

Files are CSV or Parquet, read and written through an in-memory DuckDB
instance. Each row holds the ten numeric profile columns, the employment
status (text, or its ordinal code in an employment_type column), an optional
existing_products list, and one target_<category> column per product
category. Target values may be label text or the label index.

Rows with a missing, unparseable or out-of-range field are not rejected by
the loader. They are returned with TrainingRow.Missing set so the trainer can
apply its drop-rate limit.

The Generator produces reproducible synthetic customers whose labels follow
fixed income, age, saving and borrowing rules, so a freshly trained bundle has
structure to learn.
*/
package dataset
