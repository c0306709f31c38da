// Finsegment - Customer Segmentation and Product Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/finsegment

/*
Package cli implements the finsegment operator commands.

	finsegment generate --out customers.csv --samples 800 --seed 42
	finsegment train --data customers.csv --report training.xlsx
	finsegment evaluate --data holdout.parquet --version 3 --report eval.xlsx
	finsegment models
	finsegment runs --limit 5
	finsegment runs 3

Every command reads the same layered configuration as the server (defaults,
YAML file, environment) and the global flags --models-dir, --runs-path and
--log-level override it. Command output goes to stdout and logs to stderr.

The run ledger is a Badger directory that admits one process at a time, so
train and runs must point --runs-path elsewhere while a server holds the
ledger open.
*/
package cli
