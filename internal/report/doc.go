// Finsegment - Customer Segmentation and Product Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/finsegment

/*
Package report renders training and evaluation reports as xlsx workbooks.

Every workbook has the same layout:

	Summary              run or evaluation fields plus cluster quality scores
	Clusters             size and share of each segment
	Classifiers          accuracy and weighted precision/recall/F1 per category
	Classes              one-vs-rest scores per label
	Confusion <category> true labels down, predicted labels across

Cell values keep their numeric types so spreadsheets can chart them directly.
*/
package report
