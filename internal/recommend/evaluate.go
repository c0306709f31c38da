// Finsegment - Customer Segmentation and Product Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/finsegment

package recommend

import "fmt"

// ClassMetrics are the one-vs-rest scores for a single label.
type ClassMetrics struct {
	Label     string  `json:"label"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Support   int     `json:"support"`
}

// CategoryMetrics are the held-out classification scores for one category.
// Precision, Recall and F1 are support-weighted averages; a class with no
// predictions or no support contributes 0 rather than NaN.
type CategoryMetrics struct {
	Category  string         `json:"category"`
	Accuracy  float64        `json:"accuracy"`
	Precision float64        `json:"precision"`
	Recall    float64        `json:"recall"`
	F1        float64        `json:"f1"`
	Support   int            `json:"support"`
	Classes   []ClassMetrics `json:"classes"`

	// Confusion[i][j] counts rows with true label i predicted as j.
	Confusion [][]int `json:"confusion_matrix"`
}

// ClusterMetrics describe segmentation quality.
type ClusterMetrics struct {
	K                int     `json:"k"`
	Inertia          float64 `json:"inertia"`
	Silhouette       float64 `json:"silhouette"`
	DaviesBouldin    float64 `json:"davies_bouldin"`
	CalinskiHarabasz float64 `json:"calinski_harabasz"`
	Sizes            []int   `json:"sizes"`
	Iterations       int     `json:"iterations"`
}

// EvaluateCategory scores predictions against the true labels of c.
func EvaluateCategory(c Category, yTrue, yPred []int) (CategoryMetrics, error) {
	if len(yTrue) != len(yPred) {
		return CategoryMetrics{}, fmt.Errorf("evaluate %s: %d labels but %d predictions", c, len(yTrue), len(yPred))
	}
	n := c.NumLabels()
	confusion := make([][]int, n)
	for i := range confusion {
		confusion[i] = make([]int, n)
	}

	correct := 0
	for i := range yTrue {
		t, p := yTrue[i], yPred[i]
		if t < 0 || t >= n || p < 0 || p >= n {
			return CategoryMetrics{}, fmt.Errorf("evaluate %s: label pair (%d, %d) outside [0,%d)", c, t, p, n)
		}
		confusion[t][p]++
		if t == p {
			correct++
		}
	}

	m := CategoryMetrics{
		Category:  c.String(),
		Support:   len(yTrue),
		Classes:   make([]ClassMetrics, n),
		Confusion: confusion,
	}
	if len(yTrue) > 0 {
		m.Accuracy = float64(correct) / float64(len(yTrue))
	}

	for k := 0; k < n; k++ {
		tp := confusion[k][k]
		predicted, support := 0, 0
		for j := 0; j < n; j++ {
			predicted += confusion[j][k]
			support += confusion[k][j]
		}
		cm := ClassMetrics{Label: c.Label(k), Support: support}
		cm.Precision = safeDiv(float64(tp), float64(predicted))
		cm.Recall = safeDiv(float64(tp), float64(support))
		cm.F1 = safeDiv(2*cm.Precision*cm.Recall, cm.Precision+cm.Recall)
		m.Classes[k] = cm

		if len(yTrue) > 0 {
			w := float64(support) / float64(len(yTrue))
			m.Precision += w * cm.Precision
			m.Recall += w * cm.Recall
			m.F1 += w * cm.F1
		}
	}
	return m, nil
}

func safeDiv(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}
