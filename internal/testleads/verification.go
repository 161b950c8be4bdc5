package testleads

import (
	"fmt"
	"log"
	"sort"
)

// Known prediction labels.
var knownLabels = map[string]bool{
	"Ganho Provável":  true,
	"Potencial Médio": true,
	"Perda Provável":  true,
}

// verifyPrediction checks a single response against the public contract.
func verifyPrediction(p Prediction) error {
	if p.Probability < 0 || p.Probability > 1 {
		return fmt.Errorf("probability %.6f outside [0, 1]", p.Probability)
	}
	if !knownLabels[p.Label] {
		return fmt.Errorf("unknown prediction label %q", p.Label)
	}
	return nil
}

// displayLabelDistribution prints how predictions landed across the buckets.
func displayLabelDistribution(stats *Stats) {
	if len(stats.LabelCounts) == 0 {
		log.Println("⚠️  No successful predictions to summarize")
		return
	}

	labels := make([]string, 0, len(stats.LabelCounts))
	for label := range stats.LabelCounts {
		labels = append(labels, label)
	}
	sort.Slice(labels, func(i, j int) bool {
		return stats.LabelCounts[labels[i]] > stats.LabelCounts[labels[j]]
	})

	log.Println("🏷️  Prediction label distribution:")
	for _, label := range labels {
		count := stats.LabelCounts[label]
		share := float64(count) / float64(stats.LeadsSuccessful) * PercentageMultiplier
		log.Printf("   %s: %d (%.1f%%)", label, count, share)
	}
}
