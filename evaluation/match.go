package evaluation

import (
	"sort"

	"github.com/cytoscreen/go-screening/images"
)

// ScoredHit is the matching outcome for one prediction: whether it was a
// true positive at the evaluated IoU threshold, keyed by its confidence
// so AP sweeps can re-sort pooled hits across a batch.
type ScoredHit struct {
	ClassID int
	Score   float32
	TP      bool
}

// MatchCounts accumulates true positives, false positives and false
// negatives for one class.
type MatchCounts struct {
	TP int `json:"tp"`
	FP int `json:"fp"`
	FN int `json:"fn"`
}

// ImageMatch is the result of matching one image's predictions against
// its ground truth.
type ImageMatch struct {
	// Hits holds one outcome per prediction in confidence-descending
	// order.
	Hits []ScoredHit
	// Counts holds per-class tp/fp/fn for this image.
	Counts map[int]*MatchCounts
	// GTCount holds the number of ground-truth boxes per class.
	GTCount map[int]int
}

// MatchImage performs greedy, confidence-first, one-to-one matching of
// predictions to ground-truth boxes for a single image.
//
// Predictions are visited in confidence-descending order. Each one is
// compared by IoU against every still-unclaimed ground-truth box of the
// same class; the single highest-IoU candidate wins. If that best IoU
// reaches iouThreshold the prediction is a true positive and the box is
// claimed (never reused); otherwise it is a false positive. Ground-truth
// boxes left unclaimed at the end are false negatives. Ties in IoU are
// broken by ground-truth iteration order: first found wins.
//
// The claimed set is scoped to this call and this image; matching is
// sequential by design, since each decision depends on which boxes are
// already claimed.
func MatchImage(preds []Prediction, gts []GroundTruth, iouThreshold float64) ImageMatch {
	m := ImageMatch{
		Hits:    make([]ScoredHit, 0, len(preds)),
		Counts:  make(map[int]*MatchCounts),
		GTCount: make(map[int]int),
	}
	for _, gt := range gts {
		m.GTCount[gt.ClassID]++
	}

	order := make([]int, len(preds))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return preds[order[a]].Score > preds[order[b]].Score
	})

	claimed := make([]bool, len(gts))

	for _, idx := range order {
		pred := preds[idx]

		bestIoU := 0.0
		bestGT := -1
		for gtIdx, gt := range gts {
			if claimed[gtIdx] || gt.ClassID != pred.ClassID {
				continue
			}
			iou := images.CalculateIoU(pred.Box, gt.Box)
			if iou > bestIoU {
				bestIoU = iou
				bestGT = gtIdx
			}
		}

		tp := bestIoU >= iouThreshold && bestGT != -1
		if tp {
			claimed[bestGT] = true
		}

		m.Hits = append(m.Hits, ScoredHit{ClassID: pred.ClassID, Score: pred.Score, TP: tp})
		m.countsFor(pred.ClassID).record(tp)
	}

	for gtIdx, gt := range gts {
		if !claimed[gtIdx] {
			m.countsFor(gt.ClassID).FN++
		}
	}

	return m
}

func (m *ImageMatch) countsFor(classID int) *MatchCounts {
	c, ok := m.Counts[classID]
	if !ok {
		c = &MatchCounts{}
		m.Counts[classID] = c
	}
	return c
}

func (c *MatchCounts) record(tp bool) {
	if tp {
		c.TP++
	} else {
		c.FP++
	}
}

// Merge folds another counter into this one. The fold is commutative and
// associative, so per-image counts may be merged in any order.
func (c *MatchCounts) Merge(o MatchCounts) {
	c.TP += o.TP
	c.FP += o.FP
	c.FN += o.FN
}
