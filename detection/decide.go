package detection

import "github.com/chewxy/math32"

// Decide converts one raw detection into an accept/reject decision.
//
// The decision is decoupled into two stages. Stage one checks objectness
// against cfg.ObjectnessThreshold: a detection below it is discarded
// entirely and never becomes a ClassDecision (ok == false). Stage two
// normalizes the class scores to a probability distribution, picks the
// arg-max class, and checks its probability against that class's
// threshold from the table (falling back to cfg.DefaultThreshold for
// classes without an entry).
//
// Detectors that expose only a single best class instead of a full score
// vector leave ClassScores empty; the objectness then stands in for the
// class confidence and still passes through the same per-class threshold
// check.
//
// Arguments:
//   - det: The raw detection to decide.
//   - cfg: The acceptance policy to apply.
//
// Returns:
//   - ClassDecision: The decision, valid only when ok is true.
//   - bool: False when the detection was discarded by the objectness gate.
//   - error: A *ShapeError when the detection is malformed.
func Decide(det RawDetection, cfg Config) (ClassDecision, bool, error) {
	if !det.Box.Valid() {
		return ClassDecision{}, false, errBadBox(det.Box)
	}
	if len(det.ClassScores) != 0 && len(det.ClassScores) != len(cfg.Classes) {
		return ClassDecision{}, false, errScoreCount(len(cfg.Classes), len(det.ClassScores))
	}

	if det.Objectness < cfg.ObjectnessThreshold {
		return ClassDecision{}, false, nil
	}

	var classID int
	var confidence float32
	if len(det.ClassScores) > 0 {
		probs := softmax(det.ClassScores)
		classID = argmax(probs)
		confidence = probs[classID]
	} else {
		classID = det.ClassID
		confidence = det.Objectness
	}

	className := cfg.ClassName(classID)
	threshold, _ := cfg.ThresholdFor(className)

	return ClassDecision{
		Box:           det.Box,
		ClassID:       classID,
		ClassName:     className,
		Objectness:    det.Objectness,
		Confidence:    confidence,
		ThresholdUsed: threshold,
		Accepted:      confidence >= threshold,
	}, true, nil
}

// DecideAll runs Decide over a detector's full output for one image.
// Malformed detections are dropped and returned as errors alongside the
// decisions; they never abort the remaining detections.
func DecideAll(dets []RawDetection, cfg Config) ([]ClassDecision, []error) {
	decisions := make([]ClassDecision, 0, len(dets))
	var errs []error

	for _, det := range dets {
		decision, ok, err := Decide(det, cfg)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if !ok {
			continue
		}
		decisions = append(decisions, decision)
	}
	return decisions, errs
}

// Accepted filters a decision list down to the accepted ones.
func Accepted(decisions []ClassDecision) []ClassDecision {
	out := make([]ClassDecision, 0, len(decisions))
	for _, d := range decisions {
		if d.Accepted {
			out = append(out, d)
		}
	}
	return out
}

// softmax normalizes raw scores into a probability distribution. The max
// score is subtracted before exponentiating to keep the exponentials in
// range.
func softmax(scores []float32) []float32 {
	maxScore := scores[0]
	for _, s := range scores[1:] {
		if s > maxScore {
			maxScore = s
		}
	}

	probs := make([]float32, len(scores))
	var sum float32
	for i, s := range scores {
		probs[i] = math32.Exp(s - maxScore)
		sum += probs[i]
	}
	for i := range probs {
		probs[i] /= sum
	}
	return probs
}

func argmax(vals []float32) int {
	best := 0
	for i, v := range vals {
		if v > vals[best] {
			best = i
		}
	}
	return best
}
