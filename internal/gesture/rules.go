package gesture

import (
	"github.com/ayusman/fingerspell/internal/detector"
)

// Alphabet is the set of letters the rule table can name. J and Z need motion and are excluded.
const Alphabet = "ABCDEFGHIKLMNOPQRSTUVWXY"

// Predicate tests one frame's keypoints and finger state.
type Predicate func(k []detector.Point3D, f FingerState) bool

// Rule pairs a predicate with the letter and base confidence it produces.
type Rule struct {
	Letter     rune
	Confidence float64
	Match      Predicate
}

// pinch is the thumb tip to index tip distance.
func pinch(k []detector.Point3D) float64 {
	return Distance(k[detector.ThumbTip], k[detector.IndexTip])
}

func between(v, lo, hi float64) bool {
	return v >= lo && v <= hi
}

// spreadAngle is the angle at the wrist between the index and middle tips.
func spreadAngle(k []detector.Point3D) float64 {
	return Angle(k[detector.IndexTip], k[detector.Wrist], k[detector.MiddleTip])
}

// Shared predicates. Several letters reuse one predicate verbatim; the
// earlier rule always wins, so the later letter is never produced.
var (
	allDown = func(k []detector.Point3D, f FingerState) bool {
		return f.only()
	}
	thumbAndIndex = func(k []detector.Point3D, f FingerState) bool {
		return f.only(Thumb, Index)
	}
	twoUpAngled = func(k []detector.Point3D, f FingerState) bool {
		return f.twoUp() && between(spreadAngle(k), 20, 80)
	}
	twoUpTogether = func(k []detector.Point3D, f FingerState) bool {
		return f.twoUp() && Distance(k[detector.IndexTip], k[detector.MiddleTip]) < 0.60
	}
)

// rules is evaluated top to bottom and the first match wins. The order is
// load-bearing: O must precede C, G must precede Q, and so on.
var rules = []Rule{
	{'O', 1.00, func(k []detector.Point3D, f FingerState) bool {
		d := pinch(k)
		return d >= 0.10 && d < 0.40
	}},
	{'C', 0.95, func(k []detector.Point3D, f FingerState) bool {
		d := pinch(k)
		return d > 0.35 && d < 0.80
	}},
	{'A', 0.98, func(k []detector.Point3D, f FingerState) bool {
		return f.only(Thumb)
	}},
	{'B', 0.95, func(k []detector.Point3D, f FingerState) bool {
		return f.only(Index, Middle, Ring, Pinky)
	}},
	{'D', 0.95, func(k []detector.Point3D, f FingerState) bool {
		return f.only(Index)
	}},
	{'E', 0.90, func(k []detector.Point3D, f FingerState) bool {
		return f.curled() && pinch(k) < 0.50
	}},
	{'F', 0.92, func(k []detector.Point3D, f FingerState) bool {
		return pinch(k) < 0.50 && f[Middle] && f[Ring] && f[Pinky]
	}},
	{'G', 0.90, thumbAndIndex},
	{'H', 0.90, func(k []detector.Point3D, f FingerState) bool {
		return f.only(Index, Middle)
	}},
	{'I', 0.95, func(k []detector.Point3D, f FingerState) bool {
		return f.only(Pinky)
	}},
	{'K', 0.88, twoUpAngled},
	{'L', 0.98, func(k []detector.Point3D, f FingerState) bool {
		return f.only(Thumb, Index) && between(Angle(k[detector.ThumbTip], k[detector.Wrist], k[detector.IndexTip]), 60, 130)
	}},
	{'M', 0.85, allDown},
	{'N', 0.85, allDown},
	{'P', 0.88, twoUpAngled},
	{'Q', 0.88, thumbAndIndex},
	{'R', 0.90, twoUpTogether},
	{'S', 0.92, func(k []detector.Point3D, f FingerState) bool {
		return f.curled() && k[detector.ThumbTip].Y < k[detector.IndexTip].Y
	}},
	{'T', 0.88, func(k []detector.Point3D, f FingerState) bool {
		y := k[detector.ThumbTip].Y
		return f.curled() && y > k[detector.IndexPIP].Y && y < k[detector.MiddlePIP].Y
	}},
	{'U', 0.92, twoUpTogether},
	{'V', 0.95, func(k []detector.Point3D, f FingerState) bool {
		return f.twoUp() && Distance(k[detector.IndexTip], k[detector.MiddleTip]) >= 0.35
	}},
	{'W', 0.92, func(k []detector.Point3D, f FingerState) bool {
		return f.only(Index, Middle, Ring)
	}},
	{'X', 0.85, func(k []detector.Point3D, f FingerState) bool {
		return f.curled() && between(Angle(k[detector.IndexTip], k[detector.IndexPIP], k[detector.IndexMCP]), 60, 130)
	}},
	{'Y', 0.95, func(k []detector.Point3D, f FingerState) bool {
		return f.only(Thumb, Pinky)
	}},
}

// Rules returns a copy of the ordered rule table.
func Rules() []Rule {
	out := make([]Rule, len(rules))
	copy(out, rules)
	return out
}

// match returns the first rule whose predicate holds.
func match(k []detector.Point3D) (Rule, bool) {
	f := FingersUp(k)
	for _, r := range rules {
		if r.Match(k, f) {
			return r, true
		}
	}
	return Rule{}, false
}
