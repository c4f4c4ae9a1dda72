package declust

import "fmt"

// ComputeClassWeights returns inverse-frequency balancing weights for a
// binary label set: weight[c] = total / (NumClasses * count[c]). With a
// balanced label set both weights are 1; a minority class is weighted up
// proportionally. A class with zero samples is an explicit error rather
// than an infinite weight.
func ComputeClassWeights(labels []int) ([]float32, error) {
	counts := make([]int, NumClasses)
	for i, l := range labels {
		if l < 0 || l >= NumClasses {
			return nil, fmt.Errorf("%w: label %d at index %d", ErrInvalidInput, l, i)
		}
		counts[l]++
	}

	weights := make([]float32, NumClasses)
	total := float32(len(labels))
	for c, count := range counts {
		if count == 0 {
			return nil, fmt.Errorf("%w: class %d (%s)", ErrEmptyClass, c, ClassNames[c])
		}
		weights[c] = total / (NumClasses * float32(count))
	}

	return weights, nil
}
