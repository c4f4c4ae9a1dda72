package declust

// ConfusionMatrix counts predictions against true labels for the binary
// sentiment task. Cell [t][p] counts samples of true class t predicted as p.
type ConfusionMatrix [NumClasses][NumClasses]int

// NewConfusionMatrix tallies predictions against truth. The slices must
// have equal length.
func NewConfusionMatrix(truth, predicted []int) ConfusionMatrix {
	var cm ConfusionMatrix
	for i := range truth {
		cm[truth[i]][predicted[i]]++
	}
	return cm
}

// Total returns the number of counted samples.
func (cm ConfusionMatrix) Total() int {
	var n int
	for t := range cm {
		for p := range cm[t] {
			n += cm[t][p]
		}
	}
	return n
}

// Accuracy is the fraction of correctly classified samples.
func (cm ConfusionMatrix) Accuracy() float64 {
	total := cm.Total()
	if total == 0 {
		return 0
	}
	var correct int
	for c := range cm {
		correct += cm[c][c]
	}
	return float64(correct) / float64(total)
}

// ClassAccuracy is the recall of a single class: the fraction of class-c
// samples predicted as c. Returns 0 when the class is absent.
func (cm ConfusionMatrix) ClassAccuracy(c int) float64 {
	var support int
	for p := range cm[c] {
		support += cm[c][p]
	}
	if support == 0 {
		return 0
	}
	return float64(cm[c][c]) / float64(support)
}

// Precision is the fraction of class-c predictions that were correct.
func (cm ConfusionMatrix) Precision(c int) float64 {
	var predicted int
	for t := range cm {
		predicted += cm[t][c]
	}
	if predicted == 0 {
		return 0
	}
	return float64(cm[c][c]) / float64(predicted)
}

// Recall is an alias for ClassAccuracy.
func (cm ConfusionMatrix) Recall(c int) float64 {
	return cm.ClassAccuracy(c)
}

// F1 is the harmonic mean of precision and recall for class c.
func (cm ConfusionMatrix) F1(c int) float64 {
	p := cm.Precision(c)
	r := cm.Recall(c)
	if p+r == 0 {
		return 0
	}
	return 2 * p * r / (p + r)
}

// MacroF1 averages per-class F1 scores with equal class weight.
func (cm ConfusionMatrix) MacroF1() float64 {
	var sum float64
	for c := 0; c < NumClasses; c++ {
		sum += cm.F1(c)
	}
	return sum / NumClasses
}

// WeightedF1 averages per-class F1 scores weighted by class support.
func (cm ConfusionMatrix) WeightedF1() float64 {
	total := cm.Total()
	if total == 0 {
		return 0
	}
	var sum float64
	for c := 0; c < NumClasses; c++ {
		sum += cm.F1(c) * float64(cm.Support(c))
	}
	return sum / float64(total)
}

// Support returns the number of true samples of class c.
func (cm ConfusionMatrix) Support(c int) int {
	var n int
	for p := range cm[c] {
		n += cm[c][p]
	}
	return n
}
