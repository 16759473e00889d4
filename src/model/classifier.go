package model

// Classifier is the binary stress model. Predict returns 1 when the row is
// confirmed high stress, 0 otherwise. Implementations are constructed once
// at startup and are read-only afterwards.
type Classifier interface {
	Predict(features []float32) (int, error)
}
