// Package classifier scores unlabeled documents with a pretrained model and
// writes the predictions back through the documents service.
package classifier

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strings"
	"unicode"
)

// Model is any scorer over document text. The runner treats it as an opaque
// collaborator; models are trained offline and shipped as files.
type Model interface {
	Predict(text string) (float64, error)
}

// LinearModel is a file-backed logistic scorer: a bias plus one weight per
// token, squashed through a sigmoid.
type LinearModel struct {
	Bias    float64            `json:"bias"`
	Weights map[string]float64 `json:"weights"`
}

// LoadModel reads a serialized LinearModel from disk
func LoadModel(path string) (*LinearModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model %s: %w", path, err)
	}

	var model LinearModel
	if err := json.Unmarshal(data, &model); err != nil {
		return nil, fmt.Errorf("failed to decode model %s: %w", path, err)
	}
	if model.Weights == nil {
		return nil, fmt.Errorf("model %s has no weights", path)
	}
	return &model, nil
}

// Predict scores a piece of text in [0, 1]
func (m *LinearModel) Predict(text string) (float64, error) {
	score := m.Bias
	for _, token := range tokenize(text) {
		score += m.Weights[token]
	}
	return 1.0 / (1.0 + math.Exp(-score)), nil
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}
