package model

import (
	"math"

	"github.com/rushteam/leadrank/core"
)

// TrainedScorer 用训练产物打分：标准化后送入回归树集成，结果下限为 0。
type TrainedScorer struct {
	artifact *Artifact
}

// NewTrainedScorer 校验产物后创建打分器。
func NewTrainedScorer(a *Artifact) (*TrainedScorer, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return &TrainedScorer{artifact: a}, nil
}

func (s *TrainedScorer) Name() string { return "trained" }

// Version 返回产物版本。
func (s *TrainedScorer) Version() string { return s.artifact.Metadata.Version }

func (s *TrainedScorer) Score(fv core.FeatureVector) (float64, error) {
	if !fv.Valid() {
		return 0, core.NewDomainError(core.ModuleModel, core.ErrorCodeInvalidInput, "model: non-finite feature vector")
	}
	x, err := s.artifact.Scaler.Transform(fv.Slice())
	if err != nil {
		return 0, err
	}
	y, err := s.artifact.Forest.Predict(x)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(y) || y < 0 {
		return 0, nil
	}
	return y, nil
}
