package model

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/rushteam/leadrank/core"
	"github.com/rushteam/leadrank/feature"
)

// Metadata 描述一次训练的结果，随产物一起持久化。
type Metadata struct {
	Version     string             `json:"version"`
	TrainedAt   time.Time          `json:"trained_at"`
	SampleCount int                `json:"sample_count"`
	TrainSize   int                `json:"train_size"`
	TestSize    int                `json:"test_size"`
	MSE         float64            `json:"mse"`
	R2          float64            `json:"r2"`
	Importances map[string]float64 `json:"feature_importances"`
	Features    []string           `json:"features"`
	Params      ForestParams       `json:"params"`
}

// Artifact 是训练产物：标准化参数 + 回归树集成 + 元数据。
// 一经发布不再修改。
type Artifact struct {
	Scaler   *feature.StandardScaler `json:"scaler"`
	Forest   *Forest                 `json:"forest"`
	Metadata Metadata                `json:"metadata"`
}

// Validate 检查产物结构完整且与当前特征维度一致。
func (a *Artifact) Validate() error {
	switch {
	case a == nil:
		return corrupt("nil artifact")
	case a.Scaler == nil || a.Scaler.Dim() != core.FeatureDim || len(a.Scaler.Std) != core.FeatureDim:
		return corrupt("scaler dimension mismatch")
	case a.Forest == nil || len(a.Forest.Trees) == 0:
		return corrupt("empty forest")
	case a.Forest.Dim != core.FeatureDim:
		return corrupt("forest dimension mismatch")
	case a.Metadata.Version == "":
		return corrupt("missing version")
	}
	for _, t := range a.Forest.Trees {
		if t == nil || len(t.Nodes) == 0 {
			return corrupt("empty tree")
		}
	}
	return nil
}

// EncodeArtifact 序列化产物。
func EncodeArtifact(a *Artifact) ([]byte, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(a)
}

// DecodeArtifact 反序列化并校验产物。
func DecodeArtifact(data []byte) (*Artifact, error) {
	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, corrupt(fmt.Sprintf("decode: %v", err))
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return &a, nil
}

func corrupt(msg string) error {
	return core.NewDomainError(core.ModuleModel, core.ErrorCodeInvalidInput, "model: corrupt artifact: "+msg)
}
