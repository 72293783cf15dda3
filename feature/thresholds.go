package feature

// Step 是分段打分的一档：值不超过 UpTo 时得 Score。
type Step struct {
	UpTo  float64 `yaml:"up_to" json:"up_to"`
	Score float64 `yaml:"score" json:"score"`
}

// RatioStep 是按下限分档：比值不低于 AtLeast 时得 Score。
type RatioStep struct {
	AtLeast float64 `yaml:"at_least" json:"at_least"`
	Score   float64 `yaml:"score" json:"score"`
}

// Thresholds 是所有分段打分的阈值与分值，零值不可用，使用 DefaultThresholds。
type Thresholds struct {
	SpeciesExact     float64 `yaml:"species_exact"`
	SpeciesRelated   float64 `yaml:"species_related"`
	SpeciesUnrelated float64 `yaml:"species_unrelated"`
	SpeciesUnknown   float64 `yaml:"species_unknown"` // 卖家未声明专营品类

	QuantityZero      float64 `yaml:"quantity_zero"`
	QuantityWithinAvg float64 `yaml:"quantity_within_avg"`
	QuantityWithinMax float64 `yaml:"quantity_within_max"`
	QuantityWithin2x  float64 `yaml:"quantity_within_2x"`
	QuantityOver      float64 `yaml:"quantity_over"`

	PriceSteps   []RatioStep `yaml:"price_steps"` // 按 AtLeast 降序
	PriceBelow   float64     `yaml:"price_below"`
	PriceNeutral float64     `yaml:"price_neutral"` // 无目标价或无市场价

	FreshnessSteps   []Step  `yaml:"freshness_steps"` // 需求年龄（小时），按 UpTo 升序
	FreshnessStale   float64 `yaml:"freshness_stale"`
	FreshnessUnknown float64 `yaml:"freshness_unknown"`

	DeadlineExpired float64 `yaml:"deadline_expired"`
	DeadlineSteps   []Step  `yaml:"deadline_steps"` // 距截止（小时），按 UpTo 升序
	DeadlineFar     float64 `yaml:"deadline_far"`
	DeadlineNone    float64 `yaml:"deadline_none"`

	// 卖家历史综合分的参考销量，达到即满分
	SalesSaturation float64 `yaml:"sales_saturation"`
}

// DefaultThresholds 返回默认阈值。
func DefaultThresholds() Thresholds {
	return Thresholds{
		SpeciesExact:     1.0,
		SpeciesRelated:   0.8,
		SpeciesUnrelated: 0.2,
		SpeciesUnknown:   0.5,

		QuantityZero:      0.0,
		QuantityWithinAvg: 1.0,
		QuantityWithinMax: 0.8,
		QuantityWithin2x:  0.6,
		QuantityOver:      0.3,

		PriceSteps: []RatioStep{
			{AtLeast: 1.2, Score: 1.0},
			{AtLeast: 1.0, Score: 0.9},
			{AtLeast: 0.8, Score: 0.6},
		},
		PriceBelow:   0.3,
		PriceNeutral: 0.7,

		FreshnessSteps: []Step{
			{UpTo: 1, Score: 1.0},
			{UpTo: 6, Score: 0.9},
			{UpTo: 24, Score: 0.7},
			{UpTo: 72, Score: 0.5},
		},
		FreshnessStale:   0.3,
		FreshnessUnknown: 0.5,

		DeadlineExpired: 0.0,
		DeadlineSteps: []Step{
			{UpTo: 24, Score: 1.0},
			{UpTo: 72, Score: 0.8},
			{UpTo: 168, Score: 0.6},
		},
		DeadlineFar:  0.4,
		DeadlineNone: 0.5,

		SalesSaturation: 100,
	}
}

// Merge 用 o 中的非零项覆盖 t，返回新值；切片非空时整体替换。
func (t Thresholds) Merge(o Thresholds) Thresholds {
	set := func(dst *float64, v float64) {
		if v != 0 {
			*dst = v
		}
	}
	set(&t.SpeciesExact, o.SpeciesExact)
	set(&t.SpeciesRelated, o.SpeciesRelated)
	set(&t.SpeciesUnrelated, o.SpeciesUnrelated)
	set(&t.SpeciesUnknown, o.SpeciesUnknown)
	set(&t.QuantityZero, o.QuantityZero)
	set(&t.QuantityWithinAvg, o.QuantityWithinAvg)
	set(&t.QuantityWithinMax, o.QuantityWithinMax)
	set(&t.QuantityWithin2x, o.QuantityWithin2x)
	set(&t.QuantityOver, o.QuantityOver)
	set(&t.PriceBelow, o.PriceBelow)
	set(&t.PriceNeutral, o.PriceNeutral)
	set(&t.FreshnessStale, o.FreshnessStale)
	set(&t.FreshnessUnknown, o.FreshnessUnknown)
	set(&t.DeadlineExpired, o.DeadlineExpired)
	set(&t.DeadlineFar, o.DeadlineFar)
	set(&t.DeadlineNone, o.DeadlineNone)
	set(&t.SalesSaturation, o.SalesSaturation)
	if len(o.PriceSteps) > 0 {
		t.PriceSteps = o.PriceSteps
	}
	if len(o.FreshnessSteps) > 0 {
		t.FreshnessSteps = o.FreshnessSteps
	}
	if len(o.DeadlineSteps) > 0 {
		t.DeadlineSteps = o.DeadlineSteps
	}
	return t
}

func stepUpTo(v float64, steps []Step, otherwise float64) float64 {
	for _, s := range steps {
		if v <= s.UpTo {
			return s.Score
		}
	}
	return otherwise
}

func stepAtLeast(v float64, steps []RatioStep, otherwise float64) float64 {
	for _, s := range steps {
		if v >= s.AtLeast {
			return s.Score
		}
	}
	return otherwise
}
