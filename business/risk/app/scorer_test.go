package app

import (
	"math"
	"testing"

	"github.com/fd1az/arbeval/business/risk/domain"
)

func confPtr(f float64) *float64 { return &f }

func TestScorer_Score(t *testing.T) {
	scorer := NewScorer(DefaultThresholds())

	tests := []struct {
		name         string
		in           Inputs
		wantScore    float64
		wantLevel    domain.Level
		wantApproved bool
		wantFactors  int
	}{
		{
			name: "clean_trade_low_risk",
			in: Inputs{
				WorstSlippagePct:     0.5,
				GasPriceGwei:         40,
				LiquidityUSD:         500_000,
				EstimatedExecutionMs: 800,
				Confidence:           confPtr(0.95),
			},
			wantScore:    0,
			wantLevel:    domain.LevelLow,
			wantApproved: true,
			wantFactors:  0,
		},
		{
			name: "single_moderate_slippage_breach",
			in: Inputs{
				WorstSlippagePct: 2.5, // above 2, below 3 (severe at 1.5x)
				GasPriceGwei:     40,
				LiquidityUSD:     500_000,
				Confidence:       confPtr(0.95),
			},
			wantScore:    0.2,
			wantLevel:    domain.LevelLow,
			wantApproved: true,
			wantFactors:  1,
		},
		{
			name: "everything_bad_at_once",
			in: Inputs{
				WorstSlippagePct: 3.5, // >= 1.5x threshold => severe 0.3
				GasPriceGwei:     180, // 0.2
				LiquidityUSD:     4_000, // 0.25
				Confidence:       confPtr(0.3), // 0.15
			},
			wantScore:    0.90,
			wantLevel:    domain.LevelHigh,
			wantApproved: false,
			wantFactors:  4,
		},
		{
			name: "two_factors_medium_still_approved",
			in: Inputs{
				WorstSlippagePct: 2.5, // 0.2
				GasPriceGwei:     150, // 0.2
				LiquidityUSD:     500_000,
				Confidence:       confPtr(0.95),
			},
			wantScore:    0.4,
			wantLevel:    domain.LevelMedium,
			wantApproved: true,
			wantFactors:  2,
		},
		{
			name: "three_factors_rejected_despite_medium_score",
			in: Inputs{
				WorstSlippagePct:     2.5, // 0.2
				GasPriceGwei:         150, // 0.2
				EstimatedExecutionMs: 5_000, // 0.1
				LiquidityUSD:         500_000,
				Confidence:           confPtr(0.95),
			},
			wantScore:    0.5,
			wantLevel:    domain.LevelMedium,
			wantApproved: false,
			wantFactors:  3,
		},
		{
			name: "unknown_liquidity_not_penalized",
			in: Inputs{
				WorstSlippagePct: 0.5,
				GasPriceGwei:     40,
				LiquidityUSD:     0,
				Confidence:       confPtr(0.95),
			},
			wantScore:    0,
			wantLevel:    domain.LevelLow,
			wantApproved: true,
			wantFactors:  0,
		},
		{
			name: "unreported_confidence_penalized_as_zero",
			in: Inputs{
				WorstSlippagePct: 0.5,
				GasPriceGwei:     40,
				LiquidityUSD:     500_000,
				Confidence:       nil,
			},
			wantScore:    0.15,
			wantLevel:    domain.LevelLow,
			wantApproved: true,
			wantFactors:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := scorer.Score(tt.in)

			if math.Abs(a.Score-tt.wantScore) > 1e-9 {
				t.Errorf("Score = %v, want %v", a.Score, tt.wantScore)
			}
			if a.Level != tt.wantLevel {
				t.Errorf("Level = %v, want %v", a.Level, tt.wantLevel)
			}
			if a.Approved != tt.wantApproved {
				t.Errorf("Approved = %v, want %v", a.Approved, tt.wantApproved)
			}
			if len(a.Factors) != tt.wantFactors {
				t.Errorf("len(Factors) = %d, want %d: %+v", len(a.Factors), tt.wantFactors, a.Factors)
			}
			if len(a.Recommendations) == 0 {
				t.Error("Recommendations must never be empty")
			}
			if tt.wantFactors == 0 && a.Recommendations[0] != "safe to execute" {
				t.Errorf("clean trade recommendation = %q, want all-clear", a.Recommendations[0])
			}
			if tt.wantFactors > 0 && len(a.Recommendations) != tt.wantFactors {
				t.Errorf("len(Recommendations) = %d, want one per factor (%d)",
					len(a.Recommendations), tt.wantFactors)
			}
		})
	}
}

func TestScorer_MissingConfidenceIsConservative(t *testing.T) {
	scorer := NewScorer(DefaultThresholds())

	in := Inputs{
		WorstSlippagePct: 0.5,
		GasPriceGwei:     40,
		LiquidityUSD:     500_000,
	}

	missing := scorer.Score(in)
	if missing.Score < penaltyConfidence {
		t.Errorf("missing confidence score = %v, want at least the confidence penalty %v",
			missing.Score, penaltyConfidence)
	}
	if !missing.HasFactor(domain.FactorConfidence) {
		t.Fatal("missing confidence must record the confidence factor")
	}
	for _, f := range missing.Factors {
		if f.Category == domain.FactorConfidence && f.Detail != "confidence unreported" {
			t.Errorf("factor detail = %q, want it to name the unreported signal", f.Detail)
		}
	}

	// Reporting any passing confidence must never score worse than
	// reporting none at all.
	in.Confidence = confPtr(0.95)
	reported := scorer.Score(in)
	if reported.Score > missing.Score {
		t.Errorf("reported confidence score %v exceeds missing-confidence score %v",
			reported.Score, missing.Score)
	}
}

func TestScorer_ScoreBounds(t *testing.T) {
	scorer := NewScorer(DefaultThresholds())

	a := scorer.Score(Inputs{
		WorstSlippagePct:     50,
		GasPriceGwei:         10_000,
		LiquidityUSD:         1,
		EstimatedExecutionMs: 60_000,
		Confidence:           confPtr(0),
		ExternalScore:        confPtr(1),
		Stale:                true,
	})

	if a.Score < 0 || a.Score > 1 {
		t.Errorf("Score = %v, want within [0, 1]", a.Score)
	}
	if a.Level != domain.LevelHigh {
		t.Errorf("Level = %v, want HIGH", a.Level)
	}
	if a.Approved {
		t.Error("worst case must not be approved")
	}
}

func TestScorer_ExternalScoreAveraged(t *testing.T) {
	scorer := NewScorer(DefaultThresholds())

	in := Inputs{
		WorstSlippagePct: 2.5, // internal 0.2
		LiquidityUSD:     500_000,
		Confidence:       confPtr(0.95),
	}

	without := scorer.Score(in)
	if math.Abs(without.Score-0.2) > 1e-9 {
		t.Fatalf("internal score = %v, want 0.2", without.Score)
	}

	in.ExternalScore = confPtr(0.8)
	with := scorer.Score(in)
	if math.Abs(with.Score-0.5) > 1e-9 {
		t.Errorf("averaged score = %v, want (0.2+0.8)/2 = 0.5", with.Score)
	}

	// A higher external score can only raise the blend.
	in.ExternalScore = confPtr(1.0)
	higher := scorer.Score(in)
	if higher.Score <= with.Score {
		t.Errorf("score with worse external signal = %v, want > %v", higher.Score, with.Score)
	}
}

func TestScorer_StaleDataFloorsHigh(t *testing.T) {
	scorer := NewScorer(DefaultThresholds())

	a := scorer.Score(Inputs{
		WorstSlippagePct: 0.5,
		GasPriceGwei:     40,
		LiquidityUSD:     500_000,
		Confidence:       confPtr(0.95),
		Stale:            true,
	})

	if a.Score < 0.6 {
		t.Errorf("stale score = %v, want at least 0.6", a.Score)
	}
	if a.Level != domain.LevelHigh {
		t.Errorf("Level = %v, want HIGH for stale data", a.Level)
	}
	if a.Approved {
		t.Error("stale data must not be approved")
	}
	if !a.HasFactor(domain.FactorStaleData) {
		t.Error("stale factor should be recorded")
	}
}

func TestThresholds_Normalize(t *testing.T) {
	got := Thresholds{MaxSlippagePct: 5}.Normalize()

	if got.MaxSlippagePct != 5 {
		t.Errorf("explicit MaxSlippagePct overwritten: %v", got.MaxSlippagePct)
	}
	d := DefaultThresholds()
	if got.MaxGasGwei != d.MaxGasGwei || got.ApproveScore != d.ApproveScore || got.MaxFactors != d.MaxFactors {
		t.Errorf("zero fields not defaulted: %+v", got)
	}
}

func BenchmarkScore(b *testing.B) {
	scorer := NewScorer(DefaultThresholds())
	in := Inputs{
		WorstSlippagePct:     2.5,
		GasPriceGwei:         120,
		LiquidityUSD:         50_000,
		EstimatedExecutionMs: 1_500,
		Confidence:           confPtr(0.8),
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		scorer.Score(in)
	}
}
