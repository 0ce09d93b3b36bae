package scoring

// WeightSettings exposes the scoring weight tables for the config API.
type WeightSettings struct {
	TopLevel     map[string]float64 `json:"top_level"`
	DomainTrust  map[string]float64 `json:"domain_trust"`
	AIAnalysis   map[string]float64 `json:"ai_analysis"`
	OtherFactors map[string]float64 `json:"other_factors"`
}

// ThresholdSettings maps each threat level to its score band.
type ThresholdSettings struct {
	Safe   string `json:"SAFE"`
	Low    string `json:"LOW"`
	Medium string `json:"MEDIUM"`
	High   string `json:"HIGH"`
}

// Settings is the full scoring configuration, served read-only.
type Settings struct {
	Weights    WeightSettings    `json:"weights"`
	Thresholds ThresholdSettings `json:"thresholds"`
}

// CurrentSettings reports the weights and bands in effect.
func CurrentSettings() Settings {
	return Settings{
		Weights: WeightSettings{
			TopLevel: map[string]float64{
				"domain_trust":  weightDomainTrust,
				"ai_analysis":   weightAIAnalysis,
				"other_factors": weightOtherFactors,
			},
			DomainTrust: map[string]float64{
				"domain_age":   weightDomainAge,
				"certificate":  weightCertificate,
				"registration": weightRegistration,
				"dns_posture":  weightDNSPosture,
				"reputation":   weightReputation,
			},
			AIAnalysis: map[string]float64{
				"abuse_detection":      weightAbuse,
				"copyright_risk":       weightCopyright,
				"commercial_use":       weightCommercial,
				"content_modification": weightModification,
			},
			OtherFactors: map[string]float64{
				"search_ranking":     weightSearchRank,
				"content_similarity": weightSimilarity,
				"update_recency":     weightRecency,
				"traffic_rank":       weightTraffic,
				"social_shares":      weightSocial,
			},
		},
		Thresholds: ThresholdSettings{
			Safe:   "0-39",
			Low:    "40-59",
			Medium: "60-79",
			High:   "80-100",
		},
	}
}
