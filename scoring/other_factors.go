package scoring

import "time"

// Sub-factor weights for the other-factors component.
const (
	weightSearchRank = 0.30
	weightSimilarity = 0.25
	weightRecency    = 0.20
	weightTraffic    = 0.15
	weightSocial     = 0.10
)

// scoreOtherFactors computes the search/engagement component on the
// 0-100 risk scale. Every absent datum scores the neutral 50.
func scoreOtherFactors(search SearchEvidence, content ContentEvidence, now time.Time) float64 {
	return scoreSearchRank(search.Ranking)*weightSearchRank +
		scoreSimilarity(content.SimilarityScore)*weightSimilarity +
		scoreRecency(content.LastUpdated, now)*weightRecency +
		scoreTrafficRank(search.TrafficRank)*weightTraffic +
		scoreSocialShares(search.SocialShares)*weightSocial
}

// A strong search position is earned slowly, so good ranks read as
// low risk; rank 0 and below means the crawler reported nothing.
func scoreSearchRank(ranking *int) float64 {
	if ranking == nil {
		return 50
	}
	r := *ranking
	switch {
	case r <= 0:
		return 50
	case r <= 3:
		return 10
	case r <= 10:
		return 25
	case r <= 20:
		return 40
	case r <= 50:
		return 60
	default:
		return 80
	}
}

// High similarity to the protected content reads as low risk here;
// the low-similarity case is what flags scraped-and-modified copies.
func scoreSimilarity(similarity *float64) float64 {
	if similarity == nil {
		return 50
	}
	s := *similarity
	switch {
	case s >= 0.9:
		return 20
	case s >= 0.7:
		return 35
	case s >= 0.5:
		return 50
	case s >= 0.3:
		return 70
	default:
		return 85
	}
}

func scoreRecency(lastUpdated *time.Time, now time.Time) float64 {
	if lastUpdated == nil {
		return 50
	}
	days := now.Sub(*lastUpdated).Hours() / 24
	switch {
	case days <= 7:
		return 30
	case days <= 30:
		return 40
	case days <= 90:
		return 55
	case days <= 365:
		return 70
	default:
		return 85
	}
}

func scoreTrafficRank(rank *int) float64 {
	if rank == nil {
		return 50
	}
	r := *rank
	switch {
	case r <= 0:
		return 50
	case r <= 10_000:
		return 10
	case r <= 100_000:
		return 25
	case r <= 1_000_000:
		return 40
	default:
		return 60
	}
}

func scoreSocialShares(shares *int) float64 {
	if shares == nil {
		return 50
	}
	s := *shares
	switch {
	case s > 1000:
		return 20
	case s > 100:
		return 35
	case s > 10:
		return 50
	default:
		return 70
	}
}
