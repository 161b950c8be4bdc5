package testleads

import (
	"context"
	"crypto/rand"
	"math/big"

	"github.com/google/uuid"
	"github.com/okian/leadscore/pkg/logger"
)

// Constants for random number generation.
const (
	randomFloatDivisor = 1000000
	dealProfileDivisor = 6
)

// Constants for deal value generation ranges.
const (
	smallDealMin      = 100.0
	smallDealRange    = 900.0
	midDealMin        = 1000.0
	midDealRange      = 4000.0
	largeDealMin      = 5000.0
	largeDealRange    = 15000.0
	enterpriseDealMin = 20000.0
	enterpriseRange   = 80000.0
)

// Constants for deal profile cases.
const (
	caseSmallDeal      = 0
	caseMidDeal        = 1
	caseLargeDeal      = 2
	caseEnterpriseDeal = 3
	caseZeroValueDeal  = 4
	caseWideRangeDeal  = 5
)

// Weighted candidate pools per UTM dimension. Empty strings exercise the
// sentinel default, and a few values are deliberately absent from the model
// schema so the aligner's column dropping gets traffic too.
var (
	utmSources   = []string{"google", "google", "google", "facebook", "facebook", "instagram", "bing", "tiktok", ""}
	utmMediums   = []string{"cpc", "cpc", "organic", "social", "email", "display", ""}
	utmCampaigns = []string{"black_friday", "brand_awareness", "retargeting", "summer_sale", ""}
	utmContents  = []string{"video_ad", "carousel", "static_banner", ""}
	utmTerms     = []string{"crm", "lead scoring", "sales[automation]", ""}
)

// getRandomFloat returns a random float64 between 0.0 and 1.0 using crypto/rand.
func getRandomFloat() float64 {
	n, _ := rand.Int(rand.Reader, big.NewInt(randomFloatDivisor))
	return float64(n.Int64()) / float64(randomFloatDivisor)
}

// pick returns a random element from the candidate pool.
func pick(pool []string) string {
	n, _ := rand.Int(rand.Reader, big.NewInt(int64(len(pool))))
	return pool[n.Int64()]
}

// generateLeads creates the specified number of leads with unique IDs.
func generateLeads(ctx context.Context, config *Config, stats *Stats) ([]Lead, error) {
	logger.Get().Info(ctx, "generating synthetic leads", logger.Int("numLeads", config.NumLeads))

	leads := make([]Lead, config.NumLeads)
	for i := range leads {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		leads[i] = generateSingleLead()
	}

	stats.LeadsGenerated = len(leads)
	logger.Get().Info(ctx, "generated leads successfully", logger.Int("count", len(leads)))

	return leads, nil
}

// generateSingleLead creates one lead with a varied deal value and UTM mix.
func generateSingleLead() Lead {
	return Lead{
		LeadID:      uuid.New().String(),
		Valor:       generateDealValue(),
		UTMCampaign: pick(utmCampaigns),
		UTMContent:  pick(utmContents),
		UTMMedium:   pick(utmMediums),
		UTMSource:   pick(utmSources),
		UTMTerm:     pick(utmTerms),
	}
}

// generateDealValue creates a deal value with a varied distribution.
func generateDealValue() float64 {
	randNum, _ := rand.Int(rand.Reader, big.NewInt(dealProfileDivisor))
	switch randNum.Int64() {
	case caseSmallDeal:
		// Small deals (100 - 1000) - most common
		return smallDealMin + getRandomFloat()*smallDealRange
	case caseMidDeal:
		// Mid-size deals (1000 - 5000)
		return midDealMin + getRandomFloat()*midDealRange
	case caseLargeDeal:
		// Large deals (5000 - 20000)
		return largeDealMin + getRandomFloat()*largeDealRange
	case caseEnterpriseDeal:
		// Enterprise deals (20000 - 100000) - rare
		return enterpriseDealMin + getRandomFloat()*enterpriseRange
	case caseZeroValueDeal:
		// Deals created without a value yet
		return 0
	case caseWideRangeDeal:
		// Random across the small-to-large range
		return smallDealMin + getRandomFloat()*(largeDealMin+largeDealRange-smallDealMin)
	default:
		return smallDealMin + getRandomFloat()*smallDealRange
	}
}
