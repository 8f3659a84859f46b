package loadgen

import (
	"crypto/rand"
	"math/big"

	"github.com/google/uuid"
)

// Item is one synthetic claim service line in request form.
type Item struct {
	ItemID   string         `json:"item_id"`
	Features map[string]any `json:"features"`
}

// Constants for random number generation.
const (
	randomFloatDivisor = 1000000
	claimProfileCount  = 4
)

// Claim amount profiles, in dollars. Routine claims dominate; large
// inpatient claims are rare, mirroring a real claims mix.
const (
	routineMin    = 80.0
	routineRange  = 420.0
	imagingMin    = 500.0
	imagingRange  = 4500.0
	surgeryMin    = 5000.0
	surgeryRange  = 45000.0
	inpatientMin  = 50000.0
	inpatientSpan = 200000.0
)

const (
	caseRoutine = 0
	caseImaging = 1
	caseSurgery = 2
)

var procedureCategories = []string{"SURGERY", "DIAGNOSTIC", "THERAPY", "EMERGENCY"}

var providerStates = []string{"CA", "NY", "TX", "FL", "WA", "IL"}

// getRandomFloat returns a random float64 between 0.0 and 1.0 using crypto/rand.
func getRandomFloat() float64 {
	n, _ := rand.Int(rand.Reader, big.NewInt(randomFloatDivisor))
	return float64(n.Int64()) / float64(randomFloatDivisor)
}

func pick(values []string) string {
	n, _ := rand.Int(rand.Reader, big.NewInt(int64(len(values))))
	return values[n.Int64()]
}

// generateItems creates synthetic claim items with unique ids. Some states
// fall outside typical training mappings on purpose, to exercise the
// service's categorical fallback path.
func generateItems(n int) []Item {
	items := make([]Item, n)
	for i := range items {
		items[i] = Item{
			ItemID: uuid.New().String(),
			Features: map[string]any{
				"claim_amount":       generateClaimAmount(),
				"patient_age":        18 + int(getRandomFloat()*80),
				"procedure_category": pick(procedureCategories),
				"provider_state":     pick(providerStates),
				"prior_denials":      float64(int(getRandomFloat() * 5)),
			},
		}
	}
	return items
}

// generateClaimAmount draws from a skewed mix of claim size profiles.
func generateClaimAmount() float64 {
	n, _ := rand.Int(rand.Reader, big.NewInt(claimProfileCount))
	switch n.Int64() {
	case caseRoutine:
		return routineMin + getRandomFloat()*routineRange
	case caseImaging:
		return imagingMin + getRandomFloat()*imagingRange
	case caseSurgery:
		return surgeryMin + getRandomFloat()*surgeryRange
	default:
		return inpatientMin + getRandomFloat()*inpatientSpan
	}
}
