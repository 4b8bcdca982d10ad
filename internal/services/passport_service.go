package services

import (
	"fmt"
	"math/rand"

	"github.com/shopspring/decimal"

	"domira/internal/models"
)

// mockAddress is a plausible Almere address used when onboarding data is
// incomplete.
type mockAddress struct {
	street       string
	number       string
	postal       string
	neighborhood string
}

var almereAddresses = []mockAddress{
	{"Stationsplein", "45", "1315 NT", "Centrum"},
	{"Weerwater", "12", "1316 AB", "Weerwater"},
	{"Spoordreef", "8", "1315 GB", "Centrum"},
	{"Almerestraat", "125", "1318 PM", "Haven"},
	{"De Vaart", "56", "1312 KL", "Tussen de Vaarten"},
	{"Landgoedlaan", "33", "1324 XZ", "Muziekwijk"},
	{"Waterlandplein", "7", "1315 JD", "Centrum"},
	{"Olympiaweg", "91", "1326 AC", "Parkrand"},
}

var (
	buildingTypes = []string{"apartment", "townhouse", "detached", "semi-detached", "studio"}
	energyLabels  = []string{"A++", "A+", "A", "B", "C", "D", "E", "F", "G"}
)

var energyMultipliers = map[string]float64{
	"A++": 1.15, "A+": 1.12, "A": 1.10, "B": 1.05,
	"C": 1.00, "D": 0.95, "E": 0.90, "F": 0.85, "G": 0.80,
}

// passportService mocks Kadaster, BAG and PDOK lookups for demo
// deployments. Real data-provider integrations replace this behind the
// PassportGenerator interface.
type passportService struct{}

// NewPassportService creates a mock PassportGenerator.
func NewPassportService() PassportGenerator {
	return &passportService{}
}

// Generate builds a passport with plausible Dutch property data.
func (s *passportService) Generate(address, city string) *models.PropertyPassport {
	mock := almereAddresses[rand.Intn(len(almereAddresses))]

	buildingYear := 1980 + rand.Intn(45)
	floorArea := 45 + rand.Float64()*135
	// Almere tends to have newer buildings, so stay in the upper labels.
	energyLabel := energyLabels[rand.Intn(4)]

	if address == "" {
		address = fmt.Sprintf("%s %s", mock.street, mock.number)
	}
	if city == "" {
		city = "Almere"
	}

	return &models.PropertyPassport{
		CadastralNumber: generateCadastralNumber(),
		OwnershipStatus: "full ownership",
		Address:         address,
		PostalCode:      mock.postal,
		City:            city,
		BuildingYear:    buildingYear,
		FloorArea:       floorArea,
		BuildingType:    buildingTypes[rand.Intn(len(buildingTypes))],
		UsagePurpose:    "residential",
		EnergyLabel:     energyLabel,
		WOZValue:        calculateWOZValue(floorArea, energyLabel, buildingYear),
		WOZYear:         2026,
	}
}

// generateCadastralNumber produces a mock Kadastrale aanduiding.
func generateCadastralNumber() string {
	sections := []string{"A", "B", "C", "D", "E"}
	return fmt.Sprintf("ALM-%s-%d", sections[rand.Intn(len(sections))], 1000+rand.Intn(9000))
}

// calculateWOZValue estimates a WOZ valuation from floor area, energy label
// and building age. Base price 4500 EUR/m2, 0.5% age discount per year with
// a 70% floor.
func calculateWOZValue(floorArea float64, energyLabel string, buildingYear int) decimal.Decimal {
	const basePricePerSqm = 4500.0

	multiplier, ok := energyMultipliers[energyLabel]
	if !ok {
		multiplier = 1.0
	}

	age := 2026 - buildingYear
	ageFactor := 1 - float64(age)*0.005
	if ageFactor < 0.7 {
		ageFactor = 0.7
	}

	return decimal.NewFromFloat(floorArea * basePricePerSqm * multiplier * ageFactor).Round(2)
}
