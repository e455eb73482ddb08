package card

// Price keys reported for every printing. A key missing from Prices means the
// database had no price for it.
const (
	PriceUSD     = "usd"
	PriceUSDFoil = "usd_foil"
	PriceEUR     = "eur"
	PriceTix     = "tix"
)

// PriceKeys lists the price fields in display order.
var PriceKeys = []string{PriceUSD, PriceUSDFoil, PriceEUR, PriceTix}

// Prices maps a currency key to the price string returned by the database.
type Prices map[string]string

// Value returns the price for key or "N/A" when absent.
func (p Prices) Value(key string) string {
	if v, ok := p[key]; ok && v != "" {
		return v
	}
	return "N/A"
}

// Candidate is one printing returned by the card database.
type Candidate struct {
	Name            string `json:"name"`
	Set             string `json:"set"`
	CollectorNumber string `json:"collector_number"`
	ImageURL        string `json:"image_url"`
	Prices          Prices `json:"prices"`
}

// MatchResult is the printing selected for an uploaded photo.
type MatchResult struct {
	MatchedName        string  `json:"matched_name"`
	Set                string  `json:"set"`
	CollectorNumber    string  `json:"collector_number"`
	Prices             Prices  `json:"prices"`
	SimilarityScore    float64 `json:"similarity_score"`
	ReferenceImageURL  string  `json:"reference_image_url"`
	ReferenceImagePath string  `json:"reference_image_path,omitempty"`
}

// CardValue renders the price payload in the shape returned to clients.
func (m MatchResult) CardValue() map[string]string {
	out := map[string]string{"name": m.MatchedName}
	for _, k := range PriceKeys {
		out[k] = m.Prices.Value(k)
	}
	return out
}
