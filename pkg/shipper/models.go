package shipper

import (
	"strings"
	"time"
)

// DefaultCountry is applied to destinations that omit a country code.
const DefaultCountry = "AU"

// Currency is the only currency quotes are produced in.
const Currency = "AUD"

// ShipmentRequest describes a parcel to be quoted.
type ShipmentRequest struct {
	DestinationPostcode string          `json:"destinationPostcode" validate:"required,len=4,number"`
	DestinationSuburb   string          `json:"destinationSuburb,omitempty"`
	DestinationState    string          `json:"destinationState,omitempty"`
	Country             string          `json:"country,omitempty" validate:"omitempty,len=2,alpha"`
	Items               []ItemSelection `json:"items" validate:"required,min=1,dive"`
	PackagingID         string          `json:"packagingId" validate:"required"`
	Express             bool            `json:"isExpress"`
}

// ItemSelection references a catalog item and how many of it are packed.
type ItemSelection struct {
	ItemID   string `json:"itemId" validate:"required"`
	Quantity int    `json:"quantity" validate:"gt=0"`
}

// Item is a catalog product.
type Item struct {
	ID              string `json:"id"`
	Name            string `json:"name" validate:"required"`
	Description     string `json:"description,omitempty"`
	UnitWeightGrams int    `json:"unitWeightGrams" validate:"gt=0"`
}

// Packaging is a box or satchel the items are shipped in.
type Packaging struct {
	ID                    string  `json:"id"`
	Name                  string  `json:"name" validate:"required"`
	Description           string  `json:"description,omitempty"`
	LengthCm              int     `json:"lengthCm" validate:"gt=0"`
	HeightCm              int     `json:"heightCm" validate:"gt=0"`
	WidthCm               int     `json:"widthCm" validate:"gt=0"`
	InternalVolumeCubicCm int     `json:"internalVolumeCubicCm" validate:"gte=0"`
	PackagingCostAud      float64 `json:"packagingCostAud" validate:"gt=0"`
}

// UsableVolumeCm3 returns the internal volume, or the outer box volume when
// none was recorded.
func (p Packaging) UsableVolumeCm3() int {
	if p.InternalVolumeCubicCm > 0 {
		return p.InternalVolumeCubicCm
	}
	return p.LengthCm * p.HeightCm * p.WidthCm
}

// OriginSettings is the merchant's dispatch address.
type OriginSettings struct {
	Postcode        string    `json:"postcode" validate:"required,len=4,number"`
	Suburb          string    `json:"suburb"`
	State           string    `json:"state"`
	Country         string    `json:"country" validate:"omitempty,len=2,alpha"`
	ThemePreference string    `json:"themePreference,omitempty" validate:"omitempty,oneof=dark light sepia"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// Destination is the normalized delivery address of a quote.
type Destination struct {
	Postcode string `json:"postcode"`
	Suburb   string `json:"suburb"`
	State    string `json:"state"`
	Country  string `json:"country"`
}

// CarrierQuote is one priced service option.
type CarrierQuote struct {
	Carrier            string  `json:"carrier"`
	ServiceName        string  `json:"serviceName"`
	DeliveryEtaDaysMin *int    `json:"deliveryEtaDaysMin"`
	DeliveryEtaDaysMax *int    `json:"deliveryEtaDaysMax"`
	PackagingCostAud   float64 `json:"packagingCostAud"`
	DeliveryCostAud    float64 `json:"deliveryCostAud"`
	SurchargesAud      float64 `json:"surchargesAud"`
	TotalCostAud       float64 `json:"totalCostAud"`
	PricingSource      string  `json:"pricingSource"`
	RuleFallbackUsed   bool    `json:"ruleFallbackUsed"`
	RawCarrierRef      string  `json:"rawCarrierRef,omitempty"`
}

// WithEta returns a copy of q with the delivery window set.
func (q CarrierQuote) WithEta(minDays, maxDays int) CarrierQuote {
	q.DeliveryEtaDaysMin = &minDays
	q.DeliveryEtaDaysMax = &maxDays
	return q
}

// QuoteResult is the response to a quote request.
type QuoteResult struct {
	TotalWeightGrams   int            `json:"totalWeightGrams"`
	WeightInKg         float64        `json:"weightInKg"`
	VolumeWeightInKg   float64        `json:"volumeWeightInKg"`
	TotalVolumeCubicCm int            `json:"totalVolumeCubicCm"`
	Origin             OriginSettings `json:"origin"`
	Destination        Destination    `json:"destination"`
	Packaging          Packaging      `json:"packaging"`
	CarrierQuotes      []CarrierQuote `json:"carrierQuotes"`
	Currency           string         `json:"currency"`
	GeneratedAt        time.Time      `json:"generatedAt"`
}

// ResolvedItem is an item selection joined with its catalog entry.
type ResolvedItem struct {
	Item     Item
	Quantity int
}

// QuoteInput is everything a provider needs to price a shipment.
type QuoteInput struct {
	Request   ShipmentRequest
	Origin    OriginSettings
	Packaging Packaging
	Items     []ResolvedItem
}

// TotalWeightGrams sums unit weight times quantity across all items.
func (in *QuoteInput) TotalWeightGrams() int {
	total := 0
	for _, it := range in.Items {
		total += it.Item.UnitWeightGrams * it.Quantity
	}
	return total
}

// WeightKg is the total item weight in kilograms.
func (in *QuoteInput) WeightKg() float64 {
	return float64(in.TotalWeightGrams()) / 1000
}

// TotalPieces is the number of physical items packed.
func (in *QuoteInput) TotalPieces() int {
	total := 0
	for _, it := range in.Items {
		total += it.Quantity
	}
	return total
}

// Destination builds the destination address from the request.
func (in *QuoteInput) Destination() Destination {
	country := strings.TrimSpace(in.Request.Country)
	if country == "" {
		country = DefaultCountry
	}
	return Destination{
		Postcode: in.Request.DestinationPostcode,
		Suburb:   in.Request.DestinationSuburb,
		State:    in.Request.DestinationState,
		Country:  country,
	}
}

// ProviderSetting is the per-carrier switch read from configuration.
type ProviderSetting struct {
	Enabled bool `json:"enabled"`
}

// ProvidersConfig maps carrier names to their settings. A nil or empty map
// means no explicit configuration.
type ProvidersConfig map[string]ProviderSetting

// Enabled reports whether name is explicitly enabled.
func (c ProvidersConfig) Enabled(name string) bool {
	s, ok := c[name]
	return ok && s.Enabled
}
