package models

// HabitationRef identifies a rentable property/room listing. The listing
// itself is owned by the marketplace backend; the booking flow keeps only
// the reference plus display snapshots taken when the flow started.
type HabitationRef struct {
	ID             string `json:"id"`
	OwnerID        string `json:"ownerId"`
	Title          string `json:"title"`
	HabitationType string `json:"habitationType"` // entire_place, private_room, shared_room
}

// LocationSnapshot captures where the habitation is, frozen at flow start.
type LocationSnapshot struct {
	AddressLine1 string  `json:"addressLine1"`
	AddressLine2 string  `json:"addressLine2,omitempty"`
	City         string  `json:"city"`
	District     string  `json:"district,omitempty"`
	Country      string  `json:"country"`
	Lat          float64 `json:"lat"`
	Lng          float64 `json:"lng"`
}

// FeatureSnapshot captures the habitation's features and rates, frozen at
// flow start so the quoted total cannot drift while the user edits dates.
type FeatureSnapshot struct {
	Capacity     int      `json:"capacity"`
	Bedrooms     int      `json:"bedrooms"`
	Beds         int      `json:"beds"`
	Bathrooms    float64  `json:"bathrooms"`
	NightlyPrice float64  `json:"nightlyPrice"`
	CleaningFee  float64  `json:"cleaningFee"`
	ServiceFee   float64  `json:"serviceFee"`
	Amenities    []string `json:"amenities,omitempty"`
}
