package models

type GenerateResourceRequest struct {
	UserDatabaseID string  `json:"user_database_id"`
	Scanner        Scanner `json:"scanner"`
}

// ExtractResourceRequest carries a sign-encoded rate: a non-negative value is a flat
// amount, a negative value -n extracts 1/n of the current quantity.
type ExtractResourceRequest struct {
	ExtractRate int `json:"extract_rate"`
}

// ResourceResponse answers both harvestable commands. The zero value means
// "nothing generated" or "nothing to extract".
type ResourceResponse struct {
	DatabaseID string       `json:"database_id"`
	Type       ResourceType `json:"type"`
	Quantity   int          `json:"quantity"`
}

func (r ResourceResponse) IsEmpty() bool {
	return r == ResourceResponse{}
}
