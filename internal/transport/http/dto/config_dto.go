package dto

// TierDTO describes one rung of the subscription ladder for clients.
type TierDTO struct {
	ID          string   `json:"id"`
	Label       string   `json:"label"`
	Price       float64  `json:"price"`
	Description string   `json:"description"`
	Benefits    []string `json:"benefits"`
}

type FAQEntryDTO struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

type ConfigResponse struct {
	Tiers []TierDTO     `json:"tiers"`
	FAQ   []FAQEntryDTO `json:"faq"`
}
