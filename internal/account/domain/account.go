package domain

// Account is a marketplace account operated from the console.
type Account struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	AgeDays    int    `json:"age_days"`
	Proxy      string `json:"proxy"`
	IOSProfile string `json:"ios_profile"`
	Notes      string `json:"notes"`
}
