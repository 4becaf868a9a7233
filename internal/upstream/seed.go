package upstream

import "hyperleaf/models"

// Development accounts. Tokens are static bearer tokens, not secrets.
const (
	AdminToken  = "dev-admin-token"
	AshaToken   = "dev-farmer-asha-token"
	RaviToken   = "dev-farmer-ravi-token"
	adminEmail  = "admin@hyperleaf.local"
	farmerEmail = "@hyperleaf.local"
)

// SeedUsers returns the accounts the development service starts with
func SeedUsers() []models.User {
	return []models.User{
		{Username: "admin", Email: adminEmail, Role: models.RoleAdmin, PreferredLanguage: "en", Token: AdminToken},
		{Username: "asha", Email: "asha" + farmerEmail, Role: models.RoleFarmer, PreferredLanguage: "en", Token: AshaToken},
		{Username: "ravi", Email: "ravi" + farmerEmail, Role: models.RoleFarmer, PreferredLanguage: "hi", Token: RaviToken},
	}
}
