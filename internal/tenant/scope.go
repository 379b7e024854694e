package tenant

import "gorm.io/gorm"

// Scope restricts a query to a single company. Every repository query on
// company-owned tables goes through this.
func Scope(companyID string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("company_id = ?", companyID)
	}
}
