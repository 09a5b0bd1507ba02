package entities

// User is a back office account. IsAdmin is filterable, e.g.
// isAdmin.eq(true).
type User struct {
	UserID  uint   `json:"userId" gorm:"primaryKey"`
	Name    string `json:"name" gorm:"not null"`
	IsAdmin bool   `json:"isAdmin" gorm:"not null;default:false"`
	// APIKey is hidden from filters and responses.
	APIKey string `json:"-" ameba:"-"`
}

// GetSampleUsers returns sample user data for seeding the database
func GetSampleUsers() []User {
	return []User{
		{UserID: 1, Name: "Alice Johnson", IsAdmin: true, APIKey: "key-alice"},
		{UserID: 2, Name: "Bob Smith", IsAdmin: false, APIKey: "key-bob"},
		{UserID: 3, Name: "Charlie Davis", IsAdmin: true, APIKey: "key-charlie"},
		{UserID: 4, Name: "Diana Martinez", IsAdmin: false, APIKey: "key-diana"},
		{UserID: 5, Name: "Eve Wilson", IsAdmin: false, APIKey: "key-eve"},
	}
}

// All returns every model of the development server in migration order.
func All() []interface{} {
	return []interface{}{&Category{}, &Tag{}, &Product{}, &Customer{}, &Order{}, &LineItem{}, &User{}}
}
