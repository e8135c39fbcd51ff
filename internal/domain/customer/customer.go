package customer

import "time"

// Customer is the flat storage shape. The nested address API shape is the
// concern of the presentation layer.
type Customer struct {
	ID              int64
	Name            string
	StreetName      string
	HouseNumber     int
	City            string
	StateOrProvince string
	Email           string
	PhoneNumber     string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	DeletedAt       *time.Time
}

func (c *Customer) IsDeleted() bool {
	return c.DeletedAt != nil
}

// ApplyUpdate overwrites all business fields with the incoming values.
// ID and audit timestamps are preserved; updated_at is refreshed by the
// store layer on save.
func (c *Customer) ApplyUpdate(in *Customer) {
	c.Name = in.Name
	c.StreetName = in.StreetName
	c.HouseNumber = in.HouseNumber
	c.City = in.City
	c.StateOrProvince = in.StateOrProvince
	c.Email = in.Email
	c.PhoneNumber = in.PhoneNumber
}
