package dto

import (
	"fmt"
	"strings"

	"github.com/direwolf2494/CMS-Basic/internal/domain/customer"
)

type Address struct {
	StreetName      string `json:"streetName"`
	HouseNumber     int    `json:"houseNumber"`
	City            string `json:"city"`
	StateOrProvince string `json:"stateOrProvince"`
}

type CustomerRequest struct {
	Name        string  `json:"name"`
	Email       string  `json:"email"`
	PhoneNumber string  `json:"phoneNumber"`
	Address     Address `json:"address"`
}

func (r *CustomerRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("name cannot be empty")
	}
	if strings.TrimSpace(r.Email) == "" {
		return fmt.Errorf("email cannot be empty")
	}
	if strings.TrimSpace(r.PhoneNumber) == "" {
		return fmt.Errorf("phoneNumber cannot be empty")
	}
	return nil
}

// Destructure flattens the nested address beside the top-level fields,
// producing the storage shape. Audit fields and id never come from the
// request, so the result carries none.
func (r *CustomerRequest) Destructure() *customer.Customer {
	return &customer.Customer{
		Name:            r.Name,
		Email:           r.Email,
		PhoneNumber:     r.PhoneNumber,
		StreetName:      r.Address.StreetName,
		HouseNumber:     r.Address.HouseNumber,
		City:            r.Address.City,
		StateOrProvince: r.Address.StateOrProvince,
	}
}

type CustomerResponse struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Email       string  `json:"email"`
	PhoneNumber string  `json:"phoneNumber"`
	Address     Address `json:"address"`
}

// NewCustomerResponse is the inverse of Destructure: it lifts the four
// address columns into the nested address object and strips the audit
// timestamps from the API-visible shape.
func NewCustomerResponse(cust *customer.Customer) CustomerResponse {
	if cust == nil {
		return CustomerResponse{}
	}

	return CustomerResponse{
		ID:          cust.ID,
		Name:        cust.Name,
		Email:       cust.Email,
		PhoneNumber: cust.PhoneNumber,
		Address: Address{
			StreetName:      cust.StreetName,
			HouseNumber:     cust.HouseNumber,
			City:            cust.City,
			StateOrProvince: cust.StateOrProvince,
		},
	}
}

type SearchCustomersResponse struct {
	Customers []CustomerResponse `json:"customers"`
	Count     int64              `json:"count"`
}

type StatusResponse struct {
	Status string `json:"status"`
}

type TokenRequest struct {
	Username string `json:"username"`
}

// ErrorResponse is the wire shape for all failures: a numeric status code,
// a human-readable message and the error kind name.
type ErrorResponse struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Name    string `json:"name"`
}
