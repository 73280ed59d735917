package models

// CreateDonationRequest is the payload sent to the donation-creation service.
type CreateDonationRequest struct {
	Donor          Donor                 `json:"donor"`
	DonationMethod DonationMethod        `json:"donation_method"`
	Items          []DonationItemPayload `json:"items"`
	Notes          string                `json:"notes"`
}

type DonationItemPayload struct {
	ItemTypeID           string    `json:"itemtype_id"`
	Quantity             int       `json:"quantity"`
	QuantityPerContainer int       `json:"quantity_per_container,omitempty"`
	ContainerType        string    `json:"container_type,omitempty"`
	ContainerCount       int       `json:"container_count,omitempty"`
	DeclaredValue        float64   `json:"declared_value"`
	Condition            Condition `json:"condition"`
	Description          string    `json:"description"`
	AssortedGroupID      string    `json:"assorted_group_id,omitempty"`
}

// TempCredentials are generated for walk-in donors who have no account yet.
type TempCredentials struct {
	Email        string `json:"email"`
	TempPassword string `json:"temp_password"`
}

type CreateDonationResponse struct {
	DonationID  string           `json:"donation_id"`
	DonorID     string           `json:"donor_id,omitempty"`
	Credentials *TempCredentials `json:"credentials,omitempty"`
}
