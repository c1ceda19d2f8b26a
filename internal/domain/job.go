package domain

// JobRecord is one job posting as the remote service sends it and as the
// catalog stores it. JobID is the only stable identifier; Slug is derived
// from Title on every write and is not guaranteed stable across edits.
type JobRecord struct {
	JobID       string   `json:"job_id"`
	Title       string   `json:"job_title"`
	Description string   `json:"job_description,omitempty"`
	City        string   `json:"city,omitempty"`
	State       string   `json:"state,omitempty"`
	Zipcode     string   `json:"zipcode,omitempty"`
	Street      string   `json:"street,omitempty"`
	Brand       string   `json:"brand,omitempty"`
	Service     string   `json:"service,omitempty"`
	Date        string   `json:"date,omitempty"`
	Employee    string   `json:"employee,omitempty"`
	Images      []string `json:"images,omitempty"`
	Slug        string   `json:"slug,omitempty"`
}
