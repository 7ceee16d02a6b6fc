package terminology

// Country is a selectable country of residence.
type Country struct {
	Code      string `db:"code" json:"code"`
	Name      string `db:"name" json:"name"`
	SortOrder int    `db:"sort_order" json:"sort_order"`
}

// Region is a state or province within a country.
type Region struct {
	CountryCode string `db:"country_code" json:"country_code"`
	Code        string `db:"code" json:"code"`
	Name        string `db:"name" json:"name"`
}
