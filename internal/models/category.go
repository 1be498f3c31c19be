package models

// Category is the fixed set of event categories
type Category string

const (
	CategoryConcert    Category = "Concert"
	CategorySports     Category = "Sports"
	CategoryTheater    Category = "Theater"
	CategoryConference Category = "Conference"
	CategoryFestival   Category = "Festival"
	CategoryOther      Category = "Other"
)

// Categories lists every category in display order
func Categories() []Category {
	return []Category{
		CategoryConcert,
		CategorySports,
		CategoryTheater,
		CategoryConference,
		CategoryFestival,
		CategoryOther,
	}
}

// Valid reports whether c is one of the known categories
func (c Category) Valid() bool {
	for _, known := range Categories() {
		if c == known {
			return true
		}
	}
	return false
}
