package models

// Tag labels entries with a colored marker. SuggestID links a tag back to the
// fixed catalog of suggested starter tags so the catalog can be deduped
// against tags the user already created from it.
type Tag struct {
	Base
	Name      string  `gorm:"not null" json:"name"`
	Color     *string `json:"color,omitempty"`
	SuggestID *string `json:"suggest_id,omitempty"`
}

// SuggestedTag is one item of the built-in starter catalog.
type SuggestedTag struct {
	SuggestID string `json:"suggest_id"`
	Name      string `json:"name"`
	Color     string `json:"color"`
}

// SuggestedTags is the fixed starter catalog offered to new users. A catalog
// item is hidden once a tag with the same SuggestID exists.
var SuggestedTags = []SuggestedTag{
	{SuggestID: "salary", Name: "Salary", Color: "green"},
	{SuggestID: "loan", Name: "Loan", Color: "red"},
	{SuggestID: "credit-card", Name: "Credit Card", Color: "purple"},
	{SuggestID: "rent", Name: "Rent", Color: "lime"},
	{SuggestID: "maintenance", Name: "Maintenance", Color: "orange"},
	{SuggestID: "bill", Name: "Bill", Color: "blue"},
}
