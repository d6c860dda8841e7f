package models

// Repository is the source-host metadata served by the repositories endpoint.
type Repository struct {
	URL         string `json:"url" bson:"url"`
	HTMLURL     string `json:"html_url" bson:"htmlURL"`
	Name        string `json:"name" bson:"name"`
	Owner       string `json:"owner" bson:"owner"`
	Description string `json:"description" bson:"description"`
}
