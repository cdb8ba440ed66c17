package entities

// Collection paths in the document store
const (
	SpotsCollection = "spots"
	UsersCollection = "users"
)

// ReviewsCollection returns the review sub-collection of a spot
func ReviewsCollection(spotID string) string {
	return SpotsCollection + "/" + spotID + "/reviews"
}

// PhotosCollection returns the photo sub-collection of a spot
func PhotosCollection(spotID string) string {
	return SpotsCollection + "/" + spotID + "/photos"
}
