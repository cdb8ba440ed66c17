package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/snacktacular/backend/internal/adapters/providers/geolocation"
	"github.com/snacktacular/backend/internal/app"
	"github.com/snacktacular/backend/internal/application/services"
	"github.com/snacktacular/backend/internal/domain/entities"
)

var seedUsers = []entities.SnackUser{
	{ID: "seed-gallaugher", Email: "prof.g@example.com", DisplayName: "Prof. G"},
	{ID: "seed-baldwin", Email: "baldwin@example.com", DisplayName: "Baldwin"},
	{ID: "seed-eagle", Email: "eagle@example.com", DisplayName: "eagle fan"},
}

// seedReviews is applied to every spot, one review per seed user
var seedReviews = []struct {
	title  string
	text   string
	rating int
}{
	{"Worth the trip", "Great sandwiches and fast service.", 5},
	{"Solid", "Good food, a bit pricey.", 4},
	{"Meh", "Line was long and the fries were cold.", 2},
}

func main() {
	var reset bool
	flag.BoolVar(&reset, "reset", false, "delete every spot, with its reviews and photos, before seeding")
	flag.Parse()

	cfg, _, err := app.LoadConfig(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	deps, err := app.Open(ctx, cfg, app.Options{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open backends: %v\n", err)
		os.Exit(1)
	}
	defer deps.Close()

	aggregator := services.NewRatingAggregator(deps.Store, cfg.Ratings.PersistAttempts)
	spotService := services.NewSpotService(deps.Store, deps.Blobs, deps.SpotSearch()).WithRatings(aggregator)
	reviewService := services.NewReviewService(deps.Store, aggregator, nil)

	if reset || os.Getenv("RESET_DB") == "true" {
		existing, err := spotService.List(ctx, services.SpotOrderName, nil)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to list spots: %v\n", err)
			os.Exit(1)
		}
		for _, spot := range existing {
			owner := &entities.Principal{UserID: spot.PostingUserID}
			if err := spotService.Delete(ctx, owner, spot); err != nil {
				fmt.Printf("Failed to delete spot %s: %v\n", spot.Name, err)
			}
		}
		fmt.Printf("Deleted %d spots\n", len(existing))
	}

	// 1. Seed the user directory
	principals := make([]*entities.Principal, 0, len(seedUsers))
	for i := range seedUsers {
		u := &seedUsers[i]
		if err := deps.Store.Set(ctx, entities.UsersCollection, u.ID, u.Document()); err != nil {
			fmt.Printf("Failed to create user %s: %v\n", u.DisplayName, err)
			continue
		}
		principals = append(principals, &entities.Principal{UserID: u.ID, Email: u.Email})
	}
	if len(principals) == 0 {
		fmt.Fprintln(os.Stderr, "No seed users could be written")
		os.Exit(1)
	}

	// 2. Seed spots from the mock place catalogue
	places, err := geolocation.NewMockGeolocationProvider().SearchPlaces(ctx, "", nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read places: %v\n", err)
		os.Exit(1)
	}

	spotCount, reviewCount := 0, 0
	for i, place := range places {
		owner := principals[i%len(principals)]
		spot := &entities.Spot{
			Name:      place.Name,
			Address:   place.Address,
			Latitude:  place.Coordinates.Latitude,
			Longitude: place.Coordinates.Longitude,
		}
		if err := spotService.Save(ctx, owner, spot); err != nil {
			fmt.Printf("Failed to create spot %s: %v\n", place.Name, err)
			continue
		}
		spotCount++

		// 3. One review per user, rotated so averages differ between spots
		for j, author := range principals {
			r := seedReviews[(i+j)%len(seedReviews)]
			review := entities.NewReview(author)
			review.Title = r.title
			review.Text = r.text
			review.Rating = r.rating
			if err := reviewService.Save(ctx, author, spot, review); err != nil {
				fmt.Printf("Failed to review %s: %v\n", spot.Name, err)
				continue
			}
			reviewCount++
		}
		fmt.Printf("Seeded %s (%.1f from %d reviews)\n", spot.Name, spot.AverageRating, spot.NumberOfReviews)
	}

	fmt.Printf("Seeding complete: %d users, %d spots, %d reviews\n", len(principals), spotCount, reviewCount)
}
