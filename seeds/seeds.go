package seeds

import (
	"context"
	"fmt"
	"log"
	"math"
	"math/rand"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	numUsers        = 20
	numProducts     = 50
	numInteractions = 400
)

func Setup(ctx context.Context, pool *pgxpool.Pool) error {
	rng := rand.New(rand.NewSource(42))

	// Truncate existing data before insert
	log.Println("[seed] truncating existing data")
	if _, err := pool.Exec(ctx, `
		TRUNCATE user_interactions, products, users RESTART IDENTITY CASCADE
	`); err != nil {
		return fmt.Errorf("truncate: %w", err)
	}

	log.Println("[seed] inserting users")
	if err := seedUsers(ctx, pool, rng, numUsers); err != nil {
		return fmt.Errorf("seed users: %w", err)
	}

	log.Println("[seed] inserting products")
	if err := seedProducts(ctx, pool, rng, numProducts); err != nil {
		return fmt.Errorf("seed products: %w", err)
	}

	log.Println("[seed] inserting interactions")
	if err := seedInteractions(ctx, pool, rng, numInteractions); err != nil {
		return fmt.Errorf("seed interactions: %w", err)
	}

	log.Println("[seed] seeding complete")
	return nil
}

var categories = []string{"shoes", "electronics", "clothing", "home", "sports"}

var categoryTags = map[string][]string{
	"shoes":       {"running", "casual", "leather", "breathable", "lightweight"},
	"electronics": {"wireless", "portable", "smart", "rechargeable", "bluetooth"},
	"clothing":    {"cotton", "casual", "slim-fit", "warm", "waterproof"},
	"home":        {"kitchen", "decor", "storage", "compact", "modern"},
	"sports":      {"outdoor", "fitness", "training", "durable", "adjustable"},
}

var brands = map[string][]string{
	"shoes":       {"Stride", "TrailForge", "UrbanStep"},
	"electronics": {"Voltix", "Nexon", "ClearWave"},
	"clothing":    {"NorthThread", "Plainweave", "Duskwear"},
	"home":        {"HearthLine", "Tidy & Co", "Brightnest"},
	"sports":      {"PeakGear", "Enduro", "FieldKit"},
}

var productNames = map[string][]string{
	"shoes": {
		"Trail Runner", "Road Runner", "Court Classic", "Peak Hiker",
		"City Loafer", "Sprint Elite", "Canvas Low", "Winter Boot",
		"Slip-On Daily", "Track Spike",
	},
	"electronics": {
		"Wireless Earbuds", "Smart Speaker", "Fitness Tracker", "Portable Charger",
		"Noise Cancelling Headphones", "Action Camera", "Mechanical Keyboard",
		"Bluetooth Mouse", "Smart Bulb", "Mini Projector",
	},
	"clothing": {
		"Cotton Tee", "Rain Jacket", "Slim Jeans", "Wool Sweater",
		"Fleece Hoodie", "Linen Shirt", "Down Vest", "Chino Pants",
		"Thermal Base Layer", "Canvas Belt",
	},
	"home": {
		"French Press", "Cast Iron Skillet", "Ceramic Vase", "Storage Bin Set",
		"Desk Lamp", "Throw Blanket", "Knife Block", "Wall Clock",
		"Spice Rack", "Cutting Board",
	},
	"sports": {
		"Yoga Mat", "Resistance Bands", "Water Bottle", "Camping Tent",
		"Climbing Rope", "Foam Roller", "Jump Rope", "Kettlebell",
		"Trekking Poles", "Bike Helmet",
	},
}

func seedUsers(ctx context.Context, pool *pgxpool.Pool, rng *rand.Rand, n int) error {
	rows := []string{}
	args := []any{}

	for i := range n {
		id := fmt.Sprintf("user_%d", i+1)
		username := fmt.Sprintf("shopper%d", i+1)
		email := fmt.Sprintf("%s@example.com", username)

		// One or two preferred categories per user.
		prefs := []string{categories[rng.Intn(len(categories))]}
		if rng.Float64() < 0.5 {
			other := categories[rng.Intn(len(categories))]
			if other != prefs[0] {
				prefs = append(prefs, other)
			}
		}
		createdAt := time.Now().AddDate(0, 0, -rng.Intn(365))

		base := len(args)
		rows = append(rows, fmt.Sprintf("($%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5))
		args = append(args, id, username, email, prefs, createdAt)
	}

	if len(rows) == 0 {
		return nil
	}

	query := "INSERT INTO users (id, username, email, preferences, created_at) VALUES " +
		strings.Join(rows, ", ")

	_, err := pool.Exec(ctx, query, args...)
	return err
}

func seedProducts(ctx context.Context, pool *pgxpool.Pool, rng *rand.Rand, n int) error {
	rows := []string{}
	args := []any{}

	for i := range n {
		category := categories[i%len(categories)]
		nameList := productNames[category]
		name := nameList[(i/len(categories))%len(nameList)]
		if i >= len(categories)*len(nameList) {
			name = fmt.Sprintf("%s %d", name, i/(len(categories)*len(nameList))+1)
		}

		brandList := brands[category]
		brand := brandList[rng.Intn(len(brandList))]

		tagList := categoryTags[category]
		tags := []string{
			tagList[rng.Intn(len(tagList))],
			tagList[rng.Intn(len(tagList))],
		}

		id := fmt.Sprintf("prod_%d", i+1)
		price := math.Round((10+rng.Float64()*290)*100) / 100
		rating := math.Round((2.5+rng.Float64()*2.5)*10) / 10
		numRatings := int(powerLawScore(rng) * 500)
		stock := rng.Intn(200)
		description := fmt.Sprintf("%s %s by %s, %s and %s.",
			strings.ToLower(category), strings.ToLower(name), brand, tags[0], tags[1])
		imageURL := fmt.Sprintf("https://img.example.com/products/%s.jpg", id)
		createdAt := time.Now().AddDate(0, 0, -rng.Intn(730))

		base := len(args)
		placeholders := make([]string, 12)
		for j := range placeholders {
			placeholders[j] = fmt.Sprintf("$%d", base+j+1)
		}
		rows = append(rows, "("+strings.Join(placeholders, ", ")+")")
		args = append(args, id, name, category, price, description, brand,
			tags, imageURL, rating, numRatings, stock, createdAt)
	}

	if len(rows) == 0 {
		return nil
	}

	query := `INSERT INTO products (id, name, category, price, description, brand,
		tags, image_url, rating, num_ratings, stock, created_at) VALUES ` +
		strings.Join(rows, ", ")

	_, err := pool.Exec(ctx, query, args...)
	return err
}

func seedInteractions(ctx context.Context, pool *pgxpool.Pool, rng *rand.Rand, n int) error {
	kinds := []string{"view", "cart", "purchase", "rating", "wishlist"}
	kindWeights := []float64{0.5, 0.15, 0.15, 0.1, 0.1}

	rows := []string{}
	args := []any{}

	for range n {
		// Power-law activity: a few heavy users and popular products
		// dominate the log, like real traffic.
		userNum := int(math.Ceil(math.Pow(rng.Float64(), 1.5) * numUsers))
		userNum = max(1, min(userNum, numUsers))

		productNum := int(math.Ceil(math.Pow(rng.Float64(), 1.3) * numProducts))
		productNum = max(1, min(productNum, numProducts))

		kind := weightedChoice(rng, kinds, kindWeights)

		var rating *float64
		if kind == "rating" {
			r := float64(rng.Intn(9)+2) / 2 // 1.0 to 5.0 in half steps
			rating = &r
		}
		createdAt := time.Now().AddDate(0, 0, -rng.Intn(60))

		base := len(args)
		rows = append(rows, fmt.Sprintf("($%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5))
		args = append(args,
			fmt.Sprintf("user_%d", userNum),
			fmt.Sprintf("prod_%d", productNum),
			kind, rating, createdAt)
	}

	if len(rows) == 0 {
		return nil
	}

	query := `INSERT INTO user_interactions (user_id, product_id, interaction_type, rating, created_at) VALUES ` +
		strings.Join(rows, ", ")

	_, err := pool.Exec(ctx, query, args...)
	return err
}

func powerLawScore(rng *rand.Rand) float64 {
	u := rng.Float64()
	if u == 0 {
		u = 0.001
	}
	raw := math.Pow(u, 2.0)
	if raw < 0.01 {
		raw = 0.01
	}
	return math.Round(raw*100) / 100
}

func weightedChoice(rng *rand.Rand, choices []string, weights []float64) string {
	total := 0.0
	for _, w := range weights {
		total += w
	}
	r := rng.Float64() * total
	cumulative := 0.0
	for i, w := range weights {
		cumulative += w
		if r <= cumulative {
			return choices[i]
		}
	}
	return choices[len(choices)-1]
}
