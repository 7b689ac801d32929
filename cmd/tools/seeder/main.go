package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		log.Fatalf("Failed to open DB: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping DB: %v", err)
	}

	storeIDs := seedStores(db)
	catIDs := seedCategories(db)
	seedTaxRules(db, catIDs)
	prodIDs := seedProducts(db, catIDs)
	seedInventory(db, storeIDs, prodIDs)

	log.Println("Seeding completed successfully!")
}

func seedStores(db *sql.DB) map[string]string {
	stores := []struct {
		Name    string
		Address string
	}{
		{"Connaught Place Store", "Block A, Connaught Place, New Delhi"},
		{"Bandra West Store", "Linking Road, Bandra West, Mumbai"},
		{"Koramangala Store", "80 Feet Road, Koramangala, Bengaluru"},
	}

	fmt.Println("Seeding Stores...")
	ids := make(map[string]string)
	for _, s := range stores {
		var id string
		err := db.QueryRow(`
			INSERT INTO stores (name, address)
			VALUES ($1, $2)
			ON CONFLICT DO NOTHING
			RETURNING id;
		`, s.Name, s.Address).Scan(&id)
		if err == sql.ErrNoRows {
			if err := db.QueryRow("SELECT id FROM stores WHERE name = $1", s.Name).Scan(&id); err != nil {
				log.Printf("Failed to get ID for store %s: %v", s.Name, err)
				continue
			}
		} else if err != nil {
			log.Printf("Failed to seed store %s: %v", s.Name, err)
			continue
		}
		ids[s.Name] = id
	}
	return ids
}

func seedCategories(db *sql.DB) map[string]string {
	categories := []string{
		"Apparel", "Footwear", "Accessories", "Electronics", "Grocery", "Books",
	}

	fmt.Println("Seeding Categories...")
	ids := make(map[string]string)
	for _, name := range categories {
		var id string
		err := db.QueryRow(`
			INSERT INTO categories (name)
			VALUES ($1)
			ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
			RETURNING id;
		`, name).Scan(&id)
		if err != nil {
			log.Printf("Failed to seed category %s: %v", name, err)
			continue
		}
		ids[name] = id
	}
	return ids
}

func seedTaxRules(db *sql.DB, catIDs map[string]string) {
	rules := []struct {
		Name     string
		Category string
		Kind     string
		Value    string
	}{
		{"GST 12%", "Apparel", "percentage", "12"},
		{"GST 18%", "Footwear", "percentage", "18"},
		{"GST 18%", "Accessories", "percentage", "18"},
		{"GST 28%", "Electronics", "percentage", "28"},
		{"E-Waste Levy", "Electronics", "fixed", "25"},
		{"GST 5%", "Grocery", "percentage", "5"},
	}

	fmt.Println("Seeding Tax Rules...")
	for _, r := range rules {
		catID, ok := catIDs[r.Category]
		if !ok {
			log.Printf("Missing category ID for %s", r.Category)
			continue
		}
		_, err := db.Exec(`
			INSERT INTO tax_rules (name, category_id, kind, value)
			SELECT $1, $2, $3, $4
			WHERE NOT EXISTS (
				SELECT 1 FROM tax_rules WHERE name = $1 AND category_id = $2
			);
		`, r.Name, catID, r.Kind, r.Value)
		if err != nil {
			log.Printf("Failed to seed tax rule %s: %v", r.Name, err)
		}
	}
}

func seedProducts(db *sql.DB, catIDs map[string]string) map[string]string {
	products := []struct {
		Name     string
		Category string
		Price    string
	}{
		{"Cotton Kurta", "Apparel", "1299.00"},
		{"Denim Jeans", "Apparel", "1999.00"},
		{"Silk Saree", "Apparel", "4500.00"},
		{"Running Shoes", "Footwear", "2799.00"},
		{"Leather Sandals", "Footwear", "1499.00"},
		{"Canvas Sneakers", "Footwear", "999.00"},
		{"Leather Belt", "Accessories", "599.00"},
		{"Analog Watch", "Accessories", "2499.00"},
		{"Bluetooth Earbuds", "Electronics", "3499.00"},
		{"Power Bank 20000mAh", "Electronics", "1799.00"},
		{"Basmati Rice 5kg", "Grocery", "650.00"},
		{"Masala Chai 500g", "Grocery", "280.00"},
		{"Paperback Novel", "Books", "399.00"},
	}

	fmt.Println("Seeding Products...")
	ids := make(map[string]string)
	for _, p := range products {
		catID, ok := catIDs[p.Category]
		if !ok {
			log.Printf("Missing category ID for %s", p.Category)
			continue
		}
		var id string
		err := db.QueryRow(`
			INSERT INTO products (name, price, category_id)
			SELECT $1, $2, $3
			WHERE NOT EXISTS (
				SELECT 1 FROM products WHERE name = $1 AND category_id = $3
			)
			RETURNING id;
		`, p.Name, p.Price, catID).Scan(&id)
		if err == sql.ErrNoRows {
			if err := db.QueryRow(
				"SELECT id FROM products WHERE name = $1 AND category_id = $2", p.Name, catID,
			).Scan(&id); err != nil {
				log.Printf("Failed to get ID for product %s: %v", p.Name, err)
				continue
			}
		} else if err != nil {
			log.Printf("Failed to seed product %s: %v", p.Name, err)
			continue
		}
		ids[p.Name] = id
	}
	return ids
}

func seedInventory(db *sql.DB, storeIDs, prodIDs map[string]string) {
	fmt.Println("Seeding Inventory...")
	for _, storeID := range storeIDs {
		for name, prodID := range prodIDs {
			_, err := db.Exec(`
				INSERT INTO inventory (store_id, product_id, category_id, quantity)
				SELECT $1, p.id, p.category_id, 100
				FROM products p
				WHERE p.id = $2
				ON CONFLICT (store_id, product_id, category_id) DO UPDATE
				SET quantity = GREATEST(inventory.quantity, 100), last_updated = now();
			`, storeID, prodID)
			if err != nil {
				log.Printf("Failed to seed inventory for %s: %v", name, err)
			}
		}
	}
}
