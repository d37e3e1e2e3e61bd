//go:build ignore
// +build ignore

// Seed script for local development.
// Creates two accounts, a shared profile, a campaign, and a few orders so
// the API has data to browse right after startup.
//
// Usage:
//   go run scripts/seed_demo_data.go --base-url=http://localhost:8080
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
)

var baseURL = flag.String("base-url", "http://localhost:8080", "API base URL")

func call(account, method, path string, body, out interface{}) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequest(method, *baseURL+"/api/v1"+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Account-ID", account)
	req.Header.Set("X-Account-Email", account+"@example.com")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("%s %s: status %d", method, path, resp.StatusCode)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func main() {
	flag.Parse()

	const owner = "acct-demo-owner"
	const helper = "acct-demo-helper"

	var profile struct {
		ID string `json:"id"`
	}
	if err := call(owner, "POST", "/profiles", map[string]string{"name": "Lincoln Elementary PTA"}, &profile); err != nil {
		log.Fatalf("create profile: %v", err)
	}
	log.Printf("profile %s created", profile.ID)

	if err := call(owner, "PUT", "/profiles/"+profile.ID+"/shares/"+helper,
		map[string]interface{}{"permissions": []string{"READ", "WRITE"}}, nil); err != nil {
		log.Fatalf("share profile: %v", err)
	}
	log.Printf("profile shared with %s", helper)

	var campaign struct {
		ID string `json:"id"`
	}
	if err := call(owner, "POST", "/profiles/"+profile.ID+"/campaigns", map[string]string{
		"name":       "Fall Wrapping Paper Drive",
		"start_date": "2026-09-15",
		"end_date":   "2026-10-15",
	}, &campaign); err != nil {
		log.Fatalf("create campaign: %v", err)
	}
	log.Printf("campaign %s created", campaign.ID)

	customers := []string{"Dana Ruiz", "Sam Okafor", "Lee Tran"}
	for i, name := range customers {
		order := map[string]interface{}{
			"customer_name": name,
			"line_items": []map[string]interface{}{
				{"product_id": "wrap-classic", "quantity": i + 1, "unit_price_cents": 1200},
			},
		}
		if err := call(helper, "POST", "/campaigns/"+campaign.ID+"/orders", order, nil); err != nil {
			log.Fatalf("create order for %s: %v", name, err)
		}
	}
	log.Printf("%d orders created", len(customers))

	log.Println("demo data seeded")
}
