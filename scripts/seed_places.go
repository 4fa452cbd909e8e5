// seed_places.go loads a YAML list of places and upserts them through the
// admin API.
//
// Usage:
//
//	go run scripts/seed_places.go -file scripts/places.example.yaml -api http://localhost:8700 -token $DUEL_ADMIN_TOKEN
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"golang.org/x/time/rate"
	"gopkg.in/yaml.v3"

	"github.com/MikeSquared-Agency/Duel/internal/store"
)

type seedFile struct {
	Places []store.Place `yaml:"places"`
}

func main() {
	path := flag.String("file", "places.yaml", "path to YAML place list")
	apiURL := flag.String("api", "http://localhost:8700", "Duel API base URL")
	token := flag.String("token", os.Getenv("DUEL_ADMIN_TOKEN"), "admin bearer token")
	rps := flag.Float64("rps", 10, "max requests per second")
	dryRun := flag.Bool("dry-run", false, "print places without posting")
	flag.Parse()

	data, err := os.ReadFile(*path)
	if err != nil {
		log.Fatalf("read %s: %v", *path, err)
	}
	var seed seedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		log.Fatalf("parse %s: %v", *path, err)
	}

	log.Printf("parsed %d places from %s", len(seed.Places), *path)

	if *dryRun {
		for i, p := range seed.Places {
			price := "n/a"
			if p.PriceLevel != nil {
				price = fmt.Sprintf("%d", *p.PriceLevel)
			}
			fmt.Printf("[%d] %s %s (%.5f,%.5f reviews=%d price=%s)\n", i+1, p.ID, p.Name, p.Lat, p.Lng, p.ReviewCount, price)
		}
		return
	}

	ctx := context.Background()
	limiter := rate.NewLimiter(rate.Limit(*rps), 1)
	client := &http.Client{Timeout: 10 * time.Second}
	upserted, skipped := 0, 0
	for _, p := range seed.Places {
		if err := limiter.Wait(ctx); err != nil {
			log.Fatalf("rate limiter: %v", err)
		}
		body, _ := json.Marshal(p)
		req, err := http.NewRequestWithContext(ctx, "POST", *apiURL+"/api/v1/places", bytes.NewReader(body))
		if err != nil {
			log.Printf("skip %q: %v", p.ID, err)
			skipped++
			continue
		}
		req.Header.Set("Content-Type", "application/json")
		if *token != "" {
			req.Header.Set("Authorization", "Bearer "+*token)
		}

		resp, err := client.Do(req)
		if err != nil {
			log.Printf("skip %q: %v", p.ID, err)
			skipped++
			continue
		}
		resp.Body.Close()

		if resp.StatusCode == http.StatusOK {
			upserted++
		} else {
			log.Printf("skip %q: status %d", p.ID, resp.StatusCode)
			skipped++
		}
	}

	log.Printf("done: %d upserted, %d skipped", upserted, skipped)
}
