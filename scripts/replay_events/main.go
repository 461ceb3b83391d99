// Command replay_events re-feeds captured attendance events into the
// ingestion API. Because ingestion is idempotent on source_id, replaying a
// capture file after an outage or a ledger correction is safe; already
// applied events report as duplicates.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"
)

type event struct {
	EmployeeID    string     `json:"employee_id"`
	Date          time.Time  `json:"date"`
	CheckIn       *time.Time `json:"check_in,omitempty"`
	ExpectedStart time.Time  `json:"expected_start"`
	SourceID      string     `json:"source_id"`
}

type application struct {
	SourceID      string   `json:"source_id"`
	Duplicate     bool     `json:"duplicate"`
	FlaggedReview bool     `json:"flagged_for_review"`
	FormalDelta   int      `json:"formal_delta"`
	Escalations   []string `json:"escalation_record_ids"`
}

type envelope struct {
	Data  *application `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func main() {
	var (
		baseURL string
		token   string
		path    string
		timeout time.Duration
	)

	flag.StringVar(&baseURL, "base", "http://localhost:8080/api/v1", "API base URL")
	flag.StringVar(&token, "token", os.Getenv("REPLAY_TOKEN"), "Bearer token with the SERVICE role")
	flag.StringVar(&path, "events", "events.json", "Path to JSON array of attendance events")
	flag.DurationVar(&timeout, "timeout", 10*time.Second, "HTTP client timeout")
	flag.Parse()

	events, err := loadEvents(path)
	if err != nil {
		log.Fatalf("failed to load events: %v", err)
	}

	client := &http.Client{Timeout: timeout}
	var applied, duplicates, reviews, escalations, failures int

	for _, ev := range events {
		app, err := postEvent(client, baseURL, token, ev)
		if err != nil {
			failures++
			log.Printf("source_id=%s error: %v", ev.SourceID, err)
			continue
		}
		switch {
		case app.Duplicate:
			duplicates++
		case app.FlaggedReview:
			reviews++
		default:
			applied++
		}
		escalations += len(app.Escalations)
	}

	fmt.Printf("replayed %d events: %d applied, %d duplicates, %d flagged for review, %d escalations, %d failures\n",
		len(events), applied, duplicates, reviews, escalations, failures)
	if failures > 0 {
		os.Exit(1)
	}
}

func loadEvents(path string) ([]event, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var events []event
	if err := json.Unmarshal(raw, &events); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(events) == 0 {
		return nil, fmt.Errorf("%s contains no events", path)
	}
	return events, nil
}

func postEvent(client *http.Client, baseURL, token string, ev event) (*application, error) {
	body, err := json.Marshal(ev)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequest(http.MethodPost, baseURL+"/attendance/events", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("decode response (status %d): %w", resp.StatusCode, err)
	}
	if env.Error != nil {
		return nil, fmt.Errorf("%s: %s (status %d)", env.Error.Code, env.Error.Message, resp.StatusCode)
	}
	if env.Data == nil {
		return nil, fmt.Errorf("empty response (status %d)", resp.StatusCode)
	}
	return env.Data, nil
}
