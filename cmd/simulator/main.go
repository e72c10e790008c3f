package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"toex-backend/internal/tracker"
)

// simulator drives simulated study sessions against a running API instance.
// Each virtual user registers, logs in and runs a session tracker that syncs
// accumulated minutes the same way the web client does.

type options struct {
	baseURL  string
	users    int
	duration time.Duration
	password string
}

func main() {
	opts := options{}
	flag.StringVar(&opts.baseURL, "url", "http://localhost:8080", "API base URL")
	flag.IntVar(&opts.users, "users", 5, "number of virtual users")
	flag.DurationVar(&opts.duration, "duration", 2*time.Minute, "how long each user studies")
	flag.StringVar(&opts.password, "password", "simulated1pw", "password for generated accounts")
	flag.Parse()

	log.Printf("Starting %d virtual users against %s for %s", opts.users, opts.baseURL, opts.duration)

	var wg sync.WaitGroup
	for i := 0; i < opts.users; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			if err := runUser(n, opts); err != nil {
				log.Printf("user %d: %v", n, err)
			}
		}(i)
	}
	wg.Wait()

	log.Println("Simulation finished")
}

func runUser(n int, opts options) error {
	client := &http.Client{Timeout: 15 * time.Second}
	email := fmt.Sprintf("sim-%s@example.com", uuid.New().String()[:8])

	token, userID, err := authenticate(client, opts, email)
	if err != nil {
		return fmt.Errorf("auth: %w", err)
	}

	syncFn := func(ctx context.Context, _ uuid.UUID, minutes int, timestamp time.Time) error {
		body, _ := json.Marshal(map[string]interface{}{
			"session_time_minutes": minutes,
			"client_timestamp":     timestamp.UTC().Format(time.RFC3339),
		})

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, opts.baseURL+"/api/v1/sessions/sync", bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+token)

		resp, err := client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("sync returned %d", resp.StatusCode)
		}

		var out struct {
			TotalStudyTime int `json:"total_study_time"`
			Streak         int `json:"streak"`
		}
		json.NewDecoder(resp.Body).Decode(&out)
		log.Printf("user %d: synced %d min (total=%d streak=%d)", n, minutes, out.TotalStudyTime, out.Streak)
		return nil
	}

	tr := tracker.New(syncFn, tracker.DefaultInactivityThreshold, tracker.DefaultSyncInterval)
	tr.Start(userID)
	defer tr.End(context.Background())

	deadline := time.Now().Add(opts.duration)
	for time.Now().Before(deadline) {
		// Simulate bursts of activity with occasional tab switches.
		switch rand.Intn(10) {
		case 0:
			tr.Hide(context.Background())
			time.Sleep(time.Duration(1+rand.Intn(5)) * time.Second)
			tr.Show()
		default:
			tr.Touch()
			time.Sleep(time.Duration(500+rand.Intn(2000)) * time.Millisecond)
		}
	}

	return nil
}

func authenticate(client *http.Client, opts options, email string) (string, uuid.UUID, error) {
	regBody, _ := json.Marshal(map[string]string{
		"display_name": "Simulated User",
		"email":        email,
		"password":     opts.password,
	})
	resp, err := client.Post(opts.baseURL+"/api/v1/auth/register", "application/json", bytes.NewReader(regBody))
	if err != nil {
		return "", uuid.Nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return "", uuid.Nil, fmt.Errorf("register returned %d", resp.StatusCode)
	}

	var reg struct {
		UserID uuid.UUID `json:"user_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&reg); err != nil {
		return "", uuid.Nil, err
	}

	// Fresh accounts need email verification before login. Against a dev
	// server the verification token is printed to the console; mark the
	// account verified there before pointing the simulator at it.
	loginBody, _ := json.Marshal(map[string]string{
		"email":    email,
		"password": opts.password,
	})
	loginResp, err := client.Post(opts.baseURL+"/api/v1/auth/login", "application/json", bytes.NewReader(loginBody))
	if err != nil {
		return "", uuid.Nil, err
	}
	defer loginResp.Body.Close()

	if loginResp.StatusCode != http.StatusOK {
		return "", uuid.Nil, fmt.Errorf("login returned %d (verify the account first)", loginResp.StatusCode)
	}

	var tokens struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(loginResp.Body).Decode(&tokens); err != nil {
		return "", uuid.Nil, err
	}

	return tokens.AccessToken, reg.UserID, nil
}
