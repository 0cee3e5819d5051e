package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"time"
)

// End-to-end smoke test against a running hfrat-api: admin provisions a
// facility and a reporter, the reporter submits a snapshot, the dashboard
// reflects it, and logout revokes the reporter's token.
func main() {
	base := os.Getenv("HFRAT_API_URL")
	if base == "" {
		base = "http://localhost:8080"
	}
	adminEmail := os.Getenv("HFRAT_ADMIN_EMAIL")
	adminPassword := os.Getenv("HFRAT_ADMIN_PASSWORD")
	if adminEmail == "" || adminPassword == "" {
		log.Fatal("HFRAT_ADMIN_EMAIL and HFRAT_ADMIN_PASSWORD are required")
	}

	client := &http.Client{Timeout: 10 * time.Second}
	suffix := rand.New(rand.NewSource(time.Now().UnixNano())).Int63()

	adminToken := login(client, base, adminEmail, adminPassword)

	var facility struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	call(client, http.MethodPost, base+"/api/admin/facilities", adminToken, map[string]any{
		"name":    fmt.Sprintf("Smoke Facility %d", suffix),
		"country": "KZ",
		"city":    "Almaty",
	}, http.StatusCreated, &facility)

	reporterEmail := fmt.Sprintf("smoke-reporter-%d@example.org", suffix)
	call(client, http.MethodPost, base+"/api/admin/users", adminToken, map[string]any{
		"email":       reporterEmail,
		"password":    "smoke-test-password",
		"role":        "reporter",
		"facility_id": facility.ID,
	}, http.StatusCreated, nil)

	reporterToken := login(client, base, reporterEmail, "smoke-test-password")

	call(client, http.MethodPost, base+"/api/reporter/reports", reporterToken, map[string]any{
		"icu_beds_available":    3,
		"ventilators_available": 7,
		"staff_on_duty":         42,
	}, http.StatusCreated, nil)

	var dashboard struct {
		Facilities []struct {
			FacilityID       string `json:"facility_id"`
			ICUBedsAvailable *int   `json:"icu_beds_available"`
		} `json:"facilities"`
	}
	call(client, http.MethodGet, base+"/api/monitor/dashboard", adminToken, nil, http.StatusOK, &dashboard)
	found := false
	for _, row := range dashboard.Facilities {
		if row.FacilityID == facility.ID {
			if row.ICUBedsAvailable == nil || *row.ICUBedsAvailable != 3 {
				log.Fatalf("dashboard shows wrong snapshot for %s", facility.ID)
			}
			found = true
		}
	}
	if !found {
		log.Fatalf("facility %s missing from dashboard", facility.ID)
	}

	call(client, http.MethodPost, base+"/api/auth/logout", reporterToken, nil, http.StatusOK, nil)

	// Revoked token must be rejected.
	call(client, http.MethodGet, base+"/api/reporter/reports/me", reporterToken, nil, http.StatusUnauthorized, nil)

	// Admin cleans up.
	call(client, http.MethodDelete, base+"/api/admin/facilities/"+facility.ID, adminToken, nil, http.StatusOK, nil)

	fmt.Printf("✅ hfrat-api smoke test passed: facility=%s reporter=%s\n", facility.ID, reporterEmail)
}

func login(client *http.Client, base, email, password string) string {
	var out struct {
		AccessToken string `json:"access_token"`
	}
	call(client, http.MethodPost, base+"/api/auth/login", "", map[string]any{
		"email":    email,
		"password": password,
	}, http.StatusOK, &out)
	if out.AccessToken == "" {
		log.Fatalf("login for %s returned empty token", email)
	}
	return out.AccessToken
}

func call(client *http.Client, method, url, token string, body any, wantStatus int, out any) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			log.Fatalf("encode body for %s %s: %v", method, url, err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		log.Fatalf("build request %s %s: %v", method, url, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := client.Do(req)
	if err != nil {
		log.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != wantStatus {
		log.Fatalf("%s %s: status %d, want %d", method, url, resp.StatusCode, wantStatus)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			log.Fatalf("decode response from %s %s: %v", method, url, err)
		}
	}
}
