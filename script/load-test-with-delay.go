package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Transaction represents the transaction payload
type Transaction struct {
	Type     string `json:"type"`
	Amount   string `json:"amount"`
	Category string `json:"category"`
}

// AppliedTransaction is the part of the 201 response the test checks
type AppliedTransaction struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Amount  string `json:"amount"`
	Balance string `json:"balance"`
}

// Wallet is the part of a wallet view the test checks
type Wallet struct {
	ID           string               `json:"id"`
	Balance      string               `json:"balance"`
	Transactions []AppliedTransaction `json:"transactions"`
}

// User is the part of a user view the test checks
type User struct {
	ExternalID string   `json:"externalId"`
	Wallets    []Wallet `json:"wallets"`
}

// TestResult contains metrics for a single request
type TestResult struct {
	Success      bool
	ResponseTime time.Duration
	StatusCode   int
	Error        error
}

// TestStats contains aggregated test statistics
type TestStats struct {
	TotalRequests      int
	SuccessfulRequests int
	FailedRequests     int
	TotalTime          time.Duration
	MinResponseTime    time.Duration
	MaxResponseTime    time.Duration
	TotalResponseTime  time.Duration
	ResponseTimes      []time.Duration
	StatusCounts       map[int]int
	ErrorCounts        map[string]int
	ScenarioStats      map[string]int
	NetByWallet        map[string]decimal.Decimal // applied receives minus applied sends
	Lock               sync.Mutex
}

// TransactionScenario defines a transaction scenario
type TransactionScenario struct {
	Name     string // For stats tracking
	Type     string
	Amount   string
	Category string
}

func main() {
	concurrency := flag.Int("c", 5, "Number of concurrent goroutines")
	totalRequests := flag.Int("n", 100, "Total number of requests to make")
	users := flag.Int("u", 3, "Number of users to provision and distribute load across")
	baseURL := flag.String("url", "http://localhost:5001/api", "Base URL for the API")
	initial := flag.String("initial", "100.00", "Balance every wallet is set to before the run")
	delayMs := flag.Int("delay", 100, "Delay between requests in milliseconds")
	flag.Parse()

	client := &http.Client{Timeout: 10 * time.Second}

	initialBalance, err := decimal.NewFromString(*initial)
	if err != nil {
		fmt.Printf("Invalid initial balance %q: %v\n", *initial, err)
		os.Exit(1)
	}

	runID := uuid.NewString()[:8]
	walletIDs := make([]string, 0, *users)
	owners := make(map[string]string, *users)
	for i := 0; i < *users; i++ {
		externalID := fmt.Sprintf("loadtest_%s_%d", runID, i)
		walletID, err := setupWallet(client, *baseURL, externalID, *initial)
		if err != nil {
			fmt.Printf("Failed to set up %s: %v\n", externalID, err)
			os.Exit(1)
		}
		walletIDs = append(walletIDs, walletID)
		owners[walletID] = externalID
	}

	scenarios := []TransactionScenario{
		{"Receive Small", "receive", "10.00", "salary"},
		{"Receive Large", "receive", "30.00", "salary"},
		{"Send Small", "send", "15.00", "food"},
		{"Send Medium", "send", "40.00", "rent"},
		{"Send Large", "send", "60.00", "travel"},
	}

	fmt.Printf("Load testing API across %d wallets\n", len(walletIDs))
	fmt.Printf("Transaction scenarios: %d\n", len(scenarios))
	fmt.Printf("Concurrency: %d goroutines\n", *concurrency)
	fmt.Printf("Total requests: %d\n", *totalRequests)
	fmt.Printf("Delay between requests: %d ms\n", *delayMs)

	stats := &TestStats{
		TotalRequests:   *totalRequests,
		MinResponseTime: time.Hour,
		ResponseTimes:   make([]time.Duration, 0, *totalRequests),
		StatusCounts:    make(map[int]int),
		ErrorCounts:     make(map[string]int),
		ScenarioStats:   make(map[string]int),
		NetByWallet:     make(map[string]decimal.Decimal),
	}

	results := make(chan TestResult, *totalRequests)
	jobs := make(chan int, *totalRequests)

	var wg sync.WaitGroup
	for i := 0; i < *concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			worker(client, *baseURL, *delayMs, walletIDs, scenarios, jobs, results, stats)
		}()
	}

	go func() {
		for i := 0; i < *totalRequests; i++ {
			jobs <- i
		}
		close(jobs)
	}()

	var collected sync.WaitGroup
	collected.Add(1)
	go func() {
		defer collected.Done()
		for result := range results {
			stats.Lock.Lock()
			stats.StatusCounts[result.StatusCode]++
			if result.Success {
				stats.SuccessfulRequests++
			} else {
				stats.FailedRequests++
				errMsg := "unknown"
				if result.Error != nil {
					errMsg = result.Error.Error()
				}
				stats.ErrorCounts[errMsg]++
			}

			stats.ResponseTimes = append(stats.ResponseTimes, result.ResponseTime)
			stats.TotalResponseTime += result.ResponseTime
			stats.MinResponseTime = min(stats.MinResponseTime, result.ResponseTime)
			stats.MaxResponseTime = max(stats.MaxResponseTime, result.ResponseTime)
			stats.Lock.Unlock()
		}
	}()

	startTime := time.Now()
	fmt.Println("Test running...")

	ticker := time.NewTicker(1 * time.Second)
	go func() {
		for range ticker.C {
			stats.Lock.Lock()
			completed := stats.SuccessfulRequests + stats.FailedRequests
			if completed > 0 {
				fmt.Printf("Progress: %d/%d requests completed (%.1f%%)\n",
					completed, stats.TotalRequests, float64(completed)/float64(stats.TotalRequests)*100)
			}
			stats.Lock.Unlock()
		}
	}()

	wg.Wait()
	close(results)
	collected.Wait()
	ticker.Stop()

	stats.TotalTime = time.Since(startTime)

	printResults(stats)

	if !verifyLedger(client, *baseURL, owners, initialBalance, stats) {
		os.Exit(1)
	}
}

// setupWallet provisions externalID and overrides its wallet balance
func setupWallet(client *http.Client, baseURL, externalID, balance string) (string, error) {
	var user User
	status, err := call(client, http.MethodPost, baseURL+"/users", map[string]string{
		"clerkId":  externalID,
		"email":    externalID + "@loadtest.local",
		"username": externalID,
	}, &user)
	if err != nil {
		return "", err
	}
	if status != http.StatusCreated || len(user.Wallets) == 0 {
		return "", fmt.Errorf("provision returned %d with %d wallets", status, len(user.Wallets))
	}

	walletID := user.Wallets[0].ID
	status, err = call(client, http.MethodPatch, baseURL+"/wallets/"+walletID, map[string]string{"balance": balance}, nil)
	if err != nil {
		return "", err
	}
	if status != http.StatusOK {
		return "", fmt.Errorf("set balance returned %d", status)
	}
	return walletID, nil
}

func worker(client *http.Client, baseURL string, delayMs int, walletIDs []string,
	scenarios []TransactionScenario, jobs <-chan int, results chan<- TestResult, stats *TestStats) {

	for range jobs {
		if delayMs > 0 {
			time.Sleep(time.Duration(delayMs) * time.Millisecond)
		}

		walletID := walletIDs[rand.Intn(len(walletIDs))]
		scenario := scenarios[rand.Intn(len(scenarios))]

		stats.Lock.Lock()
		stats.ScenarioStats[scenario.Name]++
		stats.Lock.Unlock()

		var applied AppliedTransaction
		startTime := time.Now()
		statusCode, err := call(client, http.MethodPost, baseURL+"/wallets/"+walletID+"/transactions", Transaction{
			Type:     scenario.Type,
			Amount:   scenario.Amount,
			Category: scenario.Category,
		}, &applied)

		result := TestResult{ResponseTime: time.Since(startTime), StatusCode: statusCode, Error: err}
		switch {
		case err != nil:
		case statusCode == http.StatusCreated:
			result.Success = true
			amount := decimal.RequireFromString(applied.Amount)
			if applied.Type == "send" {
				amount = amount.Neg()
			}
			stats.Lock.Lock()
			stats.NetByWallet[walletID] = stats.NetByWallet[walletID].Add(amount)
			stats.Lock.Unlock()
		case statusCode == http.StatusBadRequest:
			// rejected overdraws are an expected outcome
			result.Success = true
		default:
			result.Error = fmt.Errorf("HTTP status code %d", statusCode)
		}

		results <- result
	}
}

// call sends body as JSON with a fresh Idempotency-Key and decodes a 2xx response into out
func call(client *http.Client, method, url string, body, out any) (int, error) {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return 0, err
		}
	}

	req, err := http.NewRequest(method, url, bytes.NewReader(payload))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", uuid.NewString())

	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if out != nil && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode response: %w", err)
		}
	}
	return resp.StatusCode, nil
}

// verifyLedger checks every wallet against the initial balance plus the applied entries
func verifyLedger(client *http.Client, baseURL string, owners map[string]string, initial decimal.Decimal, stats *TestStats) bool {
	fmt.Println("\n----------------- LEDGER CHECK -----------------")
	ok := true
	for walletID, externalID := range owners {
		var user User
		status, err := call(client, http.MethodGet, baseURL+"/users/"+externalID, nil, &user)
		if err != nil || status != http.StatusOK || len(user.Wallets) == 0 {
			fmt.Printf("Wallet %s: could not load view (status %d, err %v)\n", walletID, status, err)
			ok = false
			continue
		}

		balance := decimal.RequireFromString(user.Wallets[0].Balance)
		expected := initial.Add(stats.NetByWallet[walletID])
		if !balance.Equal(expected) || balance.IsNegative() {
			fmt.Printf("❌ Wallet %s: balance %s, expected %s\n", walletID, balance.StringFixed(2), expected.StringFixed(2))
			ok = false
			continue
		}
		fmt.Printf("✅ Wallet %s: balance %s over %d entries\n", walletID, balance.StringFixed(2), len(user.Wallets[0].Transactions))
	}
	return ok
}

func percentile(sorted []time.Duration, p int) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	return sorted[len(sorted)*p/100]
}

func printResults(stats *TestStats) {
	tps := float64(stats.SuccessfulRequests) / stats.TotalTime.Seconds()

	var avgResponseTime time.Duration
	if len(stats.ResponseTimes) > 0 {
		avgResponseTime = stats.TotalResponseTime / time.Duration(len(stats.ResponseTimes))
	}

	sortedTimes := append([]time.Duration(nil), stats.ResponseTimes...)
	sort.Slice(sortedTimes, func(i, j int) bool { return sortedTimes[i] < sortedTimes[j] })

	fmt.Println("\n================= TEST RESULTS =================")
	fmt.Printf("Total Requests:      %d\n", stats.TotalRequests)
	fmt.Printf("Successful Requests: %d (%.1f%%)\n", stats.SuccessfulRequests,
		float64(stats.SuccessfulRequests)/float64(stats.TotalRequests)*100)
	fmt.Printf("Failed Requests:     %d (%.1f%%)\n", stats.FailedRequests,
		float64(stats.FailedRequests)/float64(stats.TotalRequests)*100)
	fmt.Printf("Total Test Time:     %.2f seconds\n", stats.TotalTime.Seconds())
	fmt.Printf("TPS:                 %.2f\n", tps)

	fmt.Println("\n----------------- RESPONSE TIMES -----------------")
	fmt.Printf("Average Response:    %v\n", avgResponseTime)
	fmt.Printf("Minimum Response:    %v\n", stats.MinResponseTime)
	fmt.Printf("Maximum Response:    %v\n", stats.MaxResponseTime)
	fmt.Printf("P50 Response:        %v\n", percentile(sortedTimes, 50))
	fmt.Printf("P90 Response:        %v\n", percentile(sortedTimes, 90))
	fmt.Printf("P99 Response:        %v\n", percentile(sortedTimes, 99))

	fmt.Println("\n----------------- STATUS CODES -----------------")
	for status, count := range stats.StatusCounts {
		fmt.Printf("%d: %d\n", status, count)
	}

	fmt.Println("\n----------------- SCENARIO DISTRIBUTION -----------------")
	for scenario, count := range stats.ScenarioStats {
		fmt.Printf("%-15s: %d requests (%.1f%%)\n", scenario, count,
			float64(count)/float64(stats.TotalRequests)*100)
	}

	if stats.FailedRequests > 0 {
		fmt.Println("\n----------------- ERROR DISTRIBUTION -----------------")
		for errMsg, count := range stats.ErrorCounts {
			fmt.Printf("%-40s: %d (%.1f%%)\n", errMsg, count,
				float64(count)/float64(stats.TotalRequests)*100)
		}
	}
}
