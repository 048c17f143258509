package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

var baseURL = flag.String("url", "http://localhost:8080", "base URL of a running server")

var log = logrus.New()

func main() {
	flag.Parse()
	// Wait for server to start
	time.Sleep(2 * time.Second)

	checkEndpoint("GET", "/health", nil, 200)
	checkEndpoint("GET", "/categories?type=INCOME", nil, 200)

	tx := checkEndpoint("POST", "/transactions", map[string]interface{}{
		"amount":   "42.50",
		"category": "food",
		"type":     "EXPENSE",
		"note":     "e2e lunch",
	}, 201)
	log.Infof("created transaction %v", tx["id"])

	checkEndpoint("POST", "/transactions", map[string]interface{}{
		"amount":   "10",
		"type":     "INCOME",
		"category": "food",
	}, 400)

	checkEndpoint("GET", "/transactions?limit=5", nil, 200)
	checkEndpoint("GET", "/summary/monthly", nil, 200)
	checkEndpoint("GET", "/summary/recent", nil, 200)
	checkEndpoint("GET", "/analysis/categories?type=EXPENSE", nil, 200)

	symbol := fmt.Sprintf("E2E%d", time.Now().Unix()%1000)
	trade(symbol, "buy", "10", "100", 200)
	trade(symbol, "buy", "10", "200", 200)
	res := trade(symbol, "sell", "5", "300", 200)
	if res["outcome"] != "reduced" {
		log.Fatalf("expected a reduced position, got %v", res["outcome"])
	}
	trade(symbol, "sell", "0", "1", 400)

	res = trade(symbol, "sell", "15", "1", 200)
	if res["outcome"] != "closed" {
		log.Fatalf("expected a closed position, got %v", res["outcome"])
	}

	checkEndpoint("GET", "/portfolio", nil, 200)
	checkEndpoint("GET", "/quotes?symbols=AAPL,MSFT", nil, 200)
	// 404 until a quote for AAPL has been recorded
	checkEndpoint("GET", "/quotes/AAPL/latest", nil, 200, 404)

	log.Info("ALL TESTS PASSED")
}

func trade(symbol, side, shares, price string, expectedStatus int) map[string]interface{} {
	return checkEndpoint("POST", "/portfolio/trades", map[string]interface{}{
		"symbol": symbol,
		"side":   side,
		"shares": shares,
		"price":  price,
	}, expectedStatus)
}

func checkEndpoint(method, path string, body interface{}, expectedStatus ...int) map[string]interface{} {
	log.Infof("testing %s %s", method, path)
	var bodyReader io.Reader
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		bodyReader = bytes.NewBuffer(jsonBody)
	}

	req, _ := http.NewRequest(method, *baseURL+path, bodyReader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	ok := false
	for _, s := range expectedStatus {
		ok = ok || resp.StatusCode == s
	}
	if !ok {
		log.Fatalf("expected status %v, got %d. Body: %s", expectedStatus, resp.StatusCode, string(respBody))
	}
	log.Debugf("response: %s", string(respBody))

	res := map[string]interface{}{}
	_ = json.Unmarshal(respBody, &res)
	return res
}
