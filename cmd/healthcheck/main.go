// Command healthcheck probes a running pointspanel server. It exits 0 when the
// server answers, or with -strict only when the ledger is also reachable.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"
)

const defaultAddr = "127.0.0.1:8080"

type healthBody struct {
	Status          string `json:"status"`
	LedgerReachable bool   `json:"ledger_reachable"`
	LedgerError     string `json:"ledger_error"`
}

func main() {
	strict := flag.Bool("strict", false, "fail when the ledger is unreachable")
	flag.Parse()

	url := fmt.Sprintf("http://%s/api/v1/health", normalizeAddr(os.Getenv("POINTSPANEL_LISTEN_ADDR")))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := probe(ctx, &http.Client{Timeout: 2 * time.Second}, url, *strict); err != nil {
		fmt.Fprintln(os.Stderr, "healthcheck:", err)
		os.Exit(1)
	}
}

func probe(ctx context.Context, client *http.Client, url string, strict bool) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	if !strict {
		return nil
	}

	var body healthBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("decode health report: %w", err)
	}
	if !body.LedgerReachable {
		return fmt.Errorf("status %s: ledger unreachable: %s", body.Status, body.LedgerError)
	}
	return nil
}

// normalizeAddr ensures the healthcheck connects to loopback rather than the
// bind-all address. Docker containers bind 0.0.0.0 but the healthcheck runs
// inside the same container, so loopback is reachable and more correct.
func normalizeAddr(raw string) string {
	host, port, err := net.SplitHostPort(raw)
	if err != nil {
		return defaultAddr
	}
	if host == "" || host == "0.0.0.0" {
		host = "127.0.0.1"
	}
	return net.JoinHostPort(host, port)
}
