package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/hamed0406/pingboard/internal/domain"
)

func main() {
	api := os.Getenv("API_BASE")
	if api == "" {
		api = "http://localhost:8080"
	}

	target := strings.Join(os.Args[1:], " ")
	if target == "" {
		reader := bufio.NewReader(os.Stdin)
		fmt.Print("Enter a server address (e.g., 155.133.226.1:27015): ")
		target, _ = reader.ReadString('\n')
	}
	target = strings.TrimSpace(target)
	if target == "" {
		fmt.Println("Please enter a valid IP address.")
		os.Exit(2)
	}

	body, _ := json.Marshal(map[string]string{"target": target})
	req, _ := http.NewRequest(http.MethodPost, api+"/api/custom", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if key := os.Getenv("API_KEY"); key != "" {
		req.Header.Set("X-API-Key", key)
	}

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		fmt.Println("Error contacting API:", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		fmt.Println("API returned status:", resp.Status)
		os.Exit(1)
	}

	var entry domain.ResultEntry
	if err := json.NewDecoder(resp.Body).Decode(&entry); err != nil {
		fmt.Println("Unexpected response:", err)
		os.Exit(1)
	}
	fmt.Println(describe(entry))
}

func describe(e domain.ResultEntry) string {
	o := e.Outcome
	if !o.OK() {
		return fmt.Sprintf("%s: %s\n  %s", e.Endpoint.Name, o.ErrorKind.Label(), o.ErrorKind.Tip())
	}
	line := fmt.Sprintf("%s: reachable", e.Endpoint.Name)
	if o.LatencyMS != nil {
		line = fmt.Sprintf("%s: %dms via %s (%s)", e.Endpoint.Name, *o.LatencyMS, o.Method, o.Quality().Description())
	}
	if e.Fallback {
		line += "\n  host probe failed; result taken from the port check"
	}
	return line
}
