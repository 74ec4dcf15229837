package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/davidahmann/agegate/internal/config"
	"github.com/davidahmann/agegate/internal/idresolve"
)

const defaultAddr = "http://localhost:8080"

func main() {
	exitFn(run(os.Args, os.Stdout, os.Stderr))
}

var exitFn = os.Exit

func run(args []string, stdout io.Writer, stderr io.Writer) int {
	if len(args) < 2 {
		usage(stderr)
		return 2
	}

	switch args[1] {
	case "config":
		return handleConfig(args[2:], stdout, stderr)
	case "resolve-id":
		return handleResolveID(args[2:], stdout, stderr)
	case "review":
		return handleReview(args[2:], stdout, stderr)
	case "interviews":
		return handleInterviews(args[2:], stdout, stderr)
	default:
		usage(stderr)
		return 2
	}
}

func handleConfig(args []string, stdout io.Writer, stderr io.Writer) int {
	if len(args) == 0 || args[0] != "check" {
		usage(stderr)
		return 2
	}
	fs := flag.NewFlagSet("config check", flag.ContinueOnError)
	fs.SetOutput(stderr)
	if err := fs.Parse(args[1:]); err != nil {
		fs.Usage()
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(stderr, "config check requires <config_path>")
		fs.Usage()
		return 2
	}

	cfg, err := config.Load(fs.Arg(0))
	if err != nil {
		fmt.Fprintln(stderr, err.Error())
		return 1
	}
	if keys := cfg.Unconfigured(); len(keys) > 0 {
		fmt.Fprintf(stdout, "placeholder values: %s\n", strings.Join(keys, ", "))
		return 1
	}
	fmt.Fprintf(stdout, "ok review_channel=%s verified_role=%s min_account_age_days=%d\n",
		idresolve.Extract(cfg.ReviewChannelID), idresolve.Extract(cfg.VerifiedRoleID), cfg.MinAccountAgeDays)
	return 0
}

func handleResolveID(args []string, stdout io.Writer, stderr io.Writer) int {
	if len(args) != 1 {
		fmt.Fprintln(stderr, "resolve-id requires <value>")
		return 2
	}
	id := idresolve.Extract(args[0])
	fmt.Fprintln(stdout, id)
	if !idresolve.IsSnowflake(id) {
		fmt.Fprintf(stderr, "warning: %q is not a numeric id\n", id)
		return 1
	}
	return 0
}

func handleReview(args []string, stdout io.Writer, stderr io.Writer) int {
	fs := flag.NewFlagSet("review", flag.ContinueOnError)
	fs.SetOutput(stderr)
	addr := fs.String("addr", envOrDefault("AGEGATE_ADDR", defaultAddr), "agegate ops API address")
	jsonOut := fs.Bool("json", false, "print raw JSON response")
	token := fs.String("token", os.Getenv("AGEGATE_OPS_TOKEN"), "bearer token")
	if err := fs.Parse(args); err != nil {
		fs.Usage()
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(stderr, "review requires <artifact_id>")
		fs.Usage()
		return 2
	}

	respBody, status, err := httpGet(http.DefaultClient, *addr+"/v1/reviews/"+fs.Arg(0), *token)
	if err != nil {
		fmt.Fprintln(stderr, err.Error())
		return 1
	}
	if status != http.StatusOK {
		fmt.Fprintf(stderr, "review lookup failed: %s\n", strings.TrimSpace(string(respBody)))
		return 1
	}
	if *jsonOut {
		_, _ = stdout.Write(respBody)
		return 0
	}

	var payload struct {
		ArtifactID  string `json:"artifact_id"`
		RequesterID string `json:"requester_id"`
		Status      string `json:"status"`
		ModeratorID string `json:"moderator_id"`
	}
	if err := json.Unmarshal(respBody, &payload); err != nil {
		fmt.Fprintln(stderr, "invalid response:", err)
		return 1
	}
	fmt.Fprintf(stdout, "status=%s artifact_id=%s requester_id=%s moderator_id=%s\n",
		payload.Status, payload.ArtifactID, payload.RequesterID, payload.ModeratorID)
	return 0
}

func handleInterviews(args []string, stdout io.Writer, stderr io.Writer) int {
	fs := flag.NewFlagSet("interviews", flag.ContinueOnError)
	fs.SetOutput(stderr)
	addr := fs.String("addr", envOrDefault("AGEGATE_ADDR", defaultAddr), "agegate ops API address")
	token := fs.String("token", os.Getenv("AGEGATE_OPS_TOKEN"), "bearer token")
	if err := fs.Parse(args); err != nil {
		fs.Usage()
		return 2
	}

	respBody, status, err := httpGet(http.DefaultClient, *addr+"/v1/interviews", *token)
	if err != nil {
		fmt.Fprintln(stderr, err.Error())
		return 1
	}
	if status != http.StatusOK {
		fmt.Fprintf(stderr, "interviews lookup failed: %s\n", strings.TrimSpace(string(respBody)))
		return 1
	}
	var payload struct {
		Active int `json:"active"`
	}
	if err := json.Unmarshal(respBody, &payload); err != nil {
		fmt.Fprintln(stderr, "invalid response:", err)
		return 1
	}
	fmt.Fprintf(stdout, "active=%d\n", payload.Active)
	return 0
}

func httpGet(client *http.Client, url string, token string) ([]byte, int, error) {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return body, resp.StatusCode, nil
}

func envOrDefault(key string, fallback string) string {
	value := os.Getenv(key)
	if value != "" {
		return value
	}
	return fallback
}

func usage(w io.Writer) {
	fmt.Fprint(w, `agegate CLI

Usage:
  agegate-cli config check <config_path>
  agegate-cli resolve-id <value>
  agegate-cli review <artifact_id> [--addr URL] [--json] [--token TOKEN]
  agegate-cli interviews [--addr URL] [--token TOKEN]
`)
}
