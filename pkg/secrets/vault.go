// Package secrets copies credentials from a Vault KV path into the process
// environment so config.Load picks them up like any other variable.
package secrets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/snacktacular/backend/pkg/retry"
)

// Vault points at one KV secret
type Vault struct {
	Addr      string
	Token     string
	Namespace string
	Mount     string
	Path      string
	KVVersion int
	// Overwrite replaces variables that are already set
	Overwrite bool

	HTTPClient *http.Client
	Attempts   int
}

// Result summarises an Apply call
type Result struct {
	Loaded  int
	Skipped int
}

// VaultFromEnv reads VAULT_* variables. ok is false when VAULT_ENABLED is not true.
func VaultFromEnv() (v *Vault, ok bool) {
	if !strings.EqualFold(os.Getenv("VAULT_ENABLED"), "true") {
		return nil, false
	}

	v = &Vault{
		Addr:      os.Getenv("VAULT_ADDR"),
		Token:     os.Getenv("VAULT_TOKEN"),
		Namespace: os.Getenv("VAULT_NAMESPACE"),
		Mount:     envOr("VAULT_MOUNT", "secret"),
		Path:      os.Getenv("VAULT_PATH"),
		KVVersion: 2,
		Overwrite: strings.EqualFold(os.Getenv("VAULT_OVERWRITE"), "true"),
		Attempts:  3,
	}
	if n, err := strconv.Atoi(os.Getenv("VAULT_KV_VERSION")); err == nil {
		v.KVVersion = n
	}
	timeout := 5 * time.Second
	if ms, err := strconv.Atoi(os.Getenv("VAULT_TIMEOUT_MS")); err == nil && ms > 0 {
		timeout = time.Duration(ms) * time.Millisecond
	}
	v.HTTPClient = &http.Client{Timeout: timeout}
	return v, true
}

// Fetch reads the secret's key/value pairs
func (v *Vault) Fetch(ctx context.Context) (map[string]string, error) {
	url, err := v.url()
	if err != nil {
		return nil, err
	}
	if v.Token == "" {
		return nil, errors.New("VAULT_TOKEN is required")
	}

	var body []byte
	err = retry.Do(ctx, retry.QuickConfig(v.Attempts), func() error {
		body, err = v.get(ctx, url)
		return err
	})
	if err != nil {
		return nil, err
	}

	var payload struct {
		Data map[string]json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode vault response: %w", err)
	}
	data := payload.Data
	if v.KVVersion != 1 {
		raw, ok := data["data"]
		if !ok {
			return nil, errors.New("vault response has no data.data for KV v2")
		}
		data = nil
		if err := json.Unmarshal(raw, &data); err != nil {
			return nil, fmt.Errorf("decode vault KV v2 data: %w", err)
		}
	}
	if data == nil {
		return nil, errors.New("vault response has no data")
	}

	out := make(map[string]string, len(data))
	for key, raw := range data {
		out[key] = flatten(raw)
	}
	return out, nil
}

// Apply fetches the secret and exports it with os.Setenv
func (v *Vault) Apply(ctx context.Context) (Result, error) {
	values, err := v.Fetch(ctx)
	if err != nil {
		return Result{}, err
	}

	var res Result
	for key, value := range values {
		if !v.Overwrite && os.Getenv(key) != "" {
			res.Skipped++
			continue
		}
		if err := os.Setenv(key, value); err != nil {
			return res, err
		}
		res.Loaded++
	}
	return res, nil
}

func (v *Vault) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Vault-Token", v.Token)
	if v.Namespace != "" {
		req.Header.Set("X-Vault-Namespace", v.Namespace)
	}

	client := v.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("vault returned %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}
	return body, nil
}

func (v *Vault) url() (string, error) {
	addr := strings.TrimRight(v.Addr, "/")
	mount := strings.Trim(v.Mount, "/")
	path := strings.TrimLeft(v.Path, "/")
	if addr == "" || mount == "" || path == "" {
		return "", errors.New("VAULT_ADDR, VAULT_MOUNT and VAULT_PATH must be set")
	}
	if v.KVVersion == 1 {
		return fmt.Sprintf("%s/v1/%s/%s", addr, mount, path), nil
	}
	return fmt.Sprintf("%s/v1/%s/data/%s", addr, mount, path), nil
}

// flatten renders strings bare and everything else as JSON text
func flatten(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	if string(raw) == "null" {
		return ""
	}
	return string(raw)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
