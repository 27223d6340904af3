// Command spendlog-import appends a JSON export of expenses to spendlog.
// Records whose id already exists are skipped.
//
// With -server the file is posted to a running instance, which is the safe
// way to import while the server is up. Without it the records are written
// straight to the configured slot; the server must be stopped, otherwise its
// next change rewrites the slot from its own copy and drops the import.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"spendlog/internal/cli"
	"spendlog/internal/config"
	"spendlog/internal/core"
	"spendlog/internal/log"
	"spendlog/internal/services"
	"spendlog/internal/utils"
)

func main() {
	path := flag.String("file", "", "JSON file holding an array of expense records")
	server := flag.String("server", "", "base URL of a running spendlog, e.g. http://localhost:8081")
	flag.Parse()

	if *path == "" {
		fmt.Fprintln(os.Stderr, "usage: spendlog-import -file expenses.json [-server http://localhost:8081]")
		os.Exit(2)
	}

	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg.Log.Level).WithComponent(log.ComponentImport)

	raw, records, err := readRecords(*path)
	if err != nil {
		logger.Error("Failed to read import file", "error", err, "path", *path)
		os.Exit(1)
	}

	ctx := context.Background()
	if *server != "" {
		res, err := postImport(ctx, &http.Client{Timeout: 30 * time.Second}, *server, raw)
		if err != nil {
			logger.Error("Import request failed", "error", err, "server", *server)
			os.Exit(1)
		}
		if !res.Saved {
			logger.Warn("Server applied the import but could not save it", log.FieldCount, res.Imported)
			os.Exit(1)
		}
		logger.Info("Import finished", log.FieldCount, res.Imported, "server", *server)
		return
	}

	if err := checkDirectImport(cfg, listening); err != nil {
		logger.Error("Refusing to import", "error", err)
		os.Exit(1)
	}

	st, backend := cli.OpenStore(ctx, logger, cfg)
	svc := services.NewExpenseService(st, backend.Publisher, utils.SystemClock{})

	added, err := svc.ImportExpenses(ctx, records)

	_ = svc.Close()
	if backend.Cleanup != nil {
		_ = backend.Cleanup()
	}

	if err != nil {
		logger.Error("Import was not saved", "error", err, log.FieldCount, added)
		os.Exit(1)
	}
	logger.Info("Import finished", log.FieldCount, added, "total", st.Len())
}

func readRecords(path string) ([]byte, []core.Expense, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	var records []core.Expense
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return raw, records, nil
}

// checkDirectImport rejects writes that would be lost: a memory slot dies
// with this process, and a running server overwrites the slot from its own
// copy on its next change.
func checkDirectImport(cfg config.Config, isListening func(addr string) bool) error {
	if cfg.Storage.Backend == "memory" {
		return errors.New("memory backend keeps nothing after this process exits; use -server")
	}
	if addr := net.JoinHostPort("127.0.0.1", cfg.HTTP.Port); isListening(addr) {
		return fmt.Errorf("spendlog is running on %s; stop it or import with -server", addr)
	}
	return nil
}

func listening(addr string) bool {
	conn, err := net.DialTimeout("tcp", addr, 500*time.Millisecond)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}

type importResult struct {
	Imported int  `json:"imported"`
	Saved    bool `json:"saved"`
}

func postImport(ctx context.Context, client *http.Client, server string, body []byte) (importResult, error) {
	url := strings.TrimRight(server, "/") + "/api/import"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return importResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return importResult{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		return importResult{}, fmt.Errorf("server answered %s: %s", resp.Status, apiErr.Error)
	}

	var res importResult
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return importResult{}, fmt.Errorf("decode response: %w", err)
	}
	return res, nil
}
