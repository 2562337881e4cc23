package main

import (
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	// Global flags
	apiURL := "http://localhost:8080"
	if envURL := os.Getenv("API_URL"); envURL != "" {
		apiURL = envURL
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "flow":
		flowCmd(apiURL, args)
	case "race":
		raceCmd(apiURL, args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`Auth Simulator - Development tool for exercising the session API

USAGE:
  simulator <command> [options]

COMMANDS:
  flow      Sign up, log in, read the current account, log out and check the session is gone
  race      Sign up the same username from many clients at once; exactly one must win
  help      Show this help message

ENVIRONMENT:
  API_URL   Backend API URL (default: http://localhost:8080)

EXAMPLES:
  # Full lifecycle for a generated username
  simulator flow

  # Full lifecycle for a given account
  simulator flow --username=alice01 --password=secret123

  # 20 concurrent sign-ups for one username
  simulator race --count=20`)
}

func flowCmd(apiURL string, args []string) {
	fs := flag.NewFlagSet("flow", flag.ExitOnError)
	username := fs.String("username", generatedUsername("user"), "Username to sign up with (5-20 chars)")
	password := fs.String("password", "testpassword123", "Password to sign up with")
	fs.Parse(args)

	client := NewAPIClient(apiURL)

	fmt.Println("=== Auth Simulator: Full Flow ===")
	fmt.Println()

	step("Signing up "+*username, func() error {
		result, err := client.SignUp(*username, *password)
		if err == nil {
			fmt.Printf("(status: %s) ", result.Status)
		}
		return err
	})

	step("Logging in", func() error {
		_, err := client.LogIn(*username, *password)
		if err == nil && client.Token() == "" {
			return errors.New("no access token cookie in response")
		}
		return err
	})

	step("Logging in again while authenticated", func() error {
		_, err := client.LogIn(*username, *password)
		return expectStatus(err, http.StatusUnauthorized)
	})

	step("Reading current account", func() error {
		account, err := client.Me()
		if err == nil {
			fmt.Printf("(id: %s, roles: %v) ", account.ID, account.Roles)
		}
		return err
	})

	stale := client.Token()

	step("Logging out", func() error {
		_, err := client.LogOut()
		return err
	})

	step("Replaying the old token", func() error {
		client.token = stale
		_, err := client.Me()
		return expectStatus(err, http.StatusUnauthorized)
	})

	fmt.Println()
	fmt.Println("=========================================")
	fmt.Println("  FLOW COMPLETE")
	fmt.Println("=========================================")
}

func raceCmd(apiURL string, args []string) {
	fs := flag.NewFlagSet("race", flag.ExitOnError)
	count := fs.Int("count", 10, "Number of concurrent sign-ups")
	username := fs.String("username", generatedUsername("race"), "Username every client signs up with")
	fs.Parse(args)

	if *count < 2 || *count > 100 {
		fmt.Println("Error: --count must be between 2 and 100")
		os.Exit(1)
	}

	fmt.Printf("=== Auth Simulator: %d concurrent sign-ups for %s ===\n", *count, *username)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		created  int
		conflict int
		failed   []error
	)
	for i := 0; i < *count; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := NewAPIClient(apiURL).SignUp(*username, "testpassword123")

			mu.Lock()
			defer mu.Unlock()
			var statusErr *StatusError
			switch {
			case err == nil:
				created++
			case errors.As(err, &statusErr) && statusErr.Status == http.StatusConflict:
				conflict++
			default:
				failed = append(failed, err)
			}
		}()
	}
	wg.Wait()

	fmt.Printf("  created:  %d\n", created)
	fmt.Printf("  conflict: %d\n", conflict)
	for _, err := range failed {
		fmt.Printf("  error:    %v\n", err)
	}

	if created != 1 || len(failed) > 0 {
		fmt.Println("FAILED: expected exactly one sign-up to succeed")
		os.Exit(1)
	}
	fmt.Println("OK")
}

func step(label string, fn func() error) {
	fmt.Printf("%s... ", label)
	if err := fn(); err != nil {
		fmt.Printf("FAILED\n  Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("OK")
}

func expectStatus(err error, status int) error {
	var statusErr *StatusError
	if errors.As(err, &statusErr) && statusErr.Status == status {
		return nil
	}
	if err == nil {
		return fmt.Errorf("expected status %d, request succeeded", status)
	}
	return fmt.Errorf("expected status %d: %w", status, err)
}

func generatedUsername(prefix string) string {
	return fmt.Sprintf("%s%d", prefix, time.Now().UnixNano()%1000000)
}
