// cmd/preflight/main.go
package main

import (
	"fmt"
	"os"
	"strings"
)

func main() {
	fail := func(msg string) {
		fmt.Fprintln(os.Stderr, "✖", msg)
		os.Exit(1)
	}
	warn := func(msg string) { fmt.Fprintln(os.Stderr, "⚠", msg) }
	ok := func(msg string) { fmt.Println("✔", msg) }

	admin := strings.TrimSpace(os.Getenv("ADMIN_API_KEYS"))
	pub := strings.TrimSpace(os.Getenv("PUBLIC_API_KEYS"))
	addr := strings.TrimSpace(os.Getenv("ADDR"))
	dbPath := strings.TrimSpace(os.Getenv("DB_PATH"))
	allowed := strings.TrimSpace(os.Getenv("ALLOWED_ORIGINS"))
	slack := strings.TrimSpace(os.Getenv("SLACK_WEBHOOK"))

	if admin == "" {
		fail("ADMIN_API_KEYS is empty (admin routes will 403).")
	}
	if pub == "" {
		fail("PUBLIC_API_KEYS is empty (read routes will 401).")
	}

	// Normalize and sanity-check lists (no spaces around commas).
	for name, v := range map[string]string{"ADMIN_API_KEYS": admin, "PUBLIC_API_KEYS": pub} {
		if strings.Contains(v, " ") {
			warn(name + " contains spaces; use comma-separated with no spaces, e.g. key1,key2")
		}
	}

	if addr == "" {
		warn("ADDR is empty; default in your app may be used.")
	} else {
		ok("ADDR=" + addr)
	}

	if dbPath == "" {
		warn("DB_PATH empty — API will use in-memory stores; targets and reports are lost on restart.")
	} else {
		ok("DB_PATH=" + dbPath)
	}

	if allowed == "" {
		warn("ALLOWED_ORIGINS empty — all origins are allowed by default.")
	} else {
		ok("ALLOWED_ORIGINS=" + allowed)
	}

	if slack == "" {
		warn("SLACK_WEBHOOK empty — alerts only go to the structured log.")
	} else if !strings.HasPrefix(slack, "https://") {
		warn("SLACK_WEBHOOK is not an https URL.")
	} else {
		ok("SLACK_WEBHOOK present")
	}

	ok("preflight passed")
}
