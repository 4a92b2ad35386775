package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hamed0406/sitewatch/internal/domain"
	"github.com/hamed0406/sitewatch/internal/form"
)

type prompter struct {
	in  *bufio.Reader
	out io.Writer
}

func (p prompter) ask(label, def string) string {
	if def != "" {
		fmt.Fprintf(p.out, "%s [%s]: ", label, def)
	} else {
		fmt.Fprintf(p.out, "%s: ", label)
	}
	raw, _ := p.in.ReadString('\n')
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def
	}
	return raw
}

func (p prompter) askInt(label string, def int) int {
	v := p.ask(label, strconv.Itoa(def))
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0 // rejected by validation below
	}
	return n
}

// readDraft asks for every field, re-asking only the ones that fail
// validation.
func readDraft(p prompter) form.Draft {
	d := form.DefaultDraft()
	d.Name = p.ask("Site name", "")
	d.URL = p.ask("URL (e.g., https://example.com)", "")
	d.Description = p.ask("Description (optional)", "")
	d.Country = strings.ToUpper(p.ask("Country code (e.g., US)", ""))
	d.CheckInterval = p.askInt("Check interval (seconds)", d.CheckInterval)
	d.TimeoutSeconds = p.askInt("Timeout (seconds)", d.TimeoutSeconds)
	d.ExpectedStatusCode = p.askInt("Expected status code", d.ExpectedStatusCode)
	for _, t := range strings.Split(p.ask("Tags (comma separated)", ""), ",") {
		d.AddTag(t)
	}

	for {
		errs := form.Validate(d)
		if len(errs) == 0 {
			return d
		}
		for _, field := range []string{
			form.FieldName, form.FieldURL, form.FieldCountry,
			form.FieldCheckInterval, form.FieldTimeoutSeconds, form.FieldExpectedStatusCode,
		} {
			msg, bad := errs[field]
			if !bad {
				continue
			}
			fmt.Fprintln(p.out, "  ✖", msg)
			switch field {
			case form.FieldName:
				d.Name = p.ask("Site name", d.Name)
			case form.FieldURL:
				d.URL = p.ask("URL", "")
			case form.FieldCountry:
				d.Country = strings.ToUpper(p.ask("Country code", ""))
			case form.FieldCheckInterval:
				d.CheckInterval = p.askInt("Check interval (seconds)", form.DefaultCheckInterval)
			case form.FieldTimeoutSeconds:
				d.TimeoutSeconds = p.askInt("Timeout (seconds)", form.DefaultTimeoutSeconds)
			case form.FieldExpectedStatusCode:
				d.ExpectedStatusCode = p.askInt("Expected status code", form.DefaultExpectedStatusCode)
			}
		}
	}
}

func main() {
	api := os.Getenv("API_BASE")
	if api == "" {
		api = "http://localhost:8080"
	}
	key := os.Getenv("ADMIN_API_KEY")

	p := prompter{in: bufio.NewReader(os.Stdin), out: os.Stdout}
	d := readDraft(p)
	if !domain.KnownCountry(d.Country) {
		fmt.Printf("Note: %s is not a known country; the site will not appear on the map.\n", d.Country)
	}

	body, _ := json.Marshal(d)
	req, _ := http.NewRequest(http.MethodPost, api+"/api/sites", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set("X-API-Key", key)
	}
	client := &http.Client{Timeout: 15 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		fmt.Println("Error contacting API:", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 == 2 {
		fmt.Println("Added! Check GET /api/sites or open the dashboard.")
		return
	}
	var out struct {
		Error  string            `json:"error"`
		Errors map[string]string `json:"errors"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	fmt.Println("API returned status:", resp.Status)
	if out.Error != "" {
		fmt.Println(" ", out.Error)
	}
	for _, msg := range out.Errors {
		fmt.Println("  ✖", msg)
	}
	os.Exit(1)
}
