// scraper bulk-downloads the if-archive z-code corpus into a local directory
// for use with cmd/gametest.
package main

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const indexURL = "https://www.ifarchive.org/indexes/if-archive/games/zcode/"
const archiveRoot = "https://www.ifarchive.org"
const outputDir = "stories"

func main() {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		fmt.Printf("Failed to create output directory: %v\n", err)
		os.Exit(1)
	}

	client := &http.Client{Timeout: 30 * time.Second}
	res, err := client.Get(indexURL)
	if err != nil {
		fmt.Printf("Failed to fetch index: %v\n", err)
		os.Exit(1)
	}
	defer res.Body.Close() // nolint:errcheck

	if res.StatusCode != http.StatusOK {
		fmt.Printf("Bad status code: %d\n", res.StatusCode)
		os.Exit(1)
	}

	doc, err := goquery.NewDocumentFromReader(res.Body)
	if err != nil {
		fmt.Printf("Failed to parse HTML: %v\n", err)
		os.Exit(1)
	}

	var games []string
	doc.Find("a").Each(func(_ int, selection *goquery.Selection) {
		href, ok := selection.Attr("href")
		if !ok {
			return
		}
		lower := strings.ToLower(href)
		for _, ext := range []string{".z1", ".z2", ".z3", ".z4", ".z5", ".z8"} {
			if strings.HasSuffix(lower, ext) {
				games = append(games, href)
				return
			}
		}
	})

	fmt.Printf("Found %d story files\n", len(games))

	downloaded := 0
	for _, href := range games {
		name := filepath.Base(href)
		target := filepath.Join(outputDir, name)
		if _, err := os.Stat(target); err == nil {
			continue // Already have it
		}

		url := href
		if strings.HasPrefix(url, "/") {
			url = archiveRoot + url
		}

		res, err := client.Get(url)
		if err != nil {
			fmt.Printf("Failed to download %s: %v\n", name, err)
			continue
		}
		data, err := io.ReadAll(res.Body)
		res.Body.Close() // nolint:errcheck
		if err != nil {
			fmt.Printf("Failed to read %s: %v\n", name, err)
			continue
		}

		if err := os.WriteFile(target, data, 0644); err != nil {
			fmt.Printf("Failed to write %s: %v\n", name, err)
			continue
		}
		downloaded++
		fmt.Printf("Downloaded %s (%d bytes)\n", name, len(data))

		// Be polite to the archive
		time.Sleep(200 * time.Millisecond)
	}

	fmt.Printf("Downloaded %d new stories into %s\n", downloaded, outputDir)
}
